package main

import (
	"math/rand"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotsizing/internal/analysis"
	"lotsizing/internal/data"
)

func TestGenerateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in, err := generate(rng, "X10100", params{NProd: 20, NPer: 4, Tightness: 1.2, MaxDemand: 50, ZeroShare: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 20, in.NProd)
	assert.Equal(t, 4, in.NPer)
	assert.Greater(t, in.Capacity, 0.0)

	path := filepath.Join(t.TempDir(), "X10100.txt")
	require.NoError(t, data.SaveInstance(path, in, data.DefaultParser()))
	parsed, err := data.LoadInstance(path, data.DefaultParser())
	require.NoError(t, err)
	assert.Equal(t, in.Demand, parsed.Instance.Demand)
	assert.Equal(t, in.Capacity, parsed.Instance.Capacity)
	assert.Equal(t, in.SetupCost, parsed.Instance.SetupCost)
}

func TestGenerateRejectsEmptyShape(t *testing.T) {
	_, err := generate(rand.New(rand.NewSource(1)), "X", params{NProd: 0, NPer: 3})
	assert.Error(t, err)
}

func TestInstanceNameFamily(t *testing.T) {
	assert.Equal(t, "X10103", instanceName(101, 3))
	re := regexp.MustCompile(analysis.DefaultFamilyPattern)
	key, ok := analysis.FamilyKey(re, instanceName(101, 3)+".txt")
	require.True(t, ok)
	assert.Equal(t, "101", key)
}
