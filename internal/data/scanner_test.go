package data

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumbers(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want []float64
	}{
		{"whitespace", "3  4\t5", []float64{3, 4, 5}},
		{"commas and semicolons", "1,2;3 ,4", []float64{1, 2, 3, 4}},
		{"signs and decimals", "-1.5 +2 .25", []float64{-1.5, 2, 0.25}},
		{"exponents", "1e3 2.5E-2 7e+1", []float64{1000, 0.025, 70}},
		{"noise around tokens", "n=20 T:15 (cap)", []float64{20, 15}},
		{"glued tokens", "12-34", []float64{12, -34}},
		{"no numbers", "capacity", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Numbers(tc.line))
		})
	}
}

func TestNumbers_FallbackSplit(t *testing.T) {
	got := Numbers("inf; NaN, x")
	assert.Len(t, got, 2)
	assert.True(t, math.IsInf(got[0], 1))
	assert.True(t, math.IsNaN(got[1]))
}
