package analysis

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultFamilyPattern extracts the three-digit family code of names
	// like "X11117A.txt".
	DefaultFamilyPattern = `X(\d{3})`
	DefaultPrecision     = 2
)

type AggregateOptions struct {
	// Pattern is matched against the file name; the first capture group (or
	// the whole match when there is none) is the family key.
	Pattern string
	// Precision is the number of decimals averages are rounded to, half to
	// even. Values <= 0 select DefaultPrecision.
	Precision int32
}

// GroupAverage holds the per-family means. A field is nil when no record of
// the family defines it.
type GroupAverage struct {
	Family string `json:"family"`
	Count  int    `json:"count"`

	DemandTotal    *float64 `json:"demand_total"`
	InventoryUnits *float64 `json:"inventory_units"`
	HoldingCost    *float64 `json:"holding_cost"`
	SetupCost      *float64 `json:"setup_cost"`
	TotalCost      *float64 `json:"total_cost"`
	TimeSec        *float64 `json:"time_sec"`
	Gap            *float64 `json:"gap"`
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value(places int32) *float64 {
	if m.n == 0 {
		return nil
	}
	v := Round(m.sum/float64(m.n), places)
	return &v
}

type groupAcc struct {
	count                                       int
	demand, inv, hold, setup, total, secs, gaps mean
}

// Aggregate groups records by family and averages each KPI field over the
// records that define it. Records whose file name has no family key are
// left out.
func Aggregate(records []Record, opts AggregateOptions) ([]GroupAverage, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultFamilyPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid family pattern %q: %w", pattern, err)
	}
	places := opts.Precision
	if places <= 0 {
		places = DefaultPrecision
	}

	groups := make(map[string]*groupAcc)
	for _, r := range records {
		key, ok := FamilyKey(re, r.File)
		if !ok {
			log.Printf("Aggregate: %s has no family key, excluded from averages", r.File)
			continue
		}
		g := groups[key]
		if g == nil {
			g = &groupAcc{}
			groups[key] = g
		}
		g.count++
		demand, secs := r.DemandTotal, r.TimeSec
		g.demand.add(&demand)
		g.secs.add(&secs)
		g.inv.add(r.InventoryUnits)
		g.hold.add(r.HoldingCost)
		g.setup.add(r.SetupCost)
		g.total.add(r.TotalCost)
		g.gaps.add(r.Gap)
	}

	out := make([]GroupAverage, 0, len(groups))
	for key, g := range groups {
		out = append(out, GroupAverage{
			Family:         key,
			Count:          g.count,
			DemandTotal:    g.demand.value(places),
			InventoryUnits: g.inv.value(places),
			HoldingCost:    g.hold.value(places),
			SetupCost:      g.setup.value(places),
			TotalCost:      g.total.value(places),
			TimeSec:        g.secs.value(places),
			Gap:            g.gaps.value(places),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Family < out[j].Family
	})
	return out, nil
}

// FamilyKey applies re to file.
func FamilyKey(re *regexp.Regexp, file string) (string, bool) {
	m := re.FindStringSubmatch(file)
	switch {
	case m == nil:
		return "", false
	case len(m) > 1:
		return m[1], true
	default:
		return m[0], true
	}
}

// Round rounds half to even at the given number of decimals.
// Non-finite values are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}

// RoundTime converts d to seconds with two decimals.
func RoundTime(d time.Duration) float64 {
	return Round(d.Seconds(), 2)
}
