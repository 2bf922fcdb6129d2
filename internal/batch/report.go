package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/model"
)

var instanceHeader = []string{
	"file",
	"status",
	"time_sec",
	"gap",
	"demand_total",
	"inventory_units",
	"holding_cost",
	"setup_cost",
	"setup_count",
	"total_cost",
}

var averageHeader = []string{
	"family",
	"count",
	"demand_total",
	"inventory_units",
	"holding_cost",
	"setup_cost",
	"total_cost",
	"time_sec",
	"gap",
}

func InstancesPath(out string) string { return out + "_instances.csv" }
func AveragesPath(out string) string  { return out + "_averages.csv" }
func RunInfoPath(out string) string   { return out + "_run.json" }
func ManifestPath(out string) string  { return out + "_manifest.json" }

// RunInfo is the JSON sidecar of a report.
type RunInfo struct {
	Config     *config.Config       `json:"config,omitempty"`
	Host       SysInfo              `json:"host"`
	StartedAt  string               `json:"started_at,omitempty"`
	FinishedAt string               `json:"finished_at,omitempty"`
	Statuses   map[model.Status]int `json:"statuses"`
	Failures   []Failure            `json:"failures"`
	Warnings   map[string][]string  `json:"warnings,omitempty"`
	Manifests  []*data.Manifest     `json:"manifests,omitempty"`
}

// WriteReport writes the instances CSV, the family averages CSV and the run
// JSON for res under the prefix out. The averages are computed here so that
// a merged report is averaged over all shards at once. manifests are the
// shard manifests the result covers.
func WriteReport(out string, res *Result, cfg *config.Config, manifests ...*data.Manifest) error {
	if res == nil {
		return fmt.Errorf("no result to report")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := os.MkdirAll(filepath.Dir(InstancesPath(out)), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := WriteInstancesCSV(InstancesPath(out), res.Records); err != nil {
		return fmt.Errorf("failed to write instances: %w", err)
	}
	groups, err := analysis.Aggregate(res.Records, cfg.AggregateOptions())
	if err != nil {
		return err
	}
	if err := WriteAveragesCSV(AveragesPath(out), groups); err != nil {
		return fmt.Errorf("failed to write averages: %w", err)
	}

	info := RunInfo{
		Config:    cfg,
		Host:      CollectSysInfo(),
		Statuses:  analysis.StatusCounts(res.Records),
		Failures:  res.Failures,
		Warnings:  res.Warnings,
		Manifests: manifests,
	}
	if info.Failures == nil {
		info.Failures = []Failure{}
	}
	if !res.StartedAt.IsZero() {
		info.StartedAt = res.StartedAt.Format(time.RFC3339)
	}
	if !res.FinishedAt.IsZero() {
		info.FinishedAt = res.FinishedAt.Format(time.RFC3339)
	}
	return writeJSON(RunInfoPath(out), info)
}

func WriteInstancesCSV(path string, records []analysis.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeInstances(f, records); err != nil {
		return err
	}
	return f.Close()
}

// EncodeInstances writes records as CSV; undefined fields are empty cells.
func EncodeInstances(out io.Writer, records []analysis.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(instanceHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.File,
			string(r.Status),
			fmtFloat(r.TimeSec),
			fmtOpt(r.Gap),
			fmtFloat(r.DemandTotal),
			fmtOpt(r.InventoryUnits),
			fmtOpt(r.HoldingCost),
			fmtOpt(r.SetupCost),
			fmtOpt(r.SetupCount),
			fmtOpt(r.TotalCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteAveragesCSV(path string, groups []analysis.GroupAverage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(averageHeader); err != nil {
		return err
	}
	for _, g := range groups {
		row := []string{
			g.Family,
			strconv.Itoa(g.Count),
			fmtOpt(g.DemandTotal),
			fmtOpt(g.InventoryUnits),
			fmtOpt(g.HoldingCost),
			fmtOpt(g.SetupCost),
			fmtOpt(g.TotalCost),
			fmtOpt(g.TimeSec),
			fmtOpt(g.Gap),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadInstancesCSV reads back a file written by WriteInstancesCSV.
func ReadInstancesCSV(path string) ([]analysis.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(instanceHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	for i, h := range instanceHeader {
		if rows[0][i] != h {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i+1, rows[0][i], h)
		}
	}

	out := make([]analysis.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := analysis.Record{File: row[0], Status: model.ParseStatus(row[1])}
		var perr error
		rec.TimeSec, perr = parseFloat(row[2], perr)
		rec.Gap, perr = parseOpt(row[3], perr)
		rec.DemandTotal, perr = parseFloat(row[4], perr)
		rec.InventoryUnits, perr = parseOpt(row[5], perr)
		rec.HoldingCost, perr = parseOpt(row[6], perr)
		rec.SetupCost, perr = parseOpt(row[7], perr)
		rec.SetupCount, perr = parseOpt(row[8], perr)
		rec.TotalCost, perr = parseOpt(row[9], perr)
		if perr != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, n+2, perr)
		}
		out = append(out, rec)
	}
	return out, nil
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtOpt(x *float64) string {
	if x == nil {
		return ""
	}
	return fmtFloat(*x)
}

func parseFloat(s string, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	return strconv.ParseFloat(s, 64)
}

func parseOpt(s string, prev error) (*float64, error) {
	if prev != nil || s == "" {
		return nil, prev
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadRunInfo reads a run JSON written by WriteReport.
func LoadRunInfo(path string) (*RunInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info RunInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &info, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
