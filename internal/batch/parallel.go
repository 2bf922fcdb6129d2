package batch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/solver"
)

// OptimizerFactory builds one optimizer per shard so that shards share no
// solver state.
type OptimizerFactory func() (solver.Optimizer, error)

// ConfigFactory builds optimizers from the solver section of cfg.
func ConfigFactory(cfg *config.Config) OptimizerFactory {
	return func() (solver.Optimizer, error) {
		return solver.New(cfg.Solver.Name, cfg.SolverOptions())
	}
}

// RunShard processes shard part of files and writes its report and manifest
// under out.
func RunShard(ctx context.Context, cfg *config.Config, files []string, part int, opt solver.Optimizer, out string) (*Result, *data.Manifest, error) {
	sel, err := Shard(files, cfg.Shard.Parts, part)
	if err != nil {
		return nil, nil, err
	}
	sel = Limit(sel, cfg.LimitFiles)
	log.Printf("Runner: shard %d/%d solving %d of %d instance(s), limit %s, solver %s",
		part, cfg.Shard.Parts, len(sel), len(files), cfg.TimeLimit(), opt.Name())

	runner := NewRunner(cfg, opt)
	res, runErr := runner.Run(ctx, sel)
	if res == nil {
		return nil, nil, runErr
	}

	manifest := &data.Manifest{
		Parts:      cfg.Shard.Parts,
		Part:       part,
		TotalFiles: len(files),
		Limit:      cfg.LimitFiles,
		Files:      baseNames(sel),
		Artifact:   filepath.Base(InstancesPath(out)),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	// Records computed before a cancellation are still written out.
	if err := WriteReport(out, res, cfg, manifest); err != nil {
		return res, manifest, err
	}
	if err := data.SaveManifest(manifest, ManifestPath(out)); err != nil {
		return res, manifest, err
	}
	return res, manifest, runErr
}

// RunSharded runs every shard of cfg concurrently, each with its own
// optimizer and its own artifacts, then merges the shard reports into
// cfg.Output in a separate sequential step.
func RunSharded(ctx context.Context, cfg *config.Config, factory OptimizerFactory) (*Result, error) {
	files, err := data.ListInstances(cfg.DataDir, cfg.Pattern)
	if err != nil {
		return nil, err
	}
	parts := cfg.Shard.Parts
	manifests := make([]string, parts)

	g, gctx := errgroup.WithContext(ctx)
	for part := 0; part < parts; part++ {
		part := part
		opt, err := factory()
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", part, err)
		}
		out := PartOutput(cfg.Output, parts, part)
		manifests[part] = ManifestPath(out)
		g.Go(func() error {
			_, _, err := RunShard(gctx, cfg, files, part, opt, out)
			if err != nil {
				return fmt.Errorf("shard %d: %w", part, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(manifests, cfg.Output, cfg)
}

// Merge combines shard reports into one report under out. The manifests
// must describe a disjoint cover of one file set: the same part count, each
// part exactly once, no file in two shards and, without a file limit, every
// file accounted for.
func Merge(manifestPaths []string, out string, cfg *config.Config) (*Result, error) {
	if len(manifestPaths) == 0 {
		return nil, fmt.Errorf("no manifests to merge")
	}
	manifests := make([]*data.Manifest, len(manifestPaths))
	for i, p := range manifestPaths {
		m, err := data.LoadManifest(p)
		if err != nil {
			return nil, err
		}
		manifests[i] = m
	}
	if err := checkCover(manifests); err != nil {
		return nil, err
	}

	merged := &Result{Warnings: map[string][]string{}}
	for i, m := range manifests {
		dir := filepath.Dir(manifestPaths[i])
		artifact := filepath.Join(dir, m.Artifact)
		records, err := ReadInstancesCSV(artifact)
		if err != nil {
			return nil, err
		}
		own := make(map[string]bool, len(m.Files))
		for _, f := range m.Files {
			own[f] = true
		}
		for _, r := range records {
			if !own[r.File] {
				return nil, fmt.Errorf("%s lists %s, which shard %d did not own", m.Artifact, r.File, m.Part)
			}
		}
		merged.Records = append(merged.Records, records...)

		prefix := strings.TrimSuffix(artifact, "_instances.csv")
		if info, err := LoadRunInfo(RunInfoPath(prefix)); err == nil {
			merged.Failures = append(merged.Failures, info.Failures...)
			for k, v := range info.Warnings {
				merged.Warnings[k] = v
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Merge: ignoring run info of shard %d: %v", m.Part, err)
		}
	}
	sort.SliceStable(merged.Records, func(i, j int) bool {
		return merged.Records[i].File < merged.Records[j].File
	})
	sort.SliceStable(merged.Failures, func(i, j int) bool {
		return merged.Failures[i].File < merged.Failures[j].File
	})

	if err := WriteReport(out, merged, cfg, manifests...); err != nil {
		return merged, err
	}
	log.Printf("Merge: %d shard(s), %d record(s) -> %s", len(manifests), len(merged.Records), InstancesPath(out))
	return merged, nil
}

func checkCover(manifests []*data.Manifest) error {
	parts := manifests[0].Parts
	if parts < 1 {
		return fmt.Errorf("manifest has invalid part count %d", parts)
	}
	if len(manifests) != parts {
		return fmt.Errorf("have %d manifests for %d parts", len(manifests), parts)
	}
	seenPart := make(map[int]bool, parts)
	seenFile := make(map[string]int)
	total := 0
	for _, m := range manifests {
		if m.Parts != parts || m.TotalFiles != manifests[0].TotalFiles || m.Limit != manifests[0].Limit {
			return fmt.Errorf("shard %d was produced by a different run (parts %d, files %d, limit %d)",
				m.Part, m.Parts, m.TotalFiles, m.Limit)
		}
		if m.Part < 0 || m.Part >= parts {
			return fmt.Errorf("shard index %d out of range [0, %d)", m.Part, parts)
		}
		if seenPart[m.Part] {
			return fmt.Errorf("shard %d appears twice", m.Part)
		}
		seenPart[m.Part] = true
		for _, f := range m.Files {
			if other, dup := seenFile[f]; dup {
				return fmt.Errorf("%s processed by shards %d and %d", f, other, m.Part)
			}
			seenFile[f] = m.Part
		}
		total += len(m.Files)
	}
	if manifests[0].Limit == 0 && total != manifests[0].TotalFiles {
		return fmt.Errorf("shards cover %d of %d files", total, manifests[0].TotalFiles)
	}
	return nil
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
