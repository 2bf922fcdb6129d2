package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lotsizing/internal/model"
)

// ListInstances returns the instance files in dir matching pattern, sorted by name.
func ListInstances(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.txt"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid instance pattern %q: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// InstanceName is the file name without directory and extension.
func InstanceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadInstance reads and parses one instance file. The instance is named after the file.
func LoadInstance(path string, p Parser) (*Parsed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := p.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	parsed.Instance.Name = InstanceName(path)
	return parsed, nil
}

// SaveInstance writes in to path in the layout of p, creating parent directories.
func SaveInstance(path string, in *model.Instance, p Parser) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Format(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
