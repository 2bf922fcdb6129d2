package batch

import "fmt"

// Shard selects the files at positions i with i % parts == part. Applied to
// the same sorted list, the shards for part 0..parts-1 form a disjoint cover.
func Shard(files []string, parts, part int) ([]string, error) {
	if parts < 1 {
		return nil, fmt.Errorf("parts must be >= 1, got %d", parts)
	}
	if part < 0 || part >= parts {
		return nil, fmt.Errorf("part must be in [0, %d), got %d", parts, part)
	}
	out := make([]string, 0, len(files)/parts+1)
	for i, f := range files {
		if i%parts == part {
			out = append(out, f)
		}
	}
	return out, nil
}

// Limit keeps the first n files; n <= 0 keeps all of them.
func Limit(files []string, n int) []string {
	if n <= 0 || n >= len(files) {
		return files
	}
	return files[:n]
}

// PartOutput is the output prefix of one shard of a parallel run.
func PartOutput(out string, parts, part int) string {
	return fmt.Sprintf("%s.part-%d-of-%d", out, part, parts)
}
