package tsclass

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// BatchConfig describes one extraction pass.
type BatchConfig struct {
	Files     []string
	Extractor *Extractor
	// Jobs bounds concurrent file reads. Defaults to GOMAXPROCS.
	Jobs int
}

// FileResult is the outcome for one file.
type FileResult struct {
	File   string
	Tokens []string
	Err    error
}

// BatchResult is the outcome of a pass.
type BatchResult struct {
	Files  []FileResult
	Tokens Set
}

// Failed returns the results that carry an error.
func (r *BatchResult) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Run reads every file concurrently, extracts them one at a time in path
// order and resets the extractor once at the end.
func Run(ctx context.Context, cfg BatchConfig) (*BatchResult, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("batch: nil extractor")
	}
	files := slices.Clone(cfg.Files)
	slices.Sort(files)
	files = slices.Compact(files)

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	contents := make([]string, len(files))
	readErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				readErrs[i] = fmt.Errorf("reading %s: %w", path, err)
				return nil
			}
			contents[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	defer cfg.Extractor.Reset()

	result := &BatchResult{
		Files:  make([]FileResult, 0, len(files)),
		Tokens: Set{},
	}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if readErrs[i] != nil {
			result.Files = append(result.Files, FileResult{File: path, Err: readErrs[i]})
			continue
		}
		tokens := Set{}
		err := cfg.Extractor.Extract(path, contents[i], tokens)
		result.Files = append(result.Files, FileResult{File: path, Tokens: tokens.Sorted(), Err: err})
		result.Tokens.Merge(tokens)
	}
	return result, nil
}
