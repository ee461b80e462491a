package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DirResult pairs one input file with its compilation outcome. Err is set
// instead of aborting the whole batch so every file gets reported.
type DirResult struct {
	Path   string
	Result *Result
	Err    error
}

// listInputFiles returns the sorted list of .dolh files under dir.
func listInputFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".dolh") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every .dolh file under dir, one goroutine per file
// capped at the CPU count. Results come back in input order regardless of
// completion order.
func CompileDir(ctx context.Context, dir string, opts Options) ([]DirResult, error) {
	files, err := listInputFiles(dir)
	if err != nil {
		return nil, err
	}
	results := make([]DirResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := CompileFile(path, opts)
			results[i] = DirResult{Path: path, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
