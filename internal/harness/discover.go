package harness

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// PlaythroughSuffix marks playthrough files inside a directory tree.
const PlaythroughSuffix = ".play.yaml"

// Discover returns the playthrough files under dir, sorted by path.
// A path naming a single file is returned as is.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), PlaythroughSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Outcome pairs a playthrough file with its result or the error that
// kept it from running.
type Outcome struct {
	Path        string
	Playthrough *Playthrough
	Result      *Result
	Err         error
}

// Passed reports whether the playthrough ran and every check held.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result != nil && o.Result.Pass
}

// RunAll loads and runs every playthrough in paths, at most limit at a
// time. Outcomes keep the order of paths. Per-file failures are reported
// in the outcome; the error is only set when ctx is cancelled.
func RunAll(ctx context.Context, paths []string, limit int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := Outcome{Path: path}
			out.Playthrough, out.Err = LoadPlaythrough(path)
			if out.Err == nil {
				out.Result, out.Err = Run(out.Playthrough)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
