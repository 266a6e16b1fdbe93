package feed

import (
	"context"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// FileReport summarizes one exported file.
type FileReport struct {
	Path     string
	Products int
	// Duplicates are ids that occur more than once in the file.
	Duplicates []string
	// Missing are ids of this file absent from at least one other file.
	Missing []string
}

// OK reports whether the file has no duplicates and matches its peers.
func (r FileReport) OK() bool {
	return len(r.Duplicates) == 0 && len(r.Missing) == 0
}

// Verify checks that every file lists each product once and that all files
// cover the same product ids. Files are scanned twice: the first pass
// builds a bloom filter per file, the second confirms duplicates exactly and
// tests each id against the other files' filters. A bloom miss is definite,
// so Missing never has false positives.
func Verify(ctx context.Context, paths []string) ([]FileReport, error) {
	filters := make([]*bloom.BloomFilter, len(paths))
	candidates := make([]map[string]struct{}, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, c, err := Filter(gctx, path)
			if err != nil {
				return errors.Wrapf(err, "filter file %d", i+1)
			}
			filters[i], candidates[i] = f, c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]FileReport, len(paths))
	g, gctx = errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			r, err := check(gctx, i, path, filters, candidates[i])
			if err != nil {
				return errors.Wrapf(err, "check file %d", i+1)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func check(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter, candidates map[string]struct{}) (FileReport, error) {
	r := FileReport{Path: path}
	counts := make(map[string]int, len(candidates))
	missing := make(map[string]struct{})

	err := Scan(ctx, path, func(id string) {
		r.Products++
		if _, ok := candidates[id]; ok {
			counts[id]++
		}
		for j, f := range filters {
			if j != idx && !f.TestString(id) {
				missing[fmt.Sprintf("%s (file %d)", id, j+1)] = struct{}{}
			}
		}
	})
	if err != nil {
		return FileReport{}, err
	}

	for id, n := range counts {
		if n > 1 {
			r.Duplicates = append(r.Duplicates, id)
		}
	}
	for id := range missing {
		r.Missing = append(r.Missing, id)
	}
	slices.Sort(r.Duplicates)
	slices.Sort(r.Missing)
	return r, nil
}
