// Command catalog-export writes the localized furniture catalog as
// gzip-compressed NDJSON files, one per locale, and verifies that all
// exported files describe the same products.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/feed"
)

func main() {
	var (
		locales string
		seed    uint64
		outDir  string
		verify  bool
	)
	flag.StringVar(&locales, "locales", "en,ar", "comma-separated locales to export")
	flag.Uint64Var(&seed, "seed", 0, "listing price seed; 0 draws fresh prices")
	flag.StringVar(&outDir, "out", "export", "output directory")
	flag.BoolVar(&verify, "verify", true, "cross-check exported files")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, locales, seed, outDir, verify); err != nil {
		slog.Error("catalog export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("catalog export completed successfully")
}

func run(ctx context.Context, locales string, seed uint64, outDir string, verify bool) error {
	// Aliases such as en-US and en-GB parse to the same locale and would
	// otherwise share one output file.
	var targets []locale.Locale
	seen := make(map[locale.Locale]struct{})
	for _, s := range strings.Split(locales, ",") {
		l, err := locale.Parse(s)
		if err != nil {
			return errors.Wrapf(err, "locale %q", s)
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		targets = append(targets, l)
	}

	prices := catalog.RandomPrices()
	if seed != 0 {
		prices = catalog.SeededPrices(seed)
	}
	index, err := catalog.NewIndex(catalog.DefaultDescriptors(), locale.DefaultDictionary(), prices)
	if err != nil {
		return errors.Wrap(err, "build catalog")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	// Listing builds draw from the shared price source, so lists are built
	// up front in locale order to keep seeded output reproducible.
	lists := make([][]catalog.Product, len(targets))
	for i, l := range targets {
		lists[i] = index.ListAll(l)
	}

	paths := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range targets {
		paths[i] = filepath.Join(outDir, "catalog-"+string(l)+".ndjson.gz")
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeFile(paths[i], l, lists[i]); err != nil {
				return errors.Wrapf(err, "export %s", l)
			}
			slog.Info("locale exported",
				slog.String("locale", string(l)),
				slog.Int("products", len(lists[i])),
				slog.String("path", paths[i]),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !verify {
		return nil
	}
	reports, err := feed.Verify(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "verify")
	}
	failed := false
	for _, r := range reports {
		if r.OK() {
			slog.Info("file verified", slog.String("path", r.Path), slog.Int("products", r.Products))
			continue
		}
		failed = true
		slog.Error("file inconsistent",
			slog.String("path", r.Path),
			slog.Any("duplicates", r.Duplicates),
			slog.Any("missing", r.Missing),
		)
	}
	if failed {
		return errors.New("exported files are inconsistent")
	}
	return nil
}

func writeFile(path string, l locale.Locale, products []catalog.Product) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close")
		}
	}()
	return feed.Write(f, l, products)
}
