// Package feed writes the localized catalog as gzip-compressed NDJSON and
// cross-checks exported files against each other.
package feed

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/locale"
)

const (
	bloomCapacity = 10_000
	bloomFPR      = 0.001
)

// Write encodes one JSON object per product and line into a gzip stream.
// The gzip writer is closed on every path so its workers always stop.
func Write(w io.Writer, l locale.Locale, products []catalog.Product) (err error) {
	gz := pgzip.NewWriter(w)
	defer func() {
		if cerr := gz.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close gzip")
		}
	}()
	var e jx.Encoder
	for _, p := range products {
		e.Reset()
		encodeProduct(&e, l, p)
		e.RawStr("\n")
		if _, err := gz.Write(e.Bytes()); err != nil {
			return errors.Wrapf(err, "write %s", p.ID)
		}
	}
	return nil
}

func encodeProduct(e *jx.Encoder, l locale.Locale, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("seq")
	e.Int(p.Seq)
	e.FieldStart("locale")
	e.Str(string(l))
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Str(p.Price)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("categoryKey")
	e.Str(p.CategoryKey)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("imageIndex")
	e.Int(p.ImageIndex)
	e.ObjEnd()
}

// Scan streams a file written by Write and calls fn with each product id.
func Scan(ctx context.Context, path string, fn func(id string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		id, err := productID(scanner.Bytes())
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		fn(id)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

func productID(line []byte) (string, error) {
	var id string
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		v, err := d.Str()
		id = v
		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "decode line")
	}
	if id == "" {
		return "", errors.New("line has no id")
	}
	return id, nil
}

// Filter builds a bloom filter of every id in path. Ids that may repeat are
// returned as candidates for an exact recount.
func Filter(ctx context.Context, path string) (*bloom.BloomFilter, map[string]struct{}, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	candidates := make(map[string]struct{})
	err := Scan(ctx, path, func(id string) {
		if filter.TestAndAddString(id) {
			candidates[id] = struct{}{}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return filter, candidates, nil
}
