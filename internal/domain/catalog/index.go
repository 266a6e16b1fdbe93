package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/furniture-kart/internal/domain/locale"
)

// asset is one expanded image of a collection.
type asset struct {
	image string
	seq   int
}

// ref locates an asset by collection position and image index.
type ref struct {
	desc  int
	index int
}

// Index is the flattened, read-only view over the collection descriptors.
// Only labels and listing prices depend on the locale; ordering, counts and
// identity fields are fixed at construction.
type Index struct {
	descriptors []Descriptor
	byKey       map[string]int
	assets      [][]asset
	bySeq       []ref // bySeq[seq-1]

	tr     locale.Translator
	prices PriceSource
}

// NewIndex validates the descriptors and expands every segment into its
// assets. Keys must be unique and every descriptor needs at least one
// non-empty segment.
func NewIndex(descriptors []Descriptor, tr locale.Translator, prices PriceSource) (*Index, error) {
	if len(descriptors) == 0 {
		return nil, errors.New("no collection descriptors")
	}
	if tr == nil {
		tr = locale.DefaultDictionary()
	}
	if prices == nil {
		prices = RandomPrices()
	}

	ix := &Index{
		descriptors: make([]Descriptor, len(descriptors)),
		byKey:       make(map[string]int, len(descriptors)),
		assets:      make([][]asset, len(descriptors)),
		tr:          tr,
		prices:      prices,
	}
	copy(ix.descriptors, descriptors)

	seq := 1
	for i, d := range ix.descriptors {
		if d.Key == "" || d.Key == FilterAll {
			return nil, errors.Errorf("descriptor %d: invalid key %q", i, d.Key)
		}
		if _, dup := ix.byKey[d.Key]; dup {
			return nil, errors.Errorf("descriptor %q: duplicate key", d.Key)
		}
		if len(d.Segments) == 0 {
			return nil, errors.Errorf("descriptor %q: no segments", d.Key)
		}
		ix.byKey[d.Key] = i

		list := make([]asset, 0, d.ItemCount())
		for _, s := range d.Segments {
			if s.Count <= 0 {
				return nil, errors.Errorf("descriptor %q: segment %q has count %d", d.Key, s.Extension, s.Count)
			}
			for n := 1; n <= s.Count; n++ {
				list = append(list, asset{image: s.Path(n), seq: seq})
				ix.bySeq = append(ix.bySeq, ref{desc: i, index: len(list) - 1})
				seq++
			}
		}
		ix.assets[i] = list
	}

	return ix, nil
}

// Len returns the number of products in the full catalog.
func (ix *Index) Len() int {
	return len(ix.bySeq)
}

// ListAll returns every product in descriptor declaration order. Listing
// prices are redrawn on each call.
func (ix *Index) ListAll(l locale.Locale) []Product {
	out := make([]Product, 0, len(ix.bySeq))
	for i := range ix.descriptors {
		out = ix.appendListing(out, l, i)
	}
	return out
}

// List returns the products of one collection, or the whole catalog when
// filter is FilterAll.
func (ix *Index) List(l locale.Locale, filter string) ([]Product, error) {
	if filter == FilterAll || filter == "" {
		return ix.ListAll(l), nil
	}
	i, err := ix.lookup(filter)
	if err != nil {
		return nil, err
	}
	return ix.appendListing(make([]Product, 0, len(ix.assets[i])), l, i), nil
}

func (ix *Index) appendListing(out []Product, l locale.Locale, i int) []Product {
	d := ix.descriptors[i]
	category := ix.tr.Translate(l, d.TitleKey)
	label := ix.tr.Translate(l, d.ItemKey)
	for index, a := range ix.assets[i] {
		out = append(out, Product{
			ID:          ProductID(d.Key, index),
			Seq:         a.seq,
			Name:        fmt.Sprintf("%s %d", label, index+1),
			Price:       locale.FormatPrice(l, listPrice(ix.prices)),
			Category:    category,
			CategoryKey: d.Key,
			Image:       a.image,
			ImageIndex:  index,
		})
	}
	return out
}

// FilterName returns the localized heading of a listing filter: the "All"
// label for FilterAll, otherwise the collection name.
func (ix *Index) FilterName(l locale.Locale, filter string) (string, error) {
	if filter == FilterAll || filter == "" {
		return ix.tr.Translate(l, locale.KeyAll), nil
	}
	i, err := ix.lookup(filter)
	if err != nil {
		return "", err
	}
	return ix.tr.Translate(l, ix.descriptors[i].TitleKey), nil
}

// Category returns the descriptor registered under key.
func (ix *Index) Category(key string) (Descriptor, error) {
	i, err := ix.lookup(key)
	if err != nil {
		return Descriptor{}, err
	}
	return ix.descriptors[i], nil
}

// Categories returns every collection with its localized name and size.
func (ix *Index) Categories(l locale.Locale) []Category {
	out := make([]Category, len(ix.descriptors))
	for i, d := range ix.descriptors {
		out[i] = Category{
			Key:       d.Key,
			Name:      ix.tr.Translate(l, d.TitleKey),
			ItemCount: len(ix.assets[i]),
		}
	}
	return out
}

// Collection returns a collection with its ordered image list.
func (ix *Index) Collection(l locale.Locale, key string) (Category, error) {
	i, err := ix.lookup(key)
	if err != nil {
		return Category{}, err
	}
	images := make([]string, len(ix.assets[i]))
	for j, a := range ix.assets[i] {
		images[j] = a.image
	}
	return Category{
		Key:       key,
		Name:      ix.tr.Translate(l, ix.descriptors[i].TitleKey),
		ItemCount: len(images),
		Images:    images,
	}, nil
}

// ImageAt returns the asset path at a zero-based index of a collection.
func (ix *Index) ImageAt(key string, index int) (string, error) {
	i, err := ix.lookup(key)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(ix.assets[i]) {
		return "", errors.Wrapf(ErrIndexOutOfRange, "%s[%d] of %d", key, index, len(ix.assets[i]))
	}
	return ix.assets[i][index].image, nil
}

// NextIndex returns the index after current, wrapping to 0 past the last.
func (ix *Index) NextIndex(key string, current int) (int, error) {
	return ix.step(key, current, 1)
}

// PrevIndex returns the index before current, wrapping to the last before 0.
func (ix *Index) PrevIndex(key string, current int) (int, error) {
	return ix.step(key, current, -1)
}

func (ix *Index) step(key string, current, delta int) (int, error) {
	i, err := ix.lookup(key)
	if err != nil {
		return 0, err
	}
	n := len(ix.assets[i])
	return ((current+delta)%n + n) % n, nil
}

// Product returns the detail record of one image, as shown on the
// product-detail page: "<Category> - Item <n>" at the fixed DetailPrice.
func (ix *Index) Product(l locale.Locale, key string, index int) (Product, error) {
	image, err := ix.ImageAt(key, index)
	if err != nil {
		return Product{}, err
	}
	i := ix.byKey[key]
	category := ix.tr.Translate(l, ix.descriptors[i].TitleKey)
	return Product{
		ID:          ProductID(key, index),
		Seq:         ix.assets[i][index].seq,
		Name:        fmt.Sprintf(ix.tr.Translate(l, locale.KeyProductItem), category, index+1),
		Price:       locale.FormatPrice(l, decimal.NewFromInt(DetailPrice)),
		Category:    category,
		CategoryKey: key,
		Image:       image,
		ImageIndex:  index,
	}, nil
}

// Resolve finds the detail record for either identifier form: the catalog
// sequence number ("42") or the composite "<categoryKey>-<imageIndex>".
func (ix *Index) Resolve(l locale.Locale, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if seq, err := strconv.Atoi(id); err == nil {
		if seq < 1 || seq > len(ix.bySeq) {
			return Product{}, errors.Wrapf(ErrProductNotFound, "seq %d", seq)
		}
		r := ix.bySeq[seq-1]
		return ix.Product(l, ix.descriptors[r.desc].Key, r.index)
	}

	sep := strings.LastIndexByte(id, '-')
	if sep <= 0 {
		return Product{}, errors.Wrapf(ErrProductNotFound, "id %q", id)
	}
	index, err := strconv.Atoi(id[sep+1:])
	if err != nil {
		return Product{}, errors.Wrapf(ErrProductNotFound, "id %q", id)
	}
	p, err := ix.Product(l, id[:sep], index)
	if err != nil {
		return Product{}, errors.Wrapf(ErrProductNotFound, "id %q: %v", id, err)
	}
	return p, nil
}

func (ix *Index) lookup(key string) (int, error) {
	i, ok := ix.byKey[key]
	if !ok {
		return 0, errors.Wrapf(ErrCategoryNotFound, "%q", key)
	}
	return i, nil
}
