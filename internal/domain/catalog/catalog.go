// Package catalog flattens the static collection descriptors into an ordered
// product list and answers the category and index queries used by listing
// and product-detail navigation.
package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

// FilterAll is the listing filter that selects every collection.
const FilterAll = "all"

var (
	// ErrCategoryNotFound is returned for a category key outside the fixed set.
	ErrCategoryNotFound = errors.New("collection not found")
	// ErrIndexOutOfRange is returned when an image index falls outside
	// 0..ItemCount-1 of its collection.
	ErrIndexOutOfRange = errors.New("image index out of range")
	// ErrProductNotFound is returned when a product id resolves to no asset.
	ErrProductNotFound = errors.New("product not found")
)

// Segment is a contiguous run of image files sharing one extension.
// PathTemplate receives the 1-based file number of the run.
type Segment struct {
	Count        int
	Extension    string
	PathTemplate string
}

// Path returns the asset path of the n-th (1-based) file of the segment.
func (s Segment) Path(n int) string {
	return fmt.Sprintf(s.PathTemplate, n) + "." + s.Extension
}

// Descriptor is the static configuration of one furniture collection.
type Descriptor struct {
	// Key is the stable routing slug, e.g. "living-room".
	Key string
	// TitleKey is the translation key of the collection display name.
	TitleKey string
	// ItemKey is the translation key of the per-item listing label.
	ItemKey  string
	Segments []Segment
}

// ItemCount returns the number of images across all segments.
func (d Descriptor) ItemCount() int {
	n := 0
	for _, s := range d.Segments {
		n += s.Count
	}
	return n
}

// Product is a catalog entry derived from a descriptor for one locale.
type Product struct {
	// ID is "<categoryKey>-<imageIndex>" and is the cart merge key.
	ID string `json:"id"`
	// Seq is the 1-based position in the full catalog.
	Seq         int    `json:"seq"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	CategoryKey string `json:"categoryKey"`
	Image       string `json:"image"`
	ImageIndex  int    `json:"imageIndex"`
}

// Category is the listing view of a collection.
type Category struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	ItemCount int      `json:"itemCount"`
	Images    []string `json:"images,omitempty"`
}

// ProductID builds the composite product identifier.
func ProductID(categoryKey string, imageIndex int) string {
	return fmt.Sprintf("%s-%d", categoryKey, imageIndex)
}

// DefaultDescriptors returns the furniture collections in declaration order.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Key:      "living-room",
			TitleKey: "collections.livingRoom",
			ItemKey:  "items.livingRoom",
			Segments: []Segment{
				{Count: 39, Extension: "jpeg", PathTemplate: "/image/Living room/Living room (%d)"},
			},
		},
		{
			Key:      "bedroom",
			TitleKey: "collections.bedroom",
			ItemKey:  "items.bedroom",
			Segments: []Segment{
				{Count: 44, Extension: "jpeg", PathTemplate: "/image/Dressing room/Dressing room (%d)"},
			},
		},
		{
			Key:      "dining-room",
			TitleKey: "collections.diningRoom",
			ItemKey:  "items.diningRoom",
			Segments: []Segment{
				{Count: 15, Extension: "jpg", PathTemplate: "/image/dining table/dining table  (%d)"},
			},
		},
		{
			Key:      "office",
			TitleKey: "collections.office",
			ItemKey:  "items.office",
			// Two runs in the same folder: the .jpg files restart at 1.
			Segments: []Segment{
				{Count: 17, Extension: "jpeg", PathTemplate: "/image/TV libraries/TV libraries (%d)"},
				{Count: 5, Extension: "jpg", PathTemplate: "/image/TV libraries/TV libraries (%d)"},
			},
		},
		{
			Key:      "outdoor",
			TitleKey: "collections.outdoor",
			ItemKey:  "items.outdoor",
			Segments: []Segment{
				{Count: 19, Extension: "jpg", PathTemplate: "/image/LuxuryFurniture- ClassicStyle/ClassicStyle  (%d)"},
			},
		},
		{
			Key:      "children",
			TitleKey: "collections.childrenRoom",
			ItemKey:  "items.childrenRoom",
			Segments: []Segment{
				{Count: 5, Extension: "jpg", PathTemplate: "/image/children's room/children's room (%d)"},
			},
		},
	}
}
