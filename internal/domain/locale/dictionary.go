package locale

// Translator resolves a translation key for a locale. Implementations return
// the key itself when no entry exists so that a missing label is visible
// rather than blank.
type Translator interface {
	Translate(l Locale, key string) string
}

// Translation keys used by the catalog.
const (
	KeyAll         = "common.all"
	KeyProductItem = "product.item"
)

// Dictionary is an in-memory Translator keyed by locale, then by key.
type Dictionary map[Locale]map[string]string

var _ Translator = Dictionary(nil)

// Translate implements Translator. Lookups in an unknown locale fall back to
// Default before falling back to the key.
func (d Dictionary) Translate(l Locale, key string) string {
	if v, ok := d[l][key]; ok {
		return v
	}
	if v, ok := d[Default][key]; ok {
		return v
	}
	return key
}

// DefaultDictionary returns the labels for the built-in collections.
func DefaultDictionary() Dictionary {
	return Dictionary{
		EN: {
			KeyAll:         "All",
			KeyProductItem: "%s - Item %d",

			"collections.livingRoom":   "Living Room",
			"collections.bedroom":      "Bedroom",
			"collections.diningRoom":   "Dining Room",
			"collections.office":       "Office",
			"collections.outdoor":      "Outdoor",
			"collections.childrenRoom": "Children's Room",

			"items.livingRoom":   "Living Room Furniture",
			"items.bedroom":      "Bedroom Furniture",
			"items.diningRoom":   "Dining Table",
			"items.office":       "Office Furniture",
			"items.outdoor":      "Outdoor Furniture",
			"items.childrenRoom": "Children's Room Furniture",
		},
		AR: {
			KeyAll:         "الكل",
			KeyProductItem: "%s - قطعة %d",

			"collections.livingRoom":   "غرفة المعيشة",
			"collections.bedroom":      "غرفة النوم",
			"collections.diningRoom":   "غرفة الطعام",
			"collections.office":       "المكتب",
			"collections.outdoor":      "الأثاث الخارجي",
			"collections.childrenRoom": "غرفة الأطفال",

			"items.livingRoom":   "أثاث غرفة معيشة",
			"items.bedroom":      "أثاث غرفة نوم",
			"items.diningRoom":   "طاولة طعام",
			"items.office":       "أثاث مكتب",
			"items.outdoor":      "أثاث خارجي",
			"items.childrenRoom": "أثاث غرفة أطفال",
		},
	}
}
