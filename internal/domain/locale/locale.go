// Package locale defines the supported display locales and the locale-aware
// formatting used for catalog and cart prices.
package locale

import (
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/text/language"
)

// Locale is an active display language and number-formatting mode.
type Locale string

const (
	// EN is English with Latin digits and a "$" prefix.
	EN Locale = "en"
	// AR is Arabic with Arabic-Indic digits and a "ر.س" suffix.
	AR Locale = "ar"

	// Default is used when no stored or negotiated locale is available.
	Default = EN
)

// ErrUnsupported is returned when a locale string does not map to EN or AR.
var ErrUnsupported = errors.New("unsupported locale")

// supported is ordered by preference; the first entry is the matcher fallback.
var supported = []language.Tag{language.English, language.Arabic}

var matcher = language.NewMatcher(supported)

// All returns the supported locales in preference order.
func All() []Locale {
	return []Locale{EN, AR}
}

// Parse maps a BCP 47 tag such as "ar-SA" or "en" onto a supported Locale.
func Parse(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrUnsupported
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", errors.Wrapf(ErrUnsupported, "parse %q", s)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return EN, nil
	case "ar":
		return AR, nil
	default:
		return "", errors.Wrapf(ErrUnsupported, "%q", s)
	}
}

// Negotiate picks a locale from an Accept-Language header value, falling
// back to Default when nothing matches.
func Negotiate(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return AR
	}
	return EN
}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	return l == EN || l == AR
}

// Toggle flips between English and Arabic.
func Toggle(l Locale) Locale {
	if l == AR {
		return EN
	}
	return AR
}

// Dir returns the text direction for views rendering in l.
func Dir(l Locale) string {
	if l == AR {
		return "rtl"
	}
	return "ltr"
}

func (l Locale) String() string {
	return string(l)
}
