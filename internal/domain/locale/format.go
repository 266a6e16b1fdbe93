package locale

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dollarSign = "$"
	riyalSign  = "ر.س"
)

// ErrInvalidPrice is returned by ParsePrice when the input carries no digits
// or more than one decimal separator.
var ErrInvalidPrice = errors.New("invalid price")

// grouping renders integers with Latin digits and "," thousands separators.
// Arabic output is derived from it by digit substitution.
var grouping = message.NewPrinter(language.English)

var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
	",", "٬", ".", "٫",
)

// FormatPrice renders amount with the currency decoration of l. Amounts are
// rounded to two places; the fraction is only shown when it is non-zero.
//
//	FormatPrice(EN, 1299)  // "$1,299"
//	FormatPrice(AR, 1299)  // "١٬٢٩٩ ر.س"
func FormatPrice(l Locale, amount decimal.Decimal) string {
	amount = amount.Round(2)
	neg := amount.IsNegative()
	amount = amount.Abs()

	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()

	num := grouping.Sprintf("%d", whole.IntPart())
	if cents != 0 {
		num += fmt.Sprintf(".%02d", cents)
	}
	if neg {
		num = "-" + num
	}

	if l == AR {
		return arabicDigits.Replace(num) + " " + riyalSign
	}
	return dollarSign + num
}

// ParsePrice recovers the numeric value of a formatted price in either
// locale. Currency decoration and grouping separators are ignored; Latin,
// Arabic-Indic and Extended Arabic-Indic digits are accepted.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, riyalSign, "")

	var (
		b      strings.Builder
		digits int
		point  bool
	)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
			digits++
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
			digits++
		case r == '.' || r == '٫':
			if point {
				return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "%q: repeated decimal separator", s)
			}
			point = true
			b.WriteByte('.')
		case r == '-' && b.Len() == 0:
			b.WriteByte('-')
		}
	}
	if digits == 0 {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "%q: no digits", s)
	}

	v, err := decimal.NewFromString(strings.TrimSuffix(b.String(), "."))
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "%q: %v", s, err)
	}
	return v, nil
}
