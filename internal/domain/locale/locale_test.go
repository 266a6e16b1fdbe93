package locale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Locale
		wantErr bool
	}{
		{in: "en", want: EN},
		{in: "ar", want: AR},
		{in: "ar-SA", want: AR},
		{in: " en-US ", want: EN},
		{in: "fr", wantErr: true},
		{in: "", wantErr: true},
		{in: "not a tag!", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiate(t *testing.T) {
	assert.Equal(t, AR, Negotiate("ar-SA,ar;q=0.9,en;q=0.5"))
	assert.Equal(t, EN, Negotiate("en-GB,en;q=0.9"))
	assert.Equal(t, EN, Negotiate("de-DE"))
	assert.Equal(t, EN, Negotiate(""))
}

func TestToggleAndDir(t *testing.T) {
	assert.Equal(t, AR, Toggle(EN))
	assert.Equal(t, EN, Toggle(AR))
	assert.Equal(t, "rtl", Dir(AR))
	assert.Equal(t, "ltr", Dir(EN))
	assert.True(t, AR.Valid())
	assert.False(t, Locale("fr").Valid())
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name   string
		locale Locale
		amount decimal.Decimal
		want   string
	}{
		{name: "en integer", locale: EN, amount: decimal.NewFromInt(1299), want: "$1,299"},
		{name: "en small", locale: EN, amount: decimal.NewFromInt(300), want: "$300"},
		{name: "en fraction", locale: EN, amount: decimal.RequireFromString("2500.5"), want: "$2,500.50"},
		{name: "en zero", locale: EN, amount: decimal.Zero, want: "$0"},
		{name: "ar integer", locale: AR, amount: decimal.NewFromInt(1299), want: "١٬٢٩٩ ر.س"},
		{name: "ar fraction", locale: AR, amount: decimal.RequireFromString("12.25"), want: "١٢٫٢٥ ر.س"},
		{name: "ar millions", locale: AR, amount: decimal.NewFromInt(1234567), want: "١٬٢٣٤٬٥٦٧ ر.س"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.locale, tt.amount))
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "$100", want: "100"},
		{in: "$1,299", want: "1299"},
		{in: "١٬٢٩٩ ر.س", want: "1299"},
		{in: "١٢٫٢٥ ر.س", want: "12.25"},
		{in: "۱۲۳", want: "123"},
		{in: "2500.00", want: "2500"},
		{in: "-$5", want: "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "$", "ر.س", "1.2.3"} {
		_, err := ParsePrice(in)
		assert.ErrorIs(t, err, ErrInvalidPrice, "input %q", in)
	}
}

func TestPriceRoundTrip(t *testing.T) {
	amounts := []string{"300", "2299", "1299", "0.99", "10000.10", "987654.32"}
	for _, l := range All() {
		for _, a := range amounts {
			v := decimal.RequireFromString(a)
			got, err := ParsePrice(FormatPrice(l, v))
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "%s %s -> %s", l, a, got)
		}
	}
}

func TestDictionary_Translate(t *testing.T) {
	d := DefaultDictionary()
	assert.Equal(t, "Living Room", d.Translate(EN, "collections.livingRoom"))
	assert.Equal(t, "غرفة المعيشة", d.Translate(AR, "collections.livingRoom"))
	assert.Equal(t, "Office", d.Translate(Locale("fr"), "collections.office"))
	assert.Equal(t, "missing.key", d.Translate(EN, "missing.key"))
}
