package catalog

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	// Listing prices are drawn from [minListPrice, minListPrice+listPriceSpread).
	minListPrice    = 300
	listPriceSpread = 2000

	// DetailPrice is the list price shown on product-detail records.
	DetailPrice = 1299
)

// PriceSource yields pseudo-random integers in [0, n).
type PriceSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// RandomPrices returns the unseeded source used in production; every
// catalog build draws new listing prices.
func RandomPrices() PriceSource {
	return globalSource{}
}

type seededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// SeededPrices returns a deterministic source for tests and reproducible
// exports.
func SeededPrices(seed uint64) PriceSource {
	return &seededSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func listPrice(src PriceSource) decimal.Decimal {
	return decimal.NewFromInt(int64(src.IntN(listPriceSpread) + minListPrice))
}
