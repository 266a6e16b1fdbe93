// Package cart implements the session shopping cart: line items merged by
// product id, quantities with a floor of one, and derived totals.
package cart

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/furniture-kart/internal/domain/locale"
)

// LineItem is one row of the cart. Name, Price, Category and Image are
// copied from the product when it is first added and never re-derived, so a
// later locale switch leaves them in the locale they were added in.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Op names a cart mutation.
type Op string

const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpSetQuantity Op = "set_quantity"
	OpClear       Op = "clear"
)

// Snapshot is an immutable copy of the cart with its aggregates.
type Snapshot struct {
	Items      []LineItem
	TotalItems int
	TotalPrice decimal.Decimal
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Op       Op
	Snapshot Snapshot
}

// LineTotal returns quantity × unit price of the item.
func (it LineItem) LineTotal() (decimal.Decimal, error) {
	unit, err := locale.ParsePrice(it.Price)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(decimal.NewFromInt(int64(it.Quantity))), nil
}

func totalItems(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// totalPrice sums line totals; a price that cannot be parsed contributes
// zero.
func totalPrice(lg *zap.Logger, items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		v, err := it.LineTotal()
		if err != nil {
			lg.Debug("Skipping unparseable price",
				zap.String("id", it.ID),
				zap.String("price", it.Price),
				zap.Error(err),
			)
			continue
		}
		sum = sum.Add(v)
	}
	return sum
}
