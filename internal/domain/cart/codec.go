package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// MarshalItems encodes line items as a JSON array of
// {id, name, price, category, image, quantity} objects.
func MarshalItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(it.Price)
		e.FieldStart("category")
		e.Str(it.Category)
		e.FieldStart("image")
		e.Str(it.Image)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// UnmarshalItems decodes the output of MarshalItems. Numeric ids and prices
// are accepted and kept in their literal form. Entries without an id or with
// a quantity below one are dropped; repeated ids are merged by summing
// quantities so the merge-by-id invariant holds after rehydration.
func UnmarshalItems(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var (
		items []LineItem
		seen  = make(map[string]int)
	)
	err := d.Arr(func(d *jx.Decoder) error {
		var it LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.ID, err = decodeScalar(d)
			case "name":
				it.Name, err = d.Str()
			case "price":
				it.Price, err = decodeScalar(d)
			case "category":
				it.Category, err = d.Str()
			case "image":
				it.Image, err = d.Str()
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}

		if it.ID == "" || it.Quantity < 1 {
			return nil
		}
		if i, ok := seen[it.ID]; ok {
			items[i].Quantity += it.Quantity
			return nil
		}
		seen[it.ID] = len(items)
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

// decodeScalar reads a string or number as its textual form.
func decodeScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	default:
		return d.Str()
	}
}
