// Package product builds product records from event properties and renders
// them in the backend's "category;id;quantity;price" grammar.
package product

import (
	"errors"
	"strings"

	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// ErrMissingID reports a product record without a usable identifier.
var ErrMissingID = errors.New("product has no identifier")

// Record keys read by Build.
const (
	FieldProductID = "productId"
	FieldID        = "id"
	FieldCategory  = "category"
	FieldQuantity  = "quantity"
	FieldPrice     = "price"
)

// Product is one serialized line item. Price is the line total, unit price
// times quantity.
type Product struct {
	Category string  `json:"category,omitempty"`
	ID       string  `json:"id"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`

	// Consumed lists the record keys Build read, so callers can keep them
	// out of generic context data.
	Consumed []string `json:"-"`
}

// Build reads a product from record. The id comes from idField when it is
// set and not "id", then productId, then id. Quantity defaults to 1 and
// unit price to 0.
func Build(record *event.Map, idField string) (Product, error) {
	p := Product{Quantity: 1}

	candidates := make([]string, 0, 3)
	if idField != "" && idField != FieldID {
		candidates = append(candidates, idField)
	}
	candidates = append(candidates, FieldProductID, FieldID)

	for _, key := range candidates {
		if id, ok := idText(record, key); ok {
			p.ID = id
			p.Consumed = append(p.Consumed, key)
			break
		}
	}
	if p.ID == "" {
		return Product{}, ErrMissingID
	}

	if v, ok := record.Get(FieldCategory); ok {
		p.Consumed = append(p.Consumed, FieldCategory)
		if s, ok := v.Str(); ok {
			p.Category = s
		}
	}

	if v, ok := record.Get(FieldQuantity); ok {
		p.Consumed = append(p.Consumed, FieldQuantity)
		if n, ok := v.Int(); ok {
			p.Quantity = n
		}
	}

	unit := 0.0
	if v, ok := record.Get(FieldPrice); ok {
		p.Consumed = append(p.Consumed, FieldPrice)
		if f, ok := v.Float(); ok {
			unit = f
		}
	}
	p.Price = unit * float64(p.Quantity)

	return p, nil
}

func idText(record *event.Map, key string) (string, bool) {
	v, ok := record.Get(key)
	if !ok {
		return "", false
	}
	switch v.Kind() {
	case event.KindString, event.KindNumber:
		s := v.String()
		return s, s != ""
	}
	return "", false
}

// String renders p as "category;id;quantity;price".
func (p Product) String() string {
	var b strings.Builder
	p.writeTo(&b)
	return b.String()
}

func (p Product) writeTo(b *strings.Builder) {
	b.WriteString(p.Category)
	b.WriteByte(';')
	b.WriteString(p.ID)
	b.WriteByte(';')
	b.WriteString(event.Number(float64(p.Quantity)).String())
	b.WriteByte(';')
	b.WriteString(FormatDouble(p.Price))
}

// Serialize joins products with "," in the given order.
func Serialize(products []Product) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteByte(',')
		}
		p.writeTo(&b)
	}
	return b.String()
}
