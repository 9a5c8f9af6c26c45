// Package ecommerce translates commerce events into backend context data:
// the event code, the serialized product list, the purchase id and the
// remaining properties run through the context-data mapper.
package ecommerce

import (
	"context"
	"errors"
	"fmt"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
	"github.com/telhawk-systems/mediabridge/core/internal/product"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// ErrUnknownEvent is returned for event names outside the commerce table.
var ErrUnknownEvent = errors.New("unrecognized ecommerce event")

// Context-data variables written by the translator.
const (
	VarEvents     = "events"
	VarProducts   = "products"
	VarPurchaseID = "purchaseid"
)

// Property keys consumed by the translator.
const (
	FieldProducts = "products"
	FieldOrderID  = "orderId"
)

// Translator builds commerce context data.
type Translator struct {
	mapper  *contextdata.Mapper
	idField string
	names   map[string]Action
	logger  *logging.Logger
}

// NewTranslator creates a translator. idField is the configured product
// identifier key; names overrides the event-name table when non-empty.
func NewTranslator(mapper *contextdata.Mapper, idField string, names map[string]Action, logger *logging.Logger) *Translator {
	if len(names) == 0 {
		names = DefaultNames()
	}
	return &Translator{
		mapper:  mapper,
		idField: idField,
		names:   names,
		logger:  logging.OrDefault(logger),
	}
}

// Classify reports whether name is a commerce event for this translator.
func (t *Translator) Classify(name string) (Action, bool) {
	a, ok := t.names[name]
	return a, ok
}

// Translate builds context data for a commerce event from a bare property
// bag. It returns nil data when props is empty.
func (t *Translator) Translate(ctx context.Context, name string, props *event.Map) (*contextdata.Data, error) {
	return t.TranslateEvent(ctx, event.Track(name, props))
}

// TranslateEvent is Translate over a whole event, so absolute mapping
// rules can reach root fields.
func (t *Translator) TranslateEvent(ctx context.Context, ev *event.Event) (*contextdata.Data, error) {
	action, ok := t.Classify(ev.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
	}

	props := ev.Props()
	if props.Len() == 0 {
		return nil, nil
	}

	out := contextdata.NewData()
	out.SetString(VarEvents, action.Code())

	pool := props.Clone()
	products := t.products(ctx, props, pool)
	if len(products) > 0 {
		out.SetString(VarProducts, product.Serialize(products))
	}

	if v, ok := props.Get(FieldOrderID); ok {
		pool.Delete(FieldOrderID)
		if !v.IsNull() {
			out.SetString(VarPurchaseID, v.String())
		}
	}

	// Translator variables win over extras with the same name.
	t.mapper.MapFields(ev, pool).Map().Range(func(k string, v event.Value) bool {
		if !out.Has(k) {
			out.Set(k, v)
		}
		return true
	})

	metrics.CommerceEvents.WithLabelValues(action.Code()).Inc()
	return out, nil
}

// products reads the explicit products list, or the whole property bag as
// a single implicit product. Consumed keys are removed from pool.
func (t *Translator) products(ctx context.Context, props, pool *event.Map) []product.Product {
	if list, ok := props.Get(FieldProducts); ok {
		pool.Delete(FieldProducts)
		items, _ := list.Items()
		out := make([]product.Product, 0, len(items))
		for i, item := range items {
			record, isMap := item.Map()
			if !isMap {
				t.drop(ctx, i, fmt.Errorf("product entry is %s, not a map", item.Kind()))
				continue
			}
			p, err := product.Build(record, t.idField)
			if err != nil {
				t.drop(ctx, i, err)
				continue
			}
			out = append(out, p)
		}
		return out
	}

	p, err := product.Build(props, t.idField)
	if err != nil {
		metrics.DroppedProducts.Inc()
		t.logger.DebugContext(ctx, "no implicit product in commerce event", logging.Error(err))
		return nil
	}
	for _, key := range p.Consumed {
		pool.Delete(key)
	}
	return []product.Product{p}
}

func (t *Translator) drop(ctx context.Context, index int, err error) {
	metrics.DroppedProducts.Inc()
	t.logger.WarnContext(ctx, "dropping product", "index", index, logging.Error(err))
}
