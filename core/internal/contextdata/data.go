package contextdata

import (
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// Data is the context-data payload sent with a backend call: variable name
// to value, in the order the variables were produced.
type Data struct {
	m *event.Map
}

// NewData returns an empty payload.
func NewData() *Data {
	return &Data{m: event.NewMap()}
}

// DataOf builds a payload from alternating keys and values.
func DataOf(kv ...any) *Data {
	return &Data{m: event.MapOf(kv...)}
}

// Set stores value under variable.
func (d *Data) Set(variable string, value event.Value) {
	if d.m == nil {
		d.m = event.NewMap()
	}
	d.m.Set(variable, value)
}

// SetString is Set for plain text values.
func (d *Data) SetString(variable, value string) {
	d.Set(variable, event.String(value))
}

// Get returns the value stored under variable.
func (d *Data) Get(variable string) (event.Value, bool) {
	if d == nil {
		return event.Value{}, false
	}
	return d.m.Get(variable)
}

// Has reports whether variable is set.
func (d *Data) Has(variable string) bool {
	_, ok := d.Get(variable)
	return ok
}

// Keys returns the variables in insertion order.
func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	return d.m.Keys()
}

// Len returns the number of variables.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return d.m.Len()
}

// Merge copies every entry of other into d. Existing variables are
// overwritten in place; new ones are appended.
func (d *Data) Merge(other *Data) {
	if other == nil {
		return
	}
	other.m.Range(func(k string, v event.Value) bool {
		d.Set(k, v)
		return true
	})
}

// Map exposes the payload as an ordered map.
func (d *Data) Map() *event.Map {
	if d == nil {
		return nil
	}
	return d.m
}

// StringMap flattens the payload to text values, the form most backend
// client libraries accept.
func (d *Data) StringMap() map[string]string {
	if d == nil {
		return nil
	}
	out := make(map[string]string, d.m.Len())
	d.m.Range(func(k string, v event.Value) bool {
		out[k] = v.String()
		return true
	})
	return out
}

// MarshalJSON encodes the payload as an ordered object.
func (d *Data) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d.m.MarshalJSON()
}

// UnmarshalJSON decodes an object, keeping key order.
func (d *Data) UnmarshalJSON(data []byte) error {
	m := event.NewMap()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	d.m = m
	return nil
}

// MarshalYAML renders the payload as an ordered mapping.
func (d *Data) MarshalYAML() (any, error) {
	if d == nil {
		return nil, nil
	}
	return d.m.MarshalYAML()
}
