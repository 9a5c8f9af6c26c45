// Package resolver looks up configured field paths inside analytics events.
//
// Paths use jq-style dot notation. A leading dot anchors the lookup at the
// event root (".anonymousId", ".context.library.name"); any other path is
// relative to the event's properties ("orderId", "product.sku").
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// ErrInvalidPath reports a malformed field path. It is a configuration
// error, not missing data.
var ErrInvalidPath = errors.New("invalid field path")

// Path is a parsed field path.
type Path struct {
	raw      string
	absolute bool
	segments []string
}

// Parse validates and splits a field path.
func Parse(path string) (Path, error) {
	if strings.TrimSpace(path) == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	segments := strings.Split(path, ".")
	absolute := false
	if segments[0] == "" {
		absolute = true
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return Path{}, fmt.Errorf("%w: %q has no segments", ErrInvalidPath, path)
	}
	for i, s := range segments {
		if s == "" {
			return Path{}, fmt.Errorf("%w: %q has an empty segment at %d", ErrInvalidPath, path, i)
		}
	}

	return Path{raw: path, absolute: absolute, segments: segments}, nil
}

// MustParse is Parse for compile-time constant paths.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks path syntax without resolving anything.
func Validate(path string) error {
	_, err := Parse(path)
	return err
}

// String returns the path as written.
func (p Path) String() string { return p.raw }

// Absolute reports whether the path is anchored at the event root.
func (p Path) Absolute() bool { return p.absolute }

// Segments returns the path components.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Lookup walks the path over ev.
func (p Path) Lookup(ev *event.Event) (event.Value, bool) {
	if ev == nil {
		return event.Value{}, false
	}
	start := ev.Properties
	if p.absolute {
		start = ev.Root()
	}
	return Walk(start, p.segments)
}

// Resolve returns the value at path inside ev. A missing key, a null value
// or a non-map value met before the path ends all yield ok=false with a nil
// error; only a malformed path returns an error.
func Resolve(path string, ev *event.Event) (event.Value, bool, error) {
	p, err := Parse(path)
	if err != nil {
		return event.Value{}, false, err
	}
	v, ok := p.Lookup(ev)
	return v, ok, nil
}

// Walk descends through nested maps following segments.
func Walk(m *event.Map, segments []string) (event.Value, bool) {
	current := m
	for i, seg := range segments {
		v, ok := current.Get(seg)
		if !ok || v.IsNull() {
			return event.Value{}, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		next, ok := v.Map()
		if !ok {
			return event.Value{}, false
		}
		current = next
	}
	return event.Value{}, false
}
