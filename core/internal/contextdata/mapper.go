// Package contextdata turns event properties into backend context data.
//
// Explicit rules copy a field (any resolver path) to a named variable.
// Every top-level property not named by a rule is an extra and is copied
// under its own key with the configured prefix prepended.
package contextdata

import (
	"fmt"

	"github.com/telhawk-systems/mediabridge/core/internal/resolver"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// ReservedPrefix is the backend's own namespace. Extras are never written
// under it, so it is treated as no prefix at all.
const ReservedPrefix = "a."

// Rule maps one source field to one destination variable.
type Rule struct {
	Field    string `json:"field" yaml:"field"`
	Variable string `json:"variable" yaml:"variable"`
}

// Config is an immutable, validated rule set plus the extras prefix.
type Config struct {
	rules  []Rule
	paths  []resolver.Path
	fields map[string]struct{}
	prefix string
}

// NewConfig validates rules and normalizes prefix. Rule fields must be
// valid resolver paths and unique.
func NewConfig(rules []Rule, prefix string) (Config, error) {
	cfg := Config{
		rules:  make([]Rule, 0, len(rules)),
		paths:  make([]resolver.Path, 0, len(rules)),
		fields: make(map[string]struct{}, len(rules)),
		prefix: NormalizePrefix(prefix),
	}
	for _, r := range rules {
		p, err := resolver.Parse(r.Field)
		if err != nil {
			return Config{}, fmt.Errorf("context rule for %q: %w", r.Variable, err)
		}
		if _, dup := cfg.fields[r.Field]; dup {
			return Config{}, fmt.Errorf("context rule: duplicate field %q", r.Field)
		}
		cfg.rules = append(cfg.rules, r)
		cfg.paths = append(cfg.paths, p)
		cfg.fields[r.Field] = struct{}{}
	}
	return cfg, nil
}

// MustConfig is NewConfig for literal rule sets.
func MustConfig(rules []Rule, prefix string) Config {
	cfg, err := NewConfig(rules, prefix)
	if err != nil {
		panic(err)
	}
	return cfg
}

// NormalizePrefix maps the reserved prefix to the empty string.
func NormalizePrefix(prefix string) string {
	if prefix == ReservedPrefix {
		return ""
	}
	return prefix
}

// Prefix returns the effective extras prefix.
func (c Config) Prefix() string { return c.prefix }

// Rules returns a copy of the rule set.
func (c Config) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// IsRuleField reports whether key is exactly a configured rule field.
func (c Config) IsRuleField(key string) bool {
	_, ok := c.fields[key]
	return ok
}

// Mapper applies a Config.
type Mapper struct {
	cfg Config
}

// NewMapper returns a mapper for cfg.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Config returns the mapper's configuration.
func (m *Mapper) Config() Config { return m.cfg }

// Map builds context data from a bare property bag. It returns nil when
// props is nil or empty. props is never modified.
func (m *Mapper) Map(props *event.Map) *Data {
	if props.Len() == 0 {
		return nil
	}
	return m.MapFields(&event.Event{Properties: props}, props)
}

// MapEvent builds context data from ev's properties, resolving absolute
// rule paths (".anonymousId", ".context.library") against the event root.
func (m *Mapper) MapEvent(ev *event.Event) *Data {
	if ev.Props().Len() == 0 {
		return nil
	}
	return m.MapFields(ev, ev.Props())
}

// MapFields maps pool, a working subset of ev's properties. Relative rule
// paths resolve inside pool; absolute ones against ev. Translators use it
// after removing the fields they consumed themselves, so rules are
// evaluated even when pool is empty.
func (m *Mapper) MapFields(ev *event.Event, pool *event.Map) *Data {
	out := NewData()
	for i, rule := range m.cfg.rules {
		p := m.cfg.paths[i]
		var (
			v  event.Value
			ok bool
		)
		if p.Absolute() {
			v, ok = p.Lookup(ev)
		} else {
			v, ok = resolver.Walk(pool, p.Segments())
		}
		if ok {
			out.Set(rule.Variable, v)
		}
	}

	pool.Range(func(key string, v event.Value) bool {
		if m.cfg.IsRuleField(key) {
			return true
		}
		out.Set(m.cfg.prefix+key, v)
		return true
	})
	return out
}
