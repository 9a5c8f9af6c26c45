package service

import (
	"fmt"

	"github.com/telhawk-systems/mediabridge/common/config"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/ecommerce"
	"github.com/telhawk-systems/mediabridge/core/internal/resolver"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/internal/video"
)

// ComponentsFromConfig validates cfg and builds the translation components
// it describes. clock may be nil.
func ComponentsFromConfig(cfg *config.Config, clock video.Clock, logger *logging.Logger) (Components, error) {
	if err := cfg.Validate(resolver.Validate); err != nil {
		return Components{}, fmt.Errorf("invalid configuration: %w", err)
	}
	t := cfg.Translation

	rules := make([]contextdata.Rule, 0, len(t.ContextValues))
	for _, m := range t.ContextValues {
		rules = append(rules, contextdata.Rule{Field: m.Field, Variable: m.Variable})
	}
	mapperCfg, err := contextdata.NewConfig(rules, t.Prefix)
	if err != nil {
		return Components{}, err
	}
	mapper := contextdata.NewMapper(mapperCfg)

	var commerce map[string]ecommerce.Action
	if len(t.CommerceEvents) > 0 {
		commerce = make(map[string]ecommerce.Action, len(t.CommerceEvents))
		for _, m := range t.CommerceEvents {
			action, ok := ecommerce.ParseCode(m.Target)
			if !ok {
				return Components{}, fmt.Errorf("translation.commerce_events: unknown action code %q", m.Target)
			}
			commerce[m.Event] = action
		}
	}

	videoNames := video.DefaultNames()
	for _, m := range t.VideoEvents {
		kind, ok := video.ParseKind(m.Target)
		if !ok {
			return Components{}, fmt.Errorf("translation.video_events: unknown video event %q", m.Target)
		}
		videoNames[m.Event] = kind
	}

	var actions map[string]string
	if len(t.Actions) > 0 {
		actions = make(map[string]string, len(t.Actions))
		for _, m := range t.Actions {
			actions[m.Event] = m.Target
		}
	}

	return Components{
		Mapper:     mapper,
		Translator: ecommerce.NewTranslator(mapper, t.ProductIdentifier, commerce, logger),
		Actions:    actions,
		VideoNames: videoNames,
		Video: video.Options{
			Clock:      clock,
			Metadata:   metadataTable(cfg.Video.Metadata),
			AdMetadata: metadataTable(cfg.Video.AdMetadata),
			Logger:     logger,
		},
	}, nil
}

// NewFromConfig builds a Processor from cfg.
func NewFromConfig(cfg *config.Config, backend sink.Backend, clock video.Clock, logger *logging.Logger) (*Processor, error) {
	c, err := ComponentsFromConfig(cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	return NewProcessor(backend, c, logger), nil
}

// metadataTable returns nil for an empty list so the engine keeps its
// default table.
func metadataTable(mappings []config.MetadataMapping) video.MetadataTable {
	if len(mappings) == 0 {
		return nil
	}
	table := make(video.MetadataTable, 0, len(mappings))
	for _, m := range mappings {
		table = append(table, video.MetadataRule{Field: m.Field, Key: m.Key})
	}
	return table
}
