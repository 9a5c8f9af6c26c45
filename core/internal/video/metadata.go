package video

import (
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// MetadataRule maps an event property to a backend standard-metadata key.
type MetadataRule struct {
	Field string `yaml:"field"`
	Key   string `yaml:"key"`
}

// MetadataTable is an ordered set of metadata rules. When two rules share a
// key, the later one wins.
type MetadataTable []MetadataRule

// DefaultMetadata is the standard video metadata table.
var DefaultMetadata = MetadataTable{
	{Field: "assetId", Key: "a.media.asset"},
	{Field: "contentAssetId", Key: "a.media.asset"},
	{Field: "program", Key: "a.media.show"},
	{Field: "season", Key: "a.media.season"},
	{Field: "episode", Key: "a.media.episode"},
	{Field: "genre", Key: "a.media.genre"},
	{Field: "channel", Key: "a.media.network"},
	{Field: "airdate", Key: "a.media.airDate"},
	{Field: "publisher", Key: "a.media.originator"},
	{Field: "rating", Key: "a.media.rating"},
}

// DefaultAdMetadata is the standard ad metadata table.
var DefaultAdMetadata = MetadataTable{
	{Field: "publisher", Key: "a.media.ad.advertiser"},
}

// Apply copies matching properties of props into data and removes them
// from pool.
func (t MetadataTable) Apply(props, pool *event.Map, data *contextdata.Data) {
	for _, rule := range t {
		v, ok := props.Get(rule.Field)
		if !ok {
			continue
		}
		pool.Delete(rule.Field)
		if v.IsNull() {
			continue
		}
		data.Set(rule.Key, v)
	}
}
