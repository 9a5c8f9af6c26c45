package video

import (
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

func mediaFrom(props *event.Map) sink.Media {
	id := stringProp(props, PropContentAssetID)
	if id == "" {
		id = stringProp(props, PropAssetID)
	}
	streamType := sink.StreamVOD
	if live, ok := boolProp(props, PropLivestream); ok && live {
		streamType = sink.StreamLive
	}
	return sink.Media{
		Name:       stringProp(props, PropTitle),
		ID:         id,
		Length:     floatProp(props, PropTotalLength),
		StreamType: streamType,
	}
}

func chapterFrom(props *event.Map) sink.Chapter {
	return sink.Chapter{
		Name:      stringProp(props, PropTitle),
		Position:  indexProp(props),
		Length:    floatProp(props, PropTotalLength),
		StartTime: floatProp(props, PropStartTime),
	}
}

func adBreakFrom(props *event.Map) sink.AdBreak {
	return sink.AdBreak{
		Name:      stringProp(props, PropTitle),
		Position:  indexProp(props),
		StartTime: floatProp(props, PropStartTime),
	}
}

func adFrom(props *event.Map) sink.Ad {
	return sink.Ad{
		Name:     stringProp(props, PropTitle),
		ID:       stringProp(props, PropAssetID),
		Position: indexProp(props),
		Length:   floatProp(props, PropTotalLength),
	}
}

func qosFrom(props *event.Map) sink.QoS {
	return sink.QoS{
		Bitrate:       floatProp(props, PropBitrate),
		StartupTime:   floatProp(props, PropStartupTime),
		FPS:           floatProp(props, PropFPS),
		DroppedFrames: floatProp(props, PropDroppedFrames),
	}
}

// indexProp reads the 1-based position of a chapter, ad break or ad.
func indexProp(props *event.Map) int64 {
	if n, ok := intProp(props, PropIndexPosition); ok {
		return n
	}
	return 1
}

func stringProp(props *event.Map, key string) string {
	v, ok := props.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

func floatProp(props *event.Map, key string) float64 {
	v, ok := props.Get(key)
	if !ok {
		return 0
	}
	f, _ := v.Float()
	return f
}

func intProp(props *event.Map, key string) (int64, bool) {
	v, ok := props.Get(key)
	if !ok {
		return 0, false
	}
	return v.Int()
}

func boolProp(props *event.Map, key string) (bool, bool) {
	v, ok := props.Get(key)
	if !ok {
		return false, false
	}
	return v.Truthy()
}
