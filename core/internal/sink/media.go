package sink

import "fmt"

// StreamType is the media stream format.
type StreamType string

const (
	StreamVOD  StreamType = "VOD"
	StreamLive StreamType = "LIVE"
)

// Descriptor is one of the media objects attached to heartbeat calls:
// Media, Chapter, AdBreak, Ad or QoS.
type Descriptor interface {
	descriptor() string
}

// Media describes the main content of a session.
type Media struct {
	Name       string     `json:"name" yaml:"name"`
	ID         string     `json:"id" yaml:"id"`
	Length     float64    `json:"length" yaml:"length"`
	StreamType StreamType `json:"streamType" yaml:"streamType"`
}

// Chapter describes a content segment.
type Chapter struct {
	Name      string  `json:"name" yaml:"name"`
	Position  int64   `json:"position" yaml:"position"`
	Length    float64 `json:"length" yaml:"length"`
	StartTime float64 `json:"startTime" yaml:"startTime"`
}

// AdBreak describes a pod of ads.
type AdBreak struct {
	Name      string  `json:"name" yaml:"name"`
	Position  int64   `json:"position" yaml:"position"`
	StartTime float64 `json:"startTime" yaml:"startTime"`
}

// Ad describes one ad inside a break.
type Ad struct {
	Name     string  `json:"name" yaml:"name"`
	ID       string  `json:"id" yaml:"id"`
	Position int64   `json:"position" yaml:"position"`
	Length   float64 `json:"length" yaml:"length"`
}

// QoS is a quality-of-service snapshot.
type QoS struct {
	Bitrate       float64 `json:"bitrate" yaml:"bitrate"`
	StartupTime   float64 `json:"startupTime" yaml:"startupTime"`
	FPS           float64 `json:"fps" yaml:"fps"`
	DroppedFrames float64 `json:"droppedFrames" yaml:"droppedFrames"`
}

func (Media) descriptor() string   { return "media" }
func (Chapter) descriptor() string { return "chapter" }
func (AdBreak) descriptor() string { return "adBreak" }
func (Ad) descriptor() string      { return "ad" }
func (QoS) descriptor() string     { return "qos" }

// DescriptorKind names the concrete descriptor type, "" for nil.
func DescriptorKind(d Descriptor) string {
	if d == nil {
		return ""
	}
	return d.descriptor()
}

// MediaEvent is a heartbeat event reported through TrackEvent.
type MediaEvent int

const (
	ChapterStart MediaEvent = iota + 1
	ChapterComplete
	AdBreakStart
	AdBreakComplete
	AdStart
	AdSkip
	AdComplete
	BufferStart
	BufferComplete
	SeekStart
	SeekComplete
)

func (e MediaEvent) String() string {
	switch e {
	case ChapterStart:
		return "ChapterStart"
	case ChapterComplete:
		return "ChapterComplete"
	case AdBreakStart:
		return "AdBreakStart"
	case AdBreakComplete:
		return "AdBreakComplete"
	case AdStart:
		return "AdStart"
	case AdSkip:
		return "AdSkip"
	case AdComplete:
		return "AdComplete"
	case BufferStart:
		return "BufferStart"
	case BufferComplete:
		return "BufferComplete"
	case SeekStart:
		return "SeekStart"
	case SeekComplete:
		return "SeekComplete"
	}
	return fmt.Sprintf("MediaEvent(%d)", int(e))
}

// MarshalText encodes the event by name.
func (e MediaEvent) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes an event name.
func (e *MediaEvent) UnmarshalText(b []byte) error {
	for m := ChapterStart; m <= SeekComplete; m++ {
		if m.String() == string(b) {
			*e = m
			return nil
		}
	}
	return fmt.Errorf("unknown media event %q", string(b))
}
