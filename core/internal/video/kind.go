package video

import "fmt"

// Kind is one of the video lifecycle events the engine understands.
type Kind int

const (
	PlaybackStarted Kind = iota + 1
	PlaybackPaused
	PlaybackResumed
	ContentStarted
	ContentCompleted
	PlaybackCompleted
	BufferStarted
	BufferCompleted
	SeekStarted
	SeekCompleted
	AdBreakStarted
	AdBreakCompleted
	AdStarted
	AdSkipped
	AdCompleted
	PlaybackInterrupted
	QualityUpdated
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	PlaybackStarted, PlaybackPaused, PlaybackResumed,
	ContentStarted, ContentCompleted, PlaybackCompleted,
	BufferStarted, BufferCompleted, SeekStarted, SeekCompleted,
	AdBreakStarted, AdBreakCompleted, AdStarted, AdSkipped, AdCompleted,
	PlaybackInterrupted, QualityUpdated,
}

// EventName returns the default upstream event name.
func (k Kind) EventName() string {
	switch k {
	case PlaybackStarted:
		return "Video Playback Started"
	case PlaybackPaused:
		return "Video Playback Paused"
	case PlaybackResumed:
		return "Video Playback Resumed"
	case ContentStarted:
		return "Video Content Started"
	case ContentCompleted:
		return "Video Content Completed"
	case PlaybackCompleted:
		return "Video Playback Completed"
	case BufferStarted:
		return "Video Playback Buffer Started"
	case BufferCompleted:
		return "Video Playback Buffer Completed"
	case SeekStarted:
		return "Video Playback Seek Started"
	case SeekCompleted:
		return "Video Playback Seek Completed"
	case AdBreakStarted:
		return "Video Ad Break Started"
	case AdBreakCompleted:
		return "Video Ad Break Completed"
	case AdStarted:
		return "Video Ad Started"
	case AdSkipped:
		return "Video Ad Skipped"
	case AdCompleted:
		return "Video Ad Completed"
	case PlaybackInterrupted:
		return "Video Playback Interrupted"
	case QualityUpdated:
		return "Video Quality Updated"
	}
	return ""
}

func (k Kind) String() string {
	if name := k.EventName(); name != "" {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var defaultNames = func() map[string]Kind {
	names := make(map[string]Kind, len(Kinds))
	for _, k := range Kinds {
		names[k.EventName()] = k
	}
	return names
}()

// ParseKind classifies an upstream event name using the default names.
func ParseKind(name string) (Kind, bool) {
	k, ok := defaultNames[name]
	return k, ok
}

// DefaultNames returns a fresh copy of the default event-name table.
func DefaultNames() map[string]Kind {
	out := make(map[string]Kind, len(defaultNames))
	for name, k := range defaultNames {
		out[name] = k
	}
	return out
}
