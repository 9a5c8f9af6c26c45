package sink

import (
	"context"
	"sync"
	"time"
)

// Recorder is an in-memory Backend that keeps every call in order.
type Recorder struct {
	callBackend
	mu    sync.Mutex
	calls []Call
	err   error
}

var _ Backend = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.callBackend = callBackend{w: r}
	return r
}

// WithClock stamps recorded calls using now.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.callBackend.now = now
	return r
}

// FailWith makes every following call fail with err; nil restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) write(_ context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, c)
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Methods returns the recorded method names, with the media event
// appended for trackEvent calls ("trackEvent:ChapterStart").
func (r *Recorder) Methods() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = string(c.Method)
		if c.Method == MethodEvent {
			out[i] += ":" + c.Event.String()
		}
	}
	return out
}

// Last returns the most recent call.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
