// Package dlq keeps inbound events that could not be translated on disk so
// they can be inspected and replayed.
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
)

// Failure reasons.
const (
	ReasonDecode    = "decode"
	ReasonTranslate = "translate"
)

// ErrDisabled is returned when operating on a nil queue.
var ErrDisabled = errors.New("dlq not enabled")

// FailedEvent is one dead-lettered inbound message.
type FailedEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	StreamKey string    `json:"stream_key,omitempty"`
	Reason    string    `json:"reason"`
	Error     string    `json:"error"`
	// Payload is the raw message body, kept as text because decode
	// failures may not be valid JSON.
	Payload string `json:"payload"`
}

// Stats summarizes the queue.
type Stats struct {
	Written uint64 `json:"written"`
	Pending int    `json:"pending"`
	Path    string `json:"path"`
}

// Queue writes failed events as one JSON file each under a directory.
type Queue struct {
	basePath string
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	written uint64
}

// NewQueue creates the directory if needed.
func NewQueue(basePath string, logger *logging.Logger) (*Queue, error) {
	if basePath == "" {
		return nil, errors.New("dlq: empty path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}
	return &Queue{basePath: basePath, logger: logging.OrDefault(logger), now: time.Now}, nil
}

// Write records a failed message. A nil queue discards it.
func (q *Queue) Write(ctx context.Context, subject string, payload []byte, cause error, reason string) error {
	if q == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ts := q.now().UTC()
	id := fmt.Sprintf("failed_%d_%d", ts.UnixNano(), q.written)
	failed := FailedEvent{
		ID:        id,
		Timestamp: ts,
		Subject:   subject,
		StreamKey: logging.StreamKeyFrom(ctx),
		Reason:    reason,
		Payload:   string(payload),
	}
	if cause != nil {
		failed.Error = cause.Error()
	}

	data, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(q.basePath, id+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write dlq entry: %w", err)
	}

	q.written++
	metrics.DeadLettered.WithLabelValues(reason).Inc()
	q.logger.WarnContext(ctx, "Event dead-lettered", "id", id, "reason", reason, logging.Error(cause))
	return nil
}

// List returns up to limit entries, oldest first. limit <= 0 means all.
func (q *Queue) List(limit int) ([]FailedEvent, error) {
	if q == nil {
		return nil, ErrDisabled
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.entriesLocked()
	if err != nil {
		return nil, err
	}

	var events []FailedEvent
	for _, name := range names {
		if limit > 0 && len(events) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(q.basePath, name))
		if err != nil {
			q.logger.Warn("Failed to read dlq entry", "file", name, logging.Error(err))
			continue
		}
		var failed FailedEvent
		if err := json.Unmarshal(data, &failed); err != nil {
			q.logger.Warn("Failed to parse dlq entry", "file", name, logging.Error(err))
			continue
		}
		events = append(events, failed)
	}
	return events, nil
}

// Delete removes one entry by id.
func (q *Queue) Delete(id string) error {
	if q == nil {
		return ErrDisabled
	}
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid dlq id %q", id)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err := os.Remove(filepath.Join(q.basePath, id+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("dlq entry %q not found", id)
	}
	return err
}

// Purge removes every entry and returns how many were deleted.
func (q *Queue) Purge() (int, error) {
	if q == nil {
		return 0, ErrDisabled
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.entriesLocked()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(q.basePath, name)); err != nil {
			q.logger.Warn("Failed to delete dlq entry", "file", name, logging.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Stats reports the write count and pending entries.
func (q *Queue) Stats() (Stats, error) {
	if q == nil {
		return Stats{}, ErrDisabled
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.entriesLocked()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Written: q.written, Pending: len(names), Path: q.basePath}, nil
}

func (q *Queue) entriesLocked() ([]string, error) {
	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}
	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.HasPrefix(f.Name(), "failed_") || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		names = append(names, f.Name())
	}
	// Names sort by timestamp only while the nanosecond counts share a width,
	// which holds for any date between 2001 and 2286.
	sort.Strings(names)
	return names, nil
}
