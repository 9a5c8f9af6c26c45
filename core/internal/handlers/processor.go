package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/telhawk-systems/mediabridge/common/messaging"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// maxBodyBytes caps a single ingestion request.
const maxBodyBytes = 1 << 20

// ProcessorHandler manages translation HTTP endpoints.
type ProcessorHandler struct {
	processor *service.Processor
	broker    messaging.Client
}

// NewProcessorHandler constructs a new handler.
func NewProcessorHandler(p *service.Processor) *ProcessorHandler {
	return &ProcessorHandler{processor: p}
}

// WithBroker includes the broker connection in health reports.
func (h *ProcessorHandler) WithBroker(c messaging.Client) *ProcessorHandler {
	h.broker = c
	return h
}

// IngestResponse reports how a batch was handled.
type IngestResponse struct {
	Accepted int      `json:"accepted"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Processor service.Stats           `json:"processor"`
	Broker    *messaging.HealthStatus `json:"broker,omitempty"`
}

// PlayheadResponse carries a stream's current playback position.
type PlayheadResponse struct {
	StreamKey string `json:"stream_key"`
	Playhead  int64  `json:"playhead_seconds"`
}

// Ingest handles POST /api/v1/events. The body is one event or a JSON
// array of events; events are processed in order.
func (h *ProcessorHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body exceeds 1MiB")
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var resp IngestResponse
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		if err := h.processor.Process(r.Context(), ev); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Accepted++
	}

	status := http.StatusAccepted
	if resp.Accepted == 0 && resp.Failed > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func decodeEvents(body []byte) ([]*event.Event, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, errors.New("empty body")
	}
	if strings.HasPrefix(trimmed, "[") {
		var events []*event.Event
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, err
		}
		for i, ev := range events {
			if ev == nil {
				return nil, fmt.Errorf("event %d: %w", i, event.ErrNilEvent)
			}
		}
		return events, nil
	}
	var ev event.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return []*event.Event{&ev}, nil
}

// Playhead handles GET /api/v1/streams/{key}/playhead.
func (h *ProcessorHandler) Playhead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	key := r.PathValue("key")
	playhead, ok := h.processor.PlaybackTime(key)
	if !ok {
		writeError(w, http.StatusNotFound, "no_session", "stream has no active video session")
		return
	}
	writeJSON(w, http.StatusOK, PlayheadResponse{StreamKey: key, Playhead: playhead})
}

// Health handles GET /healthz. A disconnected broker reports 503.
func (h *ProcessorHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	resp := HealthResponse{Status: "ok", Processor: h.processor.Health()}
	status := http.StatusOK
	if h.broker != nil {
		broker := messaging.CheckClientHealth(r.Context(), h.broker)
		resp.Broker = &broker
		if !broker.Connected {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	type errorBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method is not allowed")
}
