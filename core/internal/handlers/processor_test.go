package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/mediabridge/common/config"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/messaging"
	"github.com/telhawk-systems/mediabridge/core/internal/handlers"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
)

func setupTestHandler(t *testing.T) (*handlers.ProcessorHandler, *sink.Recorder) {
	t.Helper()
	rec := sink.NewRecorder()
	processor, err := service.NewFromConfig(config.Default(), rec, nil, logging.Discard())
	require.NoError(t, err)
	return handlers.NewProcessorHandler(processor), rec
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestProcessorHandler_Ingest_Single(t *testing.T) {
	handler, rec := setupTestHandler(t)

	w := post(handler.Ingest, `{"type":"track","event":"Product Viewed","anonymousId":"anon-1","properties":{"id":"sku-1"}}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handlers.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 0, resp.Failed)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "prodView", last.Name)
	assert.Equal(t, "anon-1", last.StreamKey)
}

func TestProcessorHandler_Ingest_BatchKeepsOrder(t *testing.T) {
	handler, rec := setupTestHandler(t)

	w := post(handler.Ingest, `[
		{"type":"identify","userId":"user-1"},
		{"type":"screen","name":"Home","anonymousId":"anon-1"},
		{"type":"track","event":"Video Playback Paused","anonymousId":"anon-1"}
	]`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handlers.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "no active video session")

	assert.Equal(t, []string{"setUserIdentifier", "trackState"}, rec.Methods())
}

func TestProcessorHandler_Ingest_AllFailed(t *testing.T) {
	handler, _ := setupTestHandler(t)
	w := post(handler.Ingest, `{"type":"track","event":"Video Content Started"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProcessorHandler_Ingest_InvalidJSON(t *testing.T) {
	handler, _ := setupTestHandler(t)

	for _, body := range []string{`invalid json`, ``, `[{"type":`, `[null]`, `[{"type":"flush"},null]`} {
		w := post(handler.Ingest, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_request", resp["code"])
	}
}

func TestProcessorHandler_Ingest_RejectsNamelessEvents(t *testing.T) {
	handler, rec := setupTestHandler(t)

	w := post(handler.Ingest, `[{"type":"track","properties":{"a":1}},{"type":"screen"},{"type":"flush"}]`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handlers.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 2, resp.Failed)
	require.Len(t, resp.Errors, 2)
	assert.Contains(t, resp.Errors[0], "event 0: event has no name")
	assert.Contains(t, resp.Errors[1], "event 1: event has no name")
	assert.Equal(t, []string{"flushQueue"}, rec.Methods())
}

func TestProcessorHandler_Ingest_MethodNotAllowed(t *testing.T) {
	handler, _ := setupTestHandler(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/v1/events", nil)
			w := httptest.NewRecorder()
			handler.Ingest(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Contains(t, w.Header().Get("Allow"), http.MethodPost)
		})
	}
}

func TestProcessorHandler_Playhead(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/streams/anon-1/playhead", nil)
	req.SetPathValue("key", "anon-1")
	w := httptest.NewRecorder()
	handler.Playhead(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	post(handler.Ingest, `{"type":"track","event":"Video Playback Started","anonymousId":"anon-1"}`)

	w = httptest.NewRecorder()
	handler.Playhead(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handlers.PlayheadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "anon-1", resp.StreamKey)
	assert.GreaterOrEqual(t, resp.Playhead, int64(0))
}

func TestProcessorHandler_Health(t *testing.T) {
	handler, _ := setupTestHandler(t)
	post(handler.Ingest, `{"type":"flush"}`)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(1), resp.Processor.Processed)
	assert.Nil(t, resp.Broker)
}

func TestProcessorHandler_HealthBroker(t *testing.T) {
	handler, _ := setupTestHandler(t)
	broker := messaging.NewMemoryClient(nil)
	handler.WithBroker(broker)

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, broker.Close())
	w = httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	require.NotNil(t, resp.Broker)
	assert.False(t, resp.Broker.Connected)
}
