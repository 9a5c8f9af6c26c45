package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/mediabridge/common/config"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/handlers"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
)

func TestNewRouter(t *testing.T) {
	processor, err := service.NewFromConfig(config.Default(), sink.NewRecorder(), nil, logging.Discard())
	require.NoError(t, err)
	router := NewRouter(handlers.NewProcessorHandler(processor), Options{Logger: logging.Discard()})

	body := `{"type":"track","event":"Video Playback Started","anonymousId":"anon-1"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body)))
	require.Equal(t, http.StatusAccepted, w.Code)

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{path: "/healthz", wantCode: http.StatusOK, contains: `"processed":1`},
		{path: "/api/v1/streams/anon-1/playhead", wantCode: http.StatusOK, contains: `"stream_key":"anon-1"`},
		{path: "/api/v1/streams/anon-2/playhead", wantCode: http.StatusNotFound, contains: "no_session"},
		{path: "/metrics", wantCode: http.StatusOK, contains: "mediabridge_events_total"},
		{path: "/nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}
}

func TestNewRouter_Middleware(t *testing.T) {
	processor, err := service.NewFromConfig(config.Default(), sink.NewRecorder(), nil, logging.Discard())
	require.NoError(t, err)
	router := NewRouter(handlers.NewProcessorHandler(processor), Options{
		AllowedOrigins: []string{"https://shop.example.com"},
		Logger:         logging.Discard(),
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("X-Request-ID", "req-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-7", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
