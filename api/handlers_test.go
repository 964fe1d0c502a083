package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hermes/config"
	"hermes/storage"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	sqlite, err := storage.NewSQLite(filepath.Join(t.TempDir(), "hermes.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	cfg := &config.Config{
		BindAddress: "127.0.0.1",
		Port:        8990,
		Workers:     1,
		SecretKey:   "test",
		DatabaseURI: sqlite.Path,
		Domain:      "hermes.test",
		CountEvents: true,
	}

	return NewAPI(
		storage.NewHostStorage(sqlite, sqlite.Logger),
		storage.NewEventTypeStorage(sqlite, sqlite.Logger),
		storage.NewEventStorage(sqlite, sqlite.Logger),
		cfg,
		zap.NewNop().Sugar(),
	)
}

func doJSON(t *testing.T, a *API, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func dataMap(t *testing.T, env envelope) map[string]interface{} {
	t.Helper()
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", env.Data)
	return data
}

func TestHostEndpoints(t *testing.T) {
	a := newTestAPI(t)

	t.Run("create host", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/hosts", map[string]string{"hostname": "example"})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/v1/hosts/example", rec.Header().Get("Location"))

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "ok", env.Status)
		host := dataMap(t, env)["host"].(map[string]interface{})
		assert.Equal(t, "example", host["hostname"])
	})

	t.Run("missing hostname is a bad request", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/hosts", map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "error", env.Status)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Message, "hostname")
	})

	t.Run("duplicate host conflicts", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/hosts", map[string]string{"hostname": "example"})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("get host", func(t *testing.T) {
		rec := doJSON(t, a, "GET", "/api/v1/hosts/example", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		host := dataMap(t, env)["host"].(map[string]interface{})
		assert.Equal(t, "example", host["hostname"])
	})

	t.Run("get unknown host", func(t *testing.T) {
		rec := doJSON(t, a, "GET", "/api/v1/hosts/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Contains(t, env.Error.Message, "No such Host")
	})

	t.Run("list hosts with totals", func(t *testing.T) {
		doJSON(t, a, "POST", "/api/v1/hosts", map[string]string{"hostname": "other"})

		rec := doJSON(t, a, "GET", "/api/v1/hosts", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, decodeEnvelope(t, rec))
		assert.EqualValues(t, 2, data["totalHosts"])
		assert.Len(t, data["hosts"], 2)
	})

	t.Run("rename host", func(t *testing.T) {
		rec := doJSON(t, a, "PUT", "/api/v1/hosts/other", map[string]string{"hostname": "renamed"})
		require.Equal(t, http.StatusOK, rec.Code)
		host := dataMap(t, decodeEnvelope(t, rec))["host"].(map[string]interface{})
		assert.Equal(t, "renamed", host["hostname"])
	})

	t.Run("delete host", func(t *testing.T) {
		rec := doJSON(t, a, "DELETE", "/api/v1/hosts/renamed", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, decodeEnvelope(t, rec))
		assert.Equal(t, "Host renamed deleted.", data["message"])
	})
}

func TestEventTypeEndpoints(t *testing.T) {
	a := newTestAPI(t)

	var id float64
	t.Run("create event type", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/eventtypes", map[string]string{
			"category":    "system-reboot",
			"state":       "required",
			"description": "System requires a reboot.",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		et := dataMap(t, decodeEnvelope(t, rec))["eventType"].(map[string]interface{})
		id = et["id"].(float64)
		assert.Equal(t, fmt.Sprintf("/api/v1/eventtypes/%.0f", id), rec.Header().Get("Location"))
	})

	t.Run("unknown state is a bad request", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/eventtypes", map[string]string{
			"category": "system-reboot",
			"state":    "sideways",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update description", func(t *testing.T) {
		rec := doJSON(t, a, "PUT", fmt.Sprintf("/api/v1/eventtypes/%.0f", id),
			map[string]string{"description": "New description"})
		require.Equal(t, http.StatusOK, rec.Code)
		et := dataMap(t, decodeEnvelope(t, rec))["eventType"].(map[string]interface{})
		assert.Equal(t, "New description", et["description"])
	})

	t.Run("delete is not supported", func(t *testing.T) {
		rec := doJSON(t, a, "DELETE", fmt.Sprintf("/api/v1/eventtypes/%.0f", id), nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Not supported.", env.Error.Message)
	})
}

func TestEventEndpoints(t *testing.T) {
	a := newTestAPI(t)

	doJSON(t, a, "POST", "/api/v1/hosts", map[string]string{"hostname": "example"})
	rec := doJSON(t, a, "POST", "/api/v1/eventtypes", map[string]string{
		"category": "system-reboot",
		"state":    "required",
	})
	et := dataMap(t, decodeEnvelope(t, rec))["eventType"].(map[string]interface{})
	eventTypeID := int64(et["id"].(float64))

	t.Run("create event", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/events", map[string]interface{}{
			"hostname":    "example",
			"user":        "johnny",
			"eventTypeId": eventTypeID,
			"note":        "Sample description",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		event := dataMap(t, decodeEnvelope(t, rec))["event"].(map[string]interface{})
		assert.Equal(t, "example", event["hostname"])
		assert.Equal(t, "johnny", event["user"])
	})

	t.Run("event for unknown host", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/events", map[string]interface{}{
			"hostname":    "ghost",
			"user":        "johnny",
			"eventTypeId": eventTypeID,
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("event for unknown event type", func(t *testing.T) {
		rec := doJSON(t, a, "POST", "/api/v1/events", map[string]interface{}{
			"hostname":    "example",
			"user":        "johnny",
			"eventTypeId": 9999,
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list events", func(t *testing.T) {
		rec := doJSON(t, a, "GET", "/api/v1/events?hostname=example", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, decodeEnvelope(t, rec))
		assert.EqualValues(t, 1, data["totalEvents"])
	})

	t.Run("host detail includes last event", func(t *testing.T) {
		rec := doJSON(t, a, "GET", "/api/v1/hosts/example", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, decodeEnvelope(t, rec))
		assert.Contains(t, data, "lastEvent")
	})
}

func TestHealthCheck(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(t, a, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, true, data["healthy"])
	assert.Equal(t, "hermes.test", data["domain"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(t, a, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hermes_http_request_duration_seconds")
}
