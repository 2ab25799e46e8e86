package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReadyGatesOnStartup(t *testing.T) {
	server := NewServer(Config{ServiceName: "market-watch", DB: stubPinger{}})

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, 503, rec.Code)

	body := decodeBody(t, rec)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "starting", checks["daemon"])

	server.SetReady(true)
	rec = httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, 200, rec.Code)
}

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	server := NewServer(Config{ServiceName: "market-watch", DB: stubPinger{err: errors.New("connection refused")}})
	server.SetReady(true)

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, 503, rec.Code)

	checks := decodeBody(t, rec)["checks"].(map[string]any)
	assert.Contains(t, checks["database"], "connection refused")
}

func TestReadyReportsLastScan(t *testing.T) {
	server := NewServer(Config{ServiceName: "market-watch", DB: stubPinger{}})
	server.SetReady(true)

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.NotContains(t, decodeBody(t, rec), "last_scan")

	scanned := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	server.RecordScan(scanned)

	rec = httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, "2026-08-26T12:00:00Z", decodeBody(t, rec)["last_scan"])
}

func TestHealthAlwaysOK(t *testing.T) {
	server := NewServer(Config{ServiceName: "market-watch", Version: "dev"})

	rec := httptest.NewRecorder()
	server.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "market-watch", body["service"])
	assert.Equal(t, "dev", body["version"])
}
