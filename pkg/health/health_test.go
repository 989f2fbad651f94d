package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestReadyEndpoint_GateDown(t *testing.T) {
	h := New()

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestReadyEndpoint_GateUp(t *testing.T) {
	h := New()
	h.SetReady(true)

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, func(_ context.Context) error {
		return errors.New("connection refused")
	})
	h.SetReady(true)

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks["postgres"], "connection refused")
}

func TestLiveEndpoint_HealthyCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, func(_ context.Context) error {
		return nil
	})

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["goroutines"])
}

func TestLiveEndpoint_IgnoresReadyGate(t *testing.T) {
	h := New()

	// Liveness answers ok even before the service is ready for traffic.
	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestStop_BeforeStart(t *testing.T) {
	h := New()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(1)(context.Background()))
}
