package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/store"
)

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	p, err := NewPredictor(fittedEncoder(t), core.RFMFeatures(), &stubModel{prob: 0.8})
	require.NoError(t, err)
	return NewServer(p, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Predict(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"ok", `{"recency": 10, "frequency": 3, "monetary": 250.5}`, http.StatusOK, ""},
		{"missing monetary", `{"recency": 10, "frequency": 3}`, http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"negative recency", `{"recency": -1, "frequency": 3, "monetary": 1}`, http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"not json", `recency=10`, http.StatusBadRequest, core.ErrorCodeInvalidInput},
		{"wrong type", `{"recency": "ten", "frequency": 3, "monetary": 1}`, http.StatusBadRequest, core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.status == http.StatusOK {
				var out Output
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
				assert.Equal(t, 1, out.Prediction)
				assert.Equal(t, 0.8, out.RiskProbability)
				return
			}
			var e errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestServer_CustomerRisk(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/customers/12346/risk", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	fs := feature.NewStoreFeatureService(s, "")
	require.NoError(t, fs.Publish(ctx, []core.RFMRecord{{CustomerID: "12346", Recency: 30, Frequency: 2, Monetary: 99.5}}))

	h = newTestServer(t, WithFeatureService(fs)).Handler()

	rec = do(t, h, http.MethodGet, "/customers/12346/risk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		CustomerID      string             `json:"customer_id"`
		Features        map[string]float64 `json:"features"`
		Prediction      int                `json:"prediction"`
		RiskProbability float64            `json:"risk_probability"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "12346", got.CustomerID)
	assert.Equal(t, map[string]float64{"recency": 30, "frequency": 2, "monetary": 99.5}, got.Features)
	assert.Equal(t, 0.8, got.RiskProbability)

	rec = do(t, h, http.MethodGet, "/customers/404/risk", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Monitor(t *testing.T) {
	h := newTestServer(t).Handler()
	assert.Equal(t, http.StatusNotImplemented, do(t, h, http.MethodGet, "/monitor/recency", "").Code)

	mon := feature.NewMemoryEncodingMonitor(100)
	p, err := NewPredictor(fittedEncoder(t), core.RFMFeatures(), &stubModel{prob: 0.3}, WithMonitor(mon))
	require.NoError(t, err)
	h = NewServer(p, WithEncodingMonitor(mon)).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/monitor/recency", "").Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/predict", `{"recency": 1, "frequency": 1, "monetary": 1}`).Code)
	rec := do(t, h, http.MethodGet, "/monitor/recency", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats feature.EncodingStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "recency", stats.Feature)
	assert.Equal(t, int64(1), stats.UsageCount)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "stub", health["model"])

	// 先产生一次打分，保证计数器已注册样本
	do(t, h, http.MethodPost, "/predict", `{"recency": 1, "frequency": 1, "monetary": 1}`)
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "riskit_predictions_total")
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		core.ErrorCodeInvalidInput:  http.StatusBadRequest,
		core.ErrorCodeNotFound:      http.StatusNotFound,
		core.ErrorCodeNotSupported:  http.StatusNotImplemented,
		core.ErrorCodeUnavailable:   http.StatusServiceUnavailable,
		core.ErrorCodeNotFitted:     http.StatusServiceUnavailable,
		core.ErrorCodeInternalError: http.StatusInternalServerError,
		"SOMETHING_ELSE":            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), code)
	}
}
