package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/pkg/logging"
	"github.com/rushteam/riskit/pkg/validation"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// Server 是打分 HTTP 服务：
//
//	POST /predict                 {"recency": 10, "frequency": 3, "monetary": 250.5}
//	GET  /customers/{id}/risk     使用在线特征服务中的 RFM 特征打分
//	GET  /monitor/{feature}       编码监控统计
//	GET  /health
//	GET  /metrics                 Prometheus
type Server struct {
	predictor *Predictor
	features  core.FeatureService
	monitor   feature.EncodingMonitor
	router    chi.Router
}

// ServerOption Server 选项
type ServerOption func(*Server)

// WithFeatureService 设置在线特征服务（启用 /customers/{id}/risk）
func WithFeatureService(fs core.FeatureService) ServerOption {
	return func(s *Server) { s.features = fs }
}

// WithEncodingMonitor 设置编码监控（启用 /monitor/{feature}）
func WithEncodingMonitor(m feature.EncodingMonitor) ServerOption {
	return func(s *Server) { s.monitor = m }
}

// NewServer 创建 HTTP 服务
func NewServer(predictor *Predictor, opts ...ServerOption) *Server {
	s := &Server{predictor: predictor}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)

	r.Post("/predict", s.handlePredict)
	r.Get("/customers/{id}/risk", s.handleCustomerRisk)
	r.Get("/monitor/{feature}", s.handleMonitor)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler 返回 http.Handler
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe 启动服务，ctx 取消后优雅退出
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("risk service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info().Msg("risk service shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// predictRequest 所有字段必填
type predictRequest struct {
	Recency   *float64 `json:"recency" validate:"required,gte=0"`
	Frequency *float64 `json:"frequency" validate:"required,gte=0"`
	Monetary  *float64 `json:"monetary" validate:"required"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, err, "invalid request body"))
		return
	}
	if err := validation.Struct(core.ModuleService, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := s.predictor.Predict(r.Context(), Input{
		Recency:   *req.Recency,
		Frequency: *req.Frequency,
		Monetary:  *req.Monetary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type customerRiskResponse struct {
	CustomerID string             `json:"customer_id"`
	Features   map[string]float64 `json:"features"`
	*Output
}

func (s *Server) handleCustomerRisk(w http.ResponseWriter, r *http.Request) {
	if s.features == nil {
		writeError(w, core.NewDomainError(core.ModuleService, core.ErrorCodeNotSupported, "online feature service not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	features, err := s.features.GetCustomerFeatures(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.predictor.PredictFeatures(r.Context(), features)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerRiskResponse{CustomerID: id, Features: features, Output: out})
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		writeError(w, core.NewDomainError(core.ModuleService, core.ErrorCodeNotSupported, "encoding monitor not configured"))
		return
	}
	stats, err := s.monitor.Stats(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"model":    s.predictor.model.Name(),
		"features": s.predictor.Features(),
	})
}

// errorResponse 错误响应体
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
	}
	status := statusFor(code)
	predictionErrors.WithLabelValues(code).Inc()
	if status >= http.StatusInternalServerError {
		logging.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func statusFor(code string) int {
	switch code {
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest
	case core.ErrorCodeNotFound:
		return http.StatusNotFound
	case core.ErrorCodeNotSupported:
		return http.StatusNotImplemented
	case core.ErrorCodeUnavailable, core.ErrorCodeNotFitted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("write response failed")
	}
}

// instrument 记录请求耗时与访问日志
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())
		logging.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("http request")
	})
}
