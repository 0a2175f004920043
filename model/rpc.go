package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/logging"
)

// RPCModel 是通过 HTTP 调用外部分类器服务的 RiskModel 实现，
// 调用经过熔断器保护：连续失败达到阈值后快速失败，超时后半开探测。
type RPCModel struct {
	name     string
	Endpoint string // 例如 "http://localhost:8080/predict"
	Timeout  time.Duration
	Client   *http.Client
	cb       *gobreaker.CircuitBreaker[[]float64]
}

// RPCOption RPCModel 选项
type RPCOption func(*gobreaker.Settings)

// WithBreakerFailures 连续失败多少次后熔断
func WithBreakerFailures(n uint32) RPCOption {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= n
		}
	}
}

// WithBreakerTimeout 熔断后多久进入半开状态
func WithBreakerTimeout(d time.Duration) RPCOption {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

func NewRPCModel(name, endpoint string, timeout time.Duration, opts ...RPCOption) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "model-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("model circuit breaker state changed")
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &RPCModel{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
		cb: gobreaker.NewCircuitBreaker[[]float64](settings),
	}
}

func (m *RPCModel) Name() string {
	return m.name
}

// BreakerState 返回熔断器状态（closed / half-open / open）
func (m *RPCModel) BreakerState() string {
	return m.cb.State().String()
}

// Predict 调用远程模型服务进行预测（单条，内部调用批量接口）。
func (m *RPCModel) Predict(features map[string]float64) (float64, error) {
	scores, err := m.PredictBatch(context.Background(), []map[string]float64{features})
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, fmt.Errorf("empty response")
	}
	return scores[0], nil
}

// PredictBatch 调用远程模型服务进行批量预测。
// 请求格式（JSON）：
//
//	{"features_list": [{"recency_woe": 0.41, "frequency_woe": -1.2}, ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.85, 0.12, ...]}
func (m *RPCModel) PredictBatch(ctx context.Context, featuresList []map[string]float64) ([]float64, error) {
	if len(featuresList) == 0 {
		return []float64{}, nil
	}

	scores, err := m.cb.Execute(func() ([]float64, error) {
		return m.call(ctx, featuresList)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeUnavailable, err, "model %s unavailable", m.name)
	}
	return scores, err
}

func (m *RPCModel) call(ctx context.Context, featuresList []map[string]float64) ([]float64, error) {
	reqBody := map[string]any{
		"features_list": featuresList,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Scores) != len(featuresList) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(featuresList), len(result.Scores))
	}
	for i, s := range result.Scores {
		if s < 0 || s > 1 {
			return nil, fmt.Errorf("response score %d out of [0,1]: %v", i, s)
		}
	}
	return result.Scores, nil
}
