package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
)

// stubModel 记录最后一次模型输入并返回固定概率
type stubModel struct {
	mu   sync.Mutex
	last map[string]float64
	prob float64
	err  error
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Predict(features map[string]float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = make(map[string]float64, len(features))
	for k, v := range features {
		m.last[k] = v
	}
	return m.prob, m.err
}

func (m *stubModel) lastInput() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// fittedEncoder 在 100 个客户上拟合：recency 分箱，frequency 直通（1..4），monetary 分箱
func fittedEncoder(t *testing.T) *feature.WOEEncoder {
	t.Helper()
	n := 100
	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		recency[i] = float64(i + 1)
		frequency[i] = float64(i%4 + 1)
		monetary[i] = float64((i*37)%1000) + 0.5
		if recency[i] > 70 && frequency[i] <= 2 {
			y[i] = 1
		}
		if i%10 == 0 {
			y[i] = 1
		}
	}
	x, err := core.NewFeatureTable(
		core.NumericColumn(core.FeatureRecency, recency),
		core.NumericColumn(core.FeatureFrequency, frequency),
		core.NumericColumn(core.FeatureMonetary, monetary),
	)
	require.NoError(t, err)

	enc := feature.NewWOEEncoder()
	require.NoError(t, enc.Fit(x, y))
	return enc
}

func TestNewPredictor_Errors(t *testing.T) {
	enc := fittedEncoder(t)
	m := &stubModel{prob: 0.5}

	_, err := NewPredictor(feature.NewWOEEncoder(), core.RFMFeatures(), m)
	assert.True(t, core.IsNotFitted(err))

	_, err = NewPredictor(enc, core.RFMFeatures(), nil)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewPredictor(enc, nil, m)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewPredictor(enc, []string{"tenure"}, m)
	assert.True(t, core.IsInvalidInput(err))
}

func TestPredictor_Predict(t *testing.T) {
	enc := fittedEncoder(t)
	m := &stubModel{prob: 0.7}
	p, err := NewPredictor(enc, []string{core.FeatureRecency, core.FeatureFrequency}, m, WithThreshold(0.6))
	require.NoError(t, err)

	out, err := p.Predict(context.Background(), Input{Recency: 10, Frequency: 3, Monetary: 250.5})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Prediction)
	assert.Equal(t, 0.7, out.RiskProbability)
	assert.Empty(t, out.UnknownFeatures)

	// 模型输入只包含选中特征的编码列，取值与编码器一致
	want, err := enc.EncodeRecord(map[string]float64{core.FeatureRecency: 10, core.FeatureFrequency: 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"recency_woe":   want["recency_woe"].Float,
		"frequency_woe": want["frequency_woe"].Float,
	}, m.lastInput())

	m.prob = 0.2
	out, err = p.Predict(context.Background(), Input{Recency: 10, Frequency: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Prediction)
}

func TestPredictor_UnknownBin(t *testing.T) {
	enc := fittedEncoder(t)
	m := &stubModel{prob: 0.4}
	mon := feature.NewMemoryEncodingMonitor(10)
	p, err := NewPredictor(enc, core.RFMFeatures(), m, WithMonitor(mon))
	require.NoError(t, err)

	// frequency 训练期只有 1..4
	out, err := p.Predict(context.Background(), Input{Recency: 5, Frequency: 9, Monetary: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{core.FeatureFrequency}, out.UnknownFeatures)

	input := m.lastInput()
	assert.NotContains(t, input, "frequency_woe")
	assert.Contains(t, input, "recency_woe")
	assert.Contains(t, input, "monetary_woe")

	stats, err := mon.Stats(context.Background(), core.FeatureFrequency)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UnknownCount)
	assert.Equal(t, 0, stats.WOE.Count)
}

func TestPredictor_Errors(t *testing.T) {
	enc := fittedEncoder(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		model    *stubModel
		features map[string]float64
		check    func(error) bool
	}{
		{
			name:     "missing feature",
			model:    &stubModel{prob: 0.5},
			features: map[string]float64{core.FeatureRecency: 1},
			check:    core.IsInvalidInput,
		},
		{
			name:     "nan feature",
			model:    &stubModel{prob: 0.5},
			features: map[string]float64{core.FeatureRecency: math.NaN(), core.FeatureFrequency: 1, core.FeatureMonetary: 1},
			check:    core.IsInvalidInput,
		},
		{
			name:     "probability out of range",
			model:    &stubModel{prob: 1.5},
			features: map[string]float64{core.FeatureRecency: 1, core.FeatureFrequency: 1, core.FeatureMonetary: 1},
			check: func(err error) bool {
				de := core.GetDomainError(err)
				return de != nil && de.Code == core.ErrorCodeInternalError
			},
		},
		{
			name:     "model error",
			model:    &stubModel{err: core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "down")},
			features: map[string]float64{core.FeatureRecency: 1, core.FeatureFrequency: 1, core.FeatureMonetary: 1},
			check:    core.IsUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPredictor(enc, core.RFMFeatures(), tt.model)
			require.NoError(t, err)
			_, err = p.PredictFeatures(ctx, tt.features)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestNewPredictorFromArtifact(t *testing.T) {
	enc := fittedEncoder(t)
	a, err := enc.Artifact([]string{core.FeatureMonetary})
	require.NoError(t, err)

	p, err := NewPredictorFromArtifact(a, &stubModel{prob: 0.1})
	require.NoError(t, err)
	assert.Equal(t, []string{core.FeatureMonetary}, p.Features())

	_, err = NewPredictorFromArtifact(&feature.Artifact{Version: 42}, &stubModel{})
	assert.True(t, core.IsInvalidInput(err))
}
