package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

func TestLRModel_Predict(t *testing.T) {
	m := &LRModel{Bias: -1, Weights: map[string]float64{"recency_woe": -0.8, "frequency_woe": -0.5}}

	tests := []struct {
		name     string
		features map[string]float64
		want     float64
	}{
		{"bias only", map[string]float64{}, 1 / (1 + math.Exp(1))},
		{"balanced", map[string]float64{"recency_woe": -1.25}, 0.5},
		{"unknown key ignored", map[string]float64{"tenure_woe": 100}, 1 / (1 + math.Exp(1))},
		{"both", map[string]float64{"recency_woe": 1, "frequency_woe": 2}, 1 / (1 + math.Exp(2.8))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.features)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
	assert.Equal(t, "lr", m.Name())
}

func TestParseLRModel(t *testing.T) {
	m, err := ParseLRModel([]byte(`{"bias": 0.3, "weights": {"recency_woe": -0.7}}`))
	require.NoError(t, err)
	assert.Equal(t, 0.3, m.Bias)
	assert.Equal(t, map[string]float64{"recency_woe": -0.7}, m.Weights)

	for _, data := range []string{`{`, `{"bias": 1}`, `{"weights": {}}`} {
		_, err := ParseLRModel([]byte(data))
		assert.True(t, core.IsInvalidInput(err), "%s: got %v", data, err)
	}
}

func TestNewRiskModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lr_model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bias": 0, "weights": {"recency_woe": 1}}`), 0o644))

	m, err := NewRiskModel(Config{Type: TypeLR, Path: path})
	require.NoError(t, err)
	assert.Equal(t, "lr", m.Name())

	_, err = NewRiskModel(Config{Type: TypeLR, Path: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	m, err = NewRiskModel(Config{Type: TypeRPC, Endpoint: "http://localhost:1/predict"})
	require.NoError(t, err)
	assert.Equal(t, "rpc", m.Name())

	_, err = NewRiskModel(Config{Type: "xgboost"})
	assert.True(t, core.IsNotSupported(err))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, 1, Classify(0.5, DefaultThreshold))
	assert.Equal(t, 0, Classify(0.49, DefaultThreshold))
	assert.Equal(t, 1, Classify(0.2, 0.1))
}
