package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/validation"
)

func TestValidateMetrics(t *testing.T) {
	tests := []struct {
		name    string
		metrics map[string]float64
		wantErr bool
	}{
		{"valid", map[string]float64{"accuracy": 0.85, "roc_auc": 0.9, "f1_score": 0.8}, false},
		{"bounds", map[string]float64{"accuracy": 0, "roc_auc": 1, "f1_score": 0}, false},
		{"extra keys ignored", map[string]float64{"accuracy": 0.5, "roc_auc": 0.5, "f1_score": 0.5, "gini": -3}, false},
		{"missing f1", map[string]float64{"accuracy": 0.85, "roc_auc": 0.9}, true},
		{"above one", map[string]float64{"accuracy": 1.5, "roc_auc": 0.9, "f1_score": 0.8}, true},
		{"negative", map[string]float64{"accuracy": 0.85, "roc_auc": -0.1, "f1_score": 0.8}, true},
		{"nan", map[string]float64{"accuracy": math.NaN(), "roc_auc": 0.9, "f1_score": 0.8}, true},
		{"empty", map[string]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetrics(tt.metrics)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestValidateMetrics_FieldErrors(t *testing.T) {
	err := ValidateMetrics(map[string]float64{"accuracy": 2, "roc_auc": 0.9})
	require.Error(t, err)

	var fields validation.Errors
	require.True(t, errors.As(err, &fields))
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{"accuracy": "lte", "f1_score": "required"}, got)
}

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	proba := []float64{0.1, 0.4, 0.35, 0.8}

	e, err := Evaluate(yTrue, proba, DefaultThreshold)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, e.Accuracy, 1e-12)
	assert.InDelta(t, 0.75, e.ROCAUC, 1e-12)
	assert.InDelta(t, 1.0, e.Precision, 1e-12)
	assert.InDelta(t, 0.5, e.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, e.F1Score, 1e-12)
	assert.Equal(t, 4, e.Samples)
	assert.NoError(t, ValidateMetrics(e.Map()))

	perfect, err := Evaluate([]int{0, 1, 0, 1}, []float64{0.2, 0.9, 0.1, 0.7}, DefaultThreshold)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, perfect.ROCAUC, 1e-12)
	assert.InDelta(t, 1.0, perfect.F1Score, 1e-12)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		y     []int
		proba []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []int{0, 1}, []float64{0.5}},
		{"single class", []int{1, 1}, []float64{0.2, 0.9}},
		{"out of range", []int{0, 1}, []float64{0.2, 1.5}},
		{"nan", []int{0, 1}, []float64{math.NaN(), 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.y, tt.proba, DefaultThreshold)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
}
