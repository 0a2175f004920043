package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

type request struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	Recency    float64 `json:"recency" validate:"gte=0"`
	Source     string  `json:"source" validate:"omitempty,oneof=store feast"`
	Internal   int     `validate:"lte=3"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(core.ModuleService, request{CustomerID: "1"}))

	err := Struct(core.ModuleService, request{Recency: -1, Source: "kafka", Internal: 4})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Equal(t, core.ModuleService, core.GetDomainError(err).Module)

	var fields Errors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, Errors{
		{Field: "customer_id", Tag: "required", Message: "customer_id is required"},
		{Field: "recency", Tag: "gte", Message: "recency must be greater than or equal to 0"},
		{Field: "source", Tag: "oneof", Message: "source must be one of: store feast"},
		{Field: "Internal", Tag: "lte", Message: "Internal must be less than or equal to 3"},
	}, fields)
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct(core.ModuleConfig, 42)
	assert.True(t, core.IsInvalidInput(err))
}
