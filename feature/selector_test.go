package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

func TestSelectFeatures(t *testing.T) {
	scores := core.IVScores{
		{Feature: "A", IV: 0.05},
		{Feature: "B", IV: 0.15},
		{Feature: "C", IV: 0.3},
	}
	tests := []struct {
		name      string
		scores    core.IVScores
		threshold float64
		want      []string
	}{
		{"above threshold", scores, 0.1, []string{"C", "B"}},
		{"threshold is exclusive", scores, 0.15, []string{"C"}},
		{"keep all", scores, 0, []string{"C", "B", "A"}},
		{"none", scores, 1, []string{}},
		{
			"ties keep input order",
			core.IVScores{{Feature: "x", IV: 0.2}, {Feature: "y", IV: 0.5}, {Feature: "z", IV: 0.2}},
			0.02,
			[]string{"y", "x", "z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectFeatures(tt.scores, tt.threshold))
		})
	}

	// 输入不被修改
	assert.Equal(t, "A", scores[0].Feature)
}

func TestRankFeatures(t *testing.T) {
	x, y := fixture(t)
	scores, err := RankFeatures(x, y)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, "recency", scores[0].Feature)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].IV, scores[i].IV)
	}
	for _, s := range scores {
		assert.GreaterOrEqual(t, s.IV, 0.0)
	}

	m := scores.Map()
	assert.Contains(t, m, "country")

	_, err = RankFeatures(nil, y)
	assert.True(t, core.IsInvalidInput(err))
}

func TestComputeIV(t *testing.T) {
	x, y := fixture(t)
	col, _ := x.Column("recency")

	report, err := ComputeIV(col, y, WithQuantiles(4))
	require.NoError(t, err)
	assert.Equal(t, "recency", report.Feature)
	assert.Equal(t, BinStatusBinned, report.Status)
	assert.Len(t, report.Edges, 5)
	assert.Len(t, report.Stats, 4)

	_, err = ComputeIV(nil, y)
	assert.True(t, core.IsInvalidInput(err))
}
