package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

func rawBins(values ...float64) []core.Bin {
	bins := make([]core.Bin, len(values))
	for i, v := range values {
		bins[i] = core.RawBin(v)
	}
	return bins
}

func TestComputeWOEIV_PerfectSeparation(t *testing.T) {
	bins := rawBins(1, 1, 1, 1, 1, 2, 2, 2, 2, 2)
	target := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}

	res, err := ComputeWOEIV(bins, target)
	require.NoError(t, err)
	assert.Greater(t, res.IV, 0.0)

	w1, ok := res.Table.Lookup(core.RawBin(1))
	require.True(t, ok)
	w2, ok := res.Table.Lookup(core.RawBin(2))
	require.True(t, ok)
	assert.Greater(t, w1, 0.0)
	assert.Less(t, w2, 0.0)
	assert.InDelta(t, -w1, w2, 1e-9)
	assert.False(t, math.IsInf(w1, 0))
}

func TestComputeWOEIV_KnownValues(t *testing.T) {
	// A: good 3 bad 1, B: good 1 bad 3
	bins := []core.Bin{
		core.CategoryBin("A"), core.CategoryBin("A"), core.CategoryBin("A"), core.CategoryBin("A"),
		core.CategoryBin("B"), core.CategoryBin("B"), core.CategoryBin("B"), core.CategoryBin("B"),
		core.MissingBin(),
	}
	target := []int{0, 0, 0, 1, 0, 1, 1, 1, 1}

	res, err := ComputeWOEIV(bins, target)
	require.NoError(t, err)

	wa, _ := res.Table.Lookup(core.CategoryBin("A"))
	wb, _ := res.Table.Lookup(core.CategoryBin("B"))
	assert.InDelta(t, math.Log(3), wa, 1e-5)
	assert.InDelta(t, -math.Log(3), wb, 1e-5)
	assert.InDelta(t, math.Log(3), res.IV, 1e-5)

	require.Len(t, res.Stats, 2)
	assert.Equal(t, core.CategoryBin("A"), res.Stats[0].Bin)
	assert.Equal(t, 3, res.Stats[0].Good)
	assert.Equal(t, 1, res.Stats[0].Bad)

	// 缺失分箱不进入 WOE 表
	_, ok := res.Table.Lookup(core.MissingBin())
	assert.False(t, ok)
	assert.Equal(t, 2, res.Table.Len())
}

func TestComputeWOEIV_NonNegative(t *testing.T) {
	tests := []struct {
		name   string
		bins   []core.Bin
		target []int
	}{
		{"uninformative", rawBins(1, 1, 2, 2), []int{0, 1, 0, 1}},
		{"single class", rawBins(1, 2, 3), []int{0, 0, 0}},
		{"single bin", rawBins(7, 7, 7, 7), []int{0, 1, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ComputeWOEIV(tt.bins, tt.target)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.IV, -1e-9)
		})
	}
}

func TestComputeWOEIV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bins   []core.Bin
		target []int
	}{
		{"empty", nil, nil},
		{"all missing", []core.Bin{core.MissingBin(), core.MissingBin()}, []int{0, 1}},
		{"length mismatch", rawBins(1, 2), []int{0}},
		{"non binary", rawBins(1, 2), []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeWOEIV(tt.bins, tt.target)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestWOETable_ReadOnly(t *testing.T) {
	src := map[core.Bin]float64{core.IndexBin(1): 0.5, core.IndexBin(0): -0.5}
	table := NewWOETable(src)
	src[core.IndexBin(2)] = 1

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []core.Bin{core.IndexBin(0), core.IndexBin(1)}, table.Bins())

	m := table.Map()
	m[core.IndexBin(0)] = 100
	w, _ := table.Lookup(core.IndexBin(0))
	assert.Equal(t, -0.5, w)

	var nilTable *WOETable
	_, ok := nilTable.Lookup(core.IndexBin(0))
	assert.False(t, ok)
	assert.Zero(t, nilTable.Len())
}
