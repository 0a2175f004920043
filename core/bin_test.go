package core

import (
	"math"
	"sort"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin_StringRoundTrip(t *testing.T) {
	tests := []struct {
		bin  Bin
		want string
	}{
		{IndexBin(2), "bin:2"},
		{RawBin(1.5), "raw:1.5"},
		{RawBin(-3), "raw:-3"},
		{CategoryBin("gold"), "cat:gold"},
		{CategoryBin("a:b"), "cat:a:b"},
		{MissingBin(), "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bin.String())
			got, err := ParseBin(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.bin, got)
		})
	}
}

func TestParseBin_Errors(t *testing.T) {
	for _, s := range []string{"", "bin", "bin:x", "raw:abc", "woe:1"} {
		_, err := ParseBin(s)
		assert.Error(t, err, s)
	}
}

func TestRawBin_Normalizes(t *testing.T) {
	assert.True(t, RawBin(math.NaN()).IsMissing())
	assert.Equal(t, RawBin(0), RawBin(math.Copysign(0, -1)))
}

func TestBin_Less(t *testing.T) {
	bins := []Bin{CategoryBin("b"), RawBin(2), IndexBin(1), MissingBin(), CategoryBin("a"), IndexBin(0), RawBin(-1)}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Less(bins[j]) })
	assert.Equal(t, []Bin{
		MissingBin(), IndexBin(0), IndexBin(1), RawBin(-1), RawBin(2), CategoryBin("a"), CategoryBin("b"),
	}, bins)
}

func TestBin_JSON(t *testing.T) {
	type entry struct {
		Bin Bin     `json:"bin"`
		WOE float64 `json:"woe"`
	}
	in := []entry{{IndexBin(0), -0.5}, {RawBin(3), 1.25}, {CategoryBin("UK"), 0}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"bin":"bin:0","woe":-0.5},{"bin":"raw:3","woe":1.25},{"bin":"cat:UK","woe":0}]`, string(data))

	var out []entry
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var bad entry
	assert.Error(t, json.Unmarshal([]byte(`{"bin":"nope"}`), &bad))
}
