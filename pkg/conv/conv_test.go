package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{float32(2), 2, true},
		{3, 3, true},
		{int64(4), 4, true},
		{int32(5), 5, true},
		{true, 1, true},
		{false, 0, true},
		{"6", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"path": "tx.csv", "n": 3, "f": 0.5, "ok": true, "s": "x"}

	assert.Equal(t, "tx.csv", ConfigGet(m, "path", ""))
	assert.Equal(t, "d", ConfigGet(m, "n", "d"))
	assert.Equal(t, "d", ConfigGet[string](nil, "path", "d"))

	assert.Equal(t, int64(3), ConfigGetInt64(m, "n", 0))
	assert.Equal(t, int64(0), ConfigGetInt64(m, "f", 9))
	assert.Equal(t, int64(9), ConfigGetInt64(m, "s", 9))
	assert.Equal(t, int64(9), ConfigGetInt64(m, "missing", 9))

	assert.Equal(t, 0.5, ConfigGetFloat64(m, "f", 1))
	assert.Equal(t, 3.0, ConfigGetFloat64(m, "n", 1))
	assert.Equal(t, 1.0, ConfigGetFloat64(m, "ok", 1))
	assert.Equal(t, 1.0, ConfigGetFloat64(m, "s", 1))
	assert.Equal(t, 1.0, ConfigGetFloat64(nil, "f", 1))
}
