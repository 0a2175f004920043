package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })

	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})

	Info().Msg("dropped")
	Warn().Str("feature", "recency").Msg("degenerate")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"feature":"recency"`)
	assert.Contains(t, out, `"level":"warn"`)
}
