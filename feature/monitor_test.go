package feature

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

func TestMemoryEncodingMonitor(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryEncodingMonitor(2)

	_, err := m.Stats(ctx, "recency")
	assert.True(t, core.IsNotFound(err))

	m.RecordInput(ctx, "recency", 10)
	m.RecordInput(ctx, "recency", 20)
	m.RecordInput(ctx, "recency", 30)
	m.RecordEncoded(ctx, "recency", 0.5)
	m.RecordUnknown(ctx, "recency")

	stats, err := m.Stats(ctx, "recency")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.UsageCount)
	assert.Equal(t, int64(1), stats.UnknownCount)
	assert.InDelta(t, 1.0/3, stats.UnknownRate, 1e-12)
	// 只保留最近 2 个样本
	assert.Equal(t, 2, stats.Input.Count)
	assert.Equal(t, 20.0, stats.Input.Min)
	assert.Equal(t, 1, stats.WOE.Count)
	assert.False(t, stats.LastUpdateTime.IsZero())
}

func TestMemoryEncodingMonitor_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryEncodingMonitor(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordInput(ctx, "monetary", float64(j))
				m.RecordEncoded(ctx, "monetary", 0.1)
			}
		}()
	}
	wg.Wait()

	stats, err := m.Stats(ctx, "monetary")
	require.NoError(t, err)
	assert.Equal(t, int64(800), stats.UsageCount)
	assert.Equal(t, 800, stats.Input.Count)
}
