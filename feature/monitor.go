package feature

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/riskit/core"
)

// EncodingMonitor 监控在线编码：输入分布、WOE 分布、未知分箱次数。
type EncodingMonitor interface {
	// RecordInput 记录原始输入值
	RecordInput(ctx context.Context, feature string, value float64)
	// RecordEncoded 记录编码后的 WOE 值
	RecordEncoded(ctx context.Context, feature string, woe float64)
	// RecordUnknown 记录一次训练期未出现的分箱
	RecordUnknown(ctx context.Context, feature string)
	// Stats 获取特征的监控统计
	Stats(ctx context.Context, feature string) (*EncodingStats, error)
}

// EncodingStats 特征编码统计
type EncodingStats struct {
	Feature        string             `json:"feature"`
	UsageCount     int64              `json:"usage_count"`
	UnknownCount   int64              `json:"unknown_count"`
	UnknownRate    float64            `json:"unknown_rate"`
	Input          *FeatureStatistics `json:"input"`
	WOE            *FeatureStatistics `json:"woe"`
	LastUpdateTime time.Time          `json:"last_update_time"`
}

type monitorEntry struct {
	usage   int64
	unknown int64
	inputs  []float64
	woes    []float64
	updated time.Time
}

// MemoryEncodingMonitor 是内存实现，每个特征保留最近 maxSamples 个样本。
// 生产环境可以同时导出 Prometheus 指标（见 service 包）。
type MemoryEncodingMonitor struct {
	mu         sync.RWMutex
	entries    map[string]*monitorEntry
	maxSamples int
}

var _ EncodingMonitor = (*MemoryEncodingMonitor)(nil)

// NewMemoryEncodingMonitor 创建内存编码监控
func NewMemoryEncodingMonitor(maxSamples int) *MemoryEncodingMonitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &MemoryEncodingMonitor{
		entries:    make(map[string]*monitorEntry),
		maxSamples: maxSamples,
	}
}

func (m *MemoryEncodingMonitor) entry(feature string) *monitorEntry {
	e := m.entries[feature]
	if e == nil {
		e = &monitorEntry{}
		m.entries[feature] = e
	}
	e.updated = time.Now()
	return e
}

func (m *MemoryEncodingMonitor) appendSample(samples []float64, v float64) []float64 {
	if len(samples) >= m.maxSamples {
		// 移除最旧的样本
		samples = samples[1:]
	}
	return append(samples, v)
}

func (m *MemoryEncodingMonitor) RecordInput(ctx context.Context, feature string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(feature)
	e.usage++
	e.inputs = m.appendSample(e.inputs, value)
}

func (m *MemoryEncodingMonitor) RecordEncoded(ctx context.Context, feature string, woe float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(feature)
	e.woes = m.appendSample(e.woes, woe)
}

func (m *MemoryEncodingMonitor) RecordUnknown(ctx context.Context, feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entry(feature).unknown++
}

func (m *MemoryEncodingMonitor) Stats(ctx context.Context, feature string) (*EncodingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[feature]
	if !ok {
		return nil, core.ErrFeatureNotFound
	}

	stats := &EncodingStats{
		Feature:        feature,
		UsageCount:     e.usage,
		UnknownCount:   e.unknown,
		Input:          ComputeStatistics(e.inputs),
		WOE:            ComputeStatistics(e.woes),
		LastUpdateTime: e.updated,
	}
	if e.usage > 0 {
		stats.UnknownRate = float64(e.unknown) / float64(e.usage)
	}
	return stats, nil
}
