package feature

import (
	"math"
	"sort"
)

// FeatureStatistics 特征统计信息
type FeatureStatistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// ComputeStatistics 计算特征统计信息（忽略 NaN 与 ±Inf）
func ComputeStatistics(values []float64) *FeatureStatistics {
	sorted := sortedFinite(values)
	if len(sorted) == 0 {
		return &FeatureStatistics{}
	}

	stats := &FeatureStatistics{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	// 计算均值
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	stats.Mean = sum / float64(len(sorted))

	// 计算标准差（总体）
	variance := 0.0
	for _, v := range sorted {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(sorted)))

	// 计算分位数
	stats.Median = Percentile(sorted, 0.5)
	stats.P25 = Percentile(sorted, 0.25)
	stats.P75 = Percentile(sorted, 0.75)
	stats.P95 = Percentile(sorted, 0.95)
	stats.P99 = Percentile(sorted, 0.99)

	return stats
}

// Percentile 计算已排序数据的分位数，在相邻次序统计量之间线性插值：
// index = p*(n-1)，结果为 sorted[floor] 与 sorted[floor+1] 的加权平均。
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// sortedFinite 复制有限值（去掉 NaN 与 ±Inf）并升序排序
func sortedFinite(values []float64) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return sorted
}

// distinctCount 统计非 NaN 的不同取值个数
func distinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v == 0 {
			v = 0
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
