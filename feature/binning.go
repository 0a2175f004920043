package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/logging"
)

// 分箱默认参数
const (
	DefaultMaxUniqueThreshold = 10 // 不同取值数 <= 该值时不做分位数分箱
	DefaultQuantileCount      = 5  // 分位数分箱的目标箱数
)

// BinStatus 描述一次分箱的结果类型
type BinStatus int

const (
	BinStatusBinned      BinStatus = iota // 分位数分箱成功
	BinStatusPassThrough                  // 不同取值较少，直接使用原始值
	BinStatusDegenerate                   // 分位点无法区分，降级为原始值
	BinStatusFailed                       // 切分点回放失败，全部为缺失
)

func (s BinStatus) String() string {
	switch s {
	case BinStatusBinned:
		return "binned"
	case BinStatusPassThrough:
		return "pass_through"
	case BinStatusDegenerate:
		return "degenerate"
	case BinStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText 使 BinStatus 以名称序列化（IV 报告、日志）
func (s BinStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *BinStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseBinStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// BinConfig 分箱配置
type BinConfig struct {
	MaxUniqueThreshold int
	QuantileCount      int
	Feature            string // 仅用于日志
}

// BinOption 分箱选项
type BinOption func(*BinConfig)

// WithMaxUnique 设置不分箱的不同取值数阈值
func WithMaxUnique(n int) BinOption {
	return func(c *BinConfig) { c.MaxUniqueThreshold = n }
}

// WithQuantiles 设置分位数箱数
func WithQuantiles(q int) BinOption {
	return func(c *BinConfig) { c.QuantileCount = q }
}

// WithFeatureName 设置日志中的特征名
func WithFeatureName(name string) BinOption {
	return func(c *BinConfig) { c.Feature = name }
}

func newBinConfig(opts []BinOption) BinConfig {
	cfg := BinConfig{
		MaxUniqueThreshold: DefaultMaxUniqueThreshold,
		QuantileCount:      DefaultQuantileCount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.QuantileCount < 1 {
		cfg.QuantileCount = 1
	}
	return cfg
}

// BinResult 分箱结果。Edges 为 nil 表示未分箱（原始值直通）。
type BinResult struct {
	Bins   []core.Bin
	Edges  []float64
	Status BinStatus
	Err    error // Degenerate / Failed 时携带原因，不影响调用方继续
}

// ComputeBins 对数值列做等频分箱。
//
//   - 不同取值数（不含 NaN）<= MaxUniqueThreshold：原始值直通
//   - 否则计算 QuantileCount+1 个分位点（线性插值），去重后按 (e[i], e[i+1]] 分配，最低箱包含左端点
//   - 分位点只由有限值计算，±Inf 按越界值归入首/末箱
//   - 去重后不足 2 个分位点：降级为原始值直通，Status=BinStatusDegenerate
//   - NaN 分配为缺失分箱
func ComputeBins(values []float64, opts ...BinOption) BinResult {
	cfg := newBinConfig(opts)

	if distinctCount(values) <= cfg.MaxUniqueThreshold {
		return passThrough(values, BinStatusPassThrough, nil)
	}

	sorted := sortedFinite(values)
	edges := make([]float64, 0, cfg.QuantileCount+1)
	for k := 0; k <= cfg.QuantileCount; k++ {
		edge := Percentile(sorted, float64(k)/float64(cfg.QuantileCount))
		if len(edges) > 0 && edge <= edges[len(edges)-1] {
			continue
		}
		edges = append(edges, edge)
	}

	// 拟合得到的切分点必须能被 ApplyBins 原样回放
	if err := validateEdges(edges); err != nil {
		derr := core.WrapDomainError(core.ModuleFeature, core.ErrorCodeBinningDegenerate, err,
			"feature: cannot create %d quantile bins, using raw values", cfg.QuantileCount)
		logging.Warn().
			Str("feature", cfg.Feature).
			Int("quantiles", cfg.QuantileCount).
			Err(err).
			Msg("quantile binning degenerate, falling back to raw values")
		return passThrough(values, BinStatusDegenerate, derr)
	}

	return BinResult{
		Bins:   assignBins(values, edges),
		Edges:  edges,
		Status: BinStatusBinned,
	}
}

// ApplyBins 使用已有切分点回放分箱。
// edges 为空表示拟合时未分箱，原始值直通；超出边界的值归入首/末箱；
// 切分点不合法时所有值为缺失分箱，Status=BinStatusFailed。
func ApplyBins(values []float64, edges []float64, opts ...BinOption) BinResult {
	if len(edges) == 0 {
		return passThrough(values, BinStatusPassThrough, nil)
	}
	if err := validateEdges(edges); err != nil {
		cfg := newBinConfig(opts)
		logging.Warn().
			Str("feature", cfg.Feature).
			Err(err).
			Msg("cannot apply bin edges, values left unassigned")
		bins := make([]core.Bin, len(values))
		for i := range bins {
			bins[i] = core.MissingBin()
		}
		return BinResult{Bins: bins, Edges: append([]float64(nil), edges...), Status: BinStatusFailed, Err: err}
	}
	return BinResult{
		Bins:   assignBins(values, edges),
		Edges:  append([]float64(nil), edges...),
		Status: BinStatusBinned,
	}
}

// CategoricalBins 将类别值映射为分箱，空字符串视为缺失。
func CategoricalBins(values []string) []core.Bin {
	bins := make([]core.Bin, len(values))
	for i, v := range values {
		if v == "" {
			bins[i] = core.MissingBin()
			continue
		}
		bins[i] = core.CategoryBin(v)
	}
	return bins
}

// BinValue 对单个值做分箱，与 ApplyBins 语义一致（在线单条打分使用）。
func BinValue(v float64, edges []float64) (core.Bin, error) {
	if len(edges) == 0 {
		return core.RawBin(v), nil
	}
	if err := validateEdges(edges); err != nil {
		return core.MissingBin(), err
	}
	return assignBin(v, edges), nil
}

func passThrough(values []float64, status BinStatus, err error) BinResult {
	bins := make([]core.Bin, len(values))
	for i, v := range values {
		bins[i] = core.RawBin(v)
	}
	return BinResult{Bins: bins, Status: status, Err: err}
}

func assignBins(values []float64, edges []float64) []core.Bin {
	bins := make([]core.Bin, len(values))
	for i, v := range values {
		bins[i] = assignBin(v, edges)
	}
	return bins
}

// assignBin 区间为 (e[i], e[i+1]]，e[0] 归入第 0 箱，越界值截断到首/末箱
func assignBin(v float64, edges []float64) core.Bin {
	if math.IsNaN(v) {
		return core.MissingBin()
	}
	last := len(edges) - 2
	idx := sort.SearchFloat64s(edges, v) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > last {
		idx = last
	}
	return core.IndexBin(idx)
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return core.InvalidInput(core.ModuleFeature, "bin edges need at least 2 values, got %d", len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return core.InvalidInput(core.ModuleFeature, "bin edge %d is not finite: %v", i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return core.InvalidInput(core.ModuleFeature, "bin edges not strictly increasing at %d", i)
		}
	}
	return nil
}
