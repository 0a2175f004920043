package feature

import (
	"fmt"
	"sort"

	"github.com/rushteam/riskit/core"
)

// DefaultIVThreshold 默认 IV 筛选阈值
const DefaultIVThreshold = 0.02

// IVReport 单个特征的 IV 计算结果
type IVReport struct {
	Feature string    `json:"feature"`
	IV      float64   `json:"iv"`
	Status  BinStatus `json:"status"`
	Edges   []float64 `json:"edges,omitempty"`
	Stats   []BinStat `json:"stats"`
}

// ComputeIV 对单列做分箱并计算 IV（类别列直接按类别统计）。
func ComputeIV(col *core.Column, target []int, opts ...BinOption) (*IVReport, error) {
	if col == nil {
		return nil, core.InvalidInput(core.ModuleFeature, "compute iv: nil column")
	}

	report := &IVReport{Feature: col.Name}
	var bins []core.Bin
	switch col.Kind {
	case core.KindNumeric:
		res := ComputeBins(col.Numeric, append(append([]BinOption(nil), opts...), WithFeatureName(col.Name))...)
		bins = res.Bins
		report.Status = res.Status
		report.Edges = res.Edges
	case core.KindCategorical:
		bins = CategoricalBins(col.Categorical)
		report.Status = BinStatusPassThrough
	default:
		return nil, core.InvalidInput(core.ModuleFeature, "compute iv: column %q has kind %s", col.Name, col.Kind)
	}

	res, err := ComputeWOEIV(bins, target)
	if err != nil {
		return nil, fmt.Errorf("compute iv for %q: %w", col.Name, err)
	}
	report.IV = res.IV
	report.Stats = res.Stats
	return report, nil
}

// RankFeatures 计算每列的 IV 并按 IV 降序排列（同值保持声明顺序）。
func RankFeatures(x *core.FeatureTable, y []int, opts ...BinOption) (core.IVScores, error) {
	reports, err := RankReports(x, y, opts...)
	if err != nil {
		return nil, err
	}
	return ReportScores(reports), nil
}

// RankReports 与 RankFeatures 相同，但保留每个特征的分箱明细。
func RankReports(x *core.FeatureTable, y []int, opts ...BinOption) ([]*IVReport, error) {
	if x == nil || x.Rows() == 0 {
		return nil, core.InvalidInput(core.ModuleFeature, "rank features: empty feature table")
	}
	reports := make([]*IVReport, 0, len(x.Names()))
	for _, col := range x.Columns() {
		report, err := ComputeIV(col, y, opts...)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].IV > reports[j].IV })
	return reports, nil
}

// ReportScores 提取 IV 报告中的 (feature, iv)，顺序不变
func ReportScores(reports []*IVReport) core.IVScores {
	scores := make(core.IVScores, len(reports))
	for i, r := range reports {
		scores[i] = core.IVScore{Feature: r.Feature, IV: r.IV}
	}
	return scores
}

// SelectFeatures 返回 IV 严格大于 threshold 的特征，按 IV 降序，同值保持输入顺序。
func SelectFeatures(scores core.IVScores, threshold float64) []string {
	kept := make(core.IVScores, 0, len(scores))
	for _, s := range scores {
		if s.IV > threshold {
			kept = append(kept, s)
		}
	}
	sortByIV(kept)
	return kept.Features()
}

func sortByIV(scores core.IVScores) {
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].IV > scores[j].IV })
}
