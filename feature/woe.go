package feature

import (
	"math"
	"sort"

	"github.com/rushteam/riskit/core"
)

// Epsilon 平滑项，避免空箱导致除零或 ln(0)
const Epsilon = 1e-6

// BinStat 单个分箱的列联统计。Good 对应 target=0，Bad 对应 target=1。
type BinStat struct {
	Bin      core.Bin `json:"bin"`
	Good     int      `json:"good"`
	Bad      int      `json:"bad"`
	GoodRate float64  `json:"good_rate"`
	BadRate  float64  `json:"bad_rate"`
	WOE      float64  `json:"woe"`
	IV       float64  `json:"iv"`
}

// WOETable 是只读的 分箱 -> WOE 映射，拟合后不再修改。
type WOETable struct {
	woe  map[core.Bin]float64
	bins []core.Bin
}

// NewWOETable 由映射创建 WOE 表（会复制输入）
func NewWOETable(m map[core.Bin]float64) *WOETable {
	t := &WOETable{
		woe:  make(map[core.Bin]float64, len(m)),
		bins: make([]core.Bin, 0, len(m)),
	}
	for b, w := range m {
		t.woe[b] = w
		t.bins = append(t.bins, b)
	}
	sort.Slice(t.bins, func(i, j int) bool { return t.bins[i].Less(t.bins[j]) })
	return t
}

// Lookup 查询分箱的 WOE 值，未见过的分箱返回 false
func (t *WOETable) Lookup(b core.Bin) (float64, bool) {
	if t == nil {
		return 0, false
	}
	w, ok := t.woe[b]
	return w, ok
}

// Bins 返回所有分箱（有序副本）
func (t *WOETable) Bins() []core.Bin {
	if t == nil {
		return nil
	}
	return append([]core.Bin(nil), t.bins...)
}

// Len 返回分箱数量
func (t *WOETable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bins)
}

// Map 返回映射副本
func (t *WOETable) Map() map[core.Bin]float64 {
	m := make(map[core.Bin]float64, t.Len())
	if t == nil {
		return m
	}
	for b, w := range t.woe {
		m[b] = w
	}
	return m
}

// WOEResult 是 ComputeWOEIV 的结果
type WOEResult struct {
	Table *WOETable
	IV    float64
	Stats []BinStat // 按分箱顺序
}

// ComputeWOEIV 根据分箱与二值 target 计算每个分箱的 WOE 及整体 IV：
//
//	goodRate = (good + ε) / (Σgood + ε)
//	badRate  = (bad  + ε) / (Σbad  + ε)
//	woe      = ln(goodRate / badRate)
//	iv       = Σ (goodRate - badRate) * woe
//
// 缺失分箱不参与统计。IV 理论上非负，浮点抵消产生的负值截断为 0。
func ComputeWOEIV(bins []core.Bin, target []int) (*WOEResult, error) {
	if len(bins) == 0 {
		return nil, core.InvalidInput(core.ModuleFeature, "woe: empty input")
	}
	if err := core.ValidateTarget(target, len(bins)); err != nil {
		return nil, err
	}

	type counts struct{ good, bad int }
	table := make(map[core.Bin]*counts)
	totalGood, totalBad := 0, 0
	for i, b := range bins {
		if b.IsMissing() {
			continue
		}
		c := table[b]
		if c == nil {
			c = &counts{}
			table[b] = c
		}
		if target[i] == 0 {
			c.good++
			totalGood++
		} else {
			c.bad++
			totalBad++
		}
	}
	if len(table) == 0 {
		return nil, core.InvalidInput(core.ModuleFeature, "woe: all %d rows are missing", len(bins))
	}

	order := make([]core.Bin, 0, len(table))
	for b := range table {
		order = append(order, b)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })

	woe := make(map[core.Bin]float64, len(order))
	stats := make([]BinStat, 0, len(order))
	iv := 0.0
	for _, b := range order {
		c := table[b]
		goodRate := (float64(c.good) + Epsilon) / (float64(totalGood) + Epsilon)
		badRate := (float64(c.bad) + Epsilon) / (float64(totalBad) + Epsilon)
		w := math.Log(goodRate / badRate)
		contrib := (goodRate - badRate) * w
		iv += contrib
		woe[b] = w
		stats = append(stats, BinStat{
			Bin:      b,
			Good:     c.good,
			Bad:      c.bad,
			GoodRate: goodRate,
			BadRate:  badRate,
			WOE:      w,
			IV:       contrib,
		})
	}
	if iv < 0 {
		iv = 0
	}

	return &WOEResult{Table: NewWOETable(woe), IV: iv, Stats: stats}, nil
}
