// Package rfm 将原始交易聚合为每个客户的 Recency / Frequency / Monetary 特征，
// 并根据规则生成高风险代理标签。
package rfm

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/logging"
)

// Options 聚合选项
type Options struct {
	// Snapshot 计算 Recency 的参考时间；零值表示使用最大交易时间 + 1 天
	Snapshot time.Time
}

// Option 聚合选项函数
type Option func(*Options)

// WithSnapshot 指定快照时间
func WithSnapshot(t time.Time) Option {
	return func(o *Options) { o.Snapshot = t }
}

type customerAgg struct {
	last     time.Time
	invoices map[string]struct{}
	monetary float64
}

// Aggregate 按客户聚合交易：
//   - Recency：快照时间与客户最后一次交易之间的整天数（向下取整）
//   - Frequency：不同发票号的数量
//   - Monetary：金额合计
//
// 结果每个客户一行，按客户 ID 排序（全为数字的 ID 按数值排序）。
func Aggregate(txns []core.Transaction, opts ...Option) ([]core.RFMRecord, error) {
	if len(txns) == 0 {
		return nil, core.InvalidInput(core.ModuleRFM, "rfm: no transactions")
	}
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}

	aggs := make(map[string]*customerAgg)
	var maxDate time.Time
	for i, t := range txns {
		if t.CustomerID == "" {
			return nil, core.InvalidInput(core.ModuleRFM, "rfm: transaction %d has empty customer id", i)
		}
		if t.InvoiceDate.IsZero() {
			return nil, core.InvalidInput(core.ModuleRFM, "rfm: transaction %d has no invoice date", i)
		}
		if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
			return nil, core.InvalidInput(core.ModuleRFM, "rfm: transaction %d has invalid amount", i)
		}

		a := aggs[t.CustomerID]
		if a == nil {
			a = &customerAgg{invoices: make(map[string]struct{})}
			aggs[t.CustomerID] = a
		}
		if t.InvoiceDate.After(a.last) {
			a.last = t.InvoiceDate
		}
		a.invoices[t.InvoiceNo] = struct{}{}
		a.monetary += t.Amount

		if t.InvoiceDate.After(maxDate) {
			maxDate = t.InvoiceDate
		}
	}

	snapshot := o.Snapshot
	if snapshot.IsZero() {
		snapshot = maxDate.AddDate(0, 0, 1)
	}

	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sortCustomerIDs(ids)

	records := make([]core.RFMRecord, 0, len(ids))
	for _, id := range ids {
		a := aggs[id]
		records = append(records, core.RFMRecord{
			CustomerID: id,
			Recency:    math.Floor(snapshot.Sub(a.last).Hours() / 24),
			Frequency:  float64(len(a.invoices)),
			Monetary:   a.monetary,
		})
	}

	logging.Info().
		Int("transactions", len(txns)).
		Int("customers", len(records)).
		Time("snapshot", snapshot).
		Msg("rfm aggregated")
	return records, nil
}

// sortCustomerIDs 全为整数时按数值排序，否则按字典序
func sortCustomerIDs(ids []string) {
	nums := make(map[string]int64, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			sort.Strings(ids)
			return
		}
		nums[id] = n
	}
	sort.Slice(ids, func(i, j int) bool { return nums[ids[i]] < nums[ids[j]] })
}

// ToTable 将 RFM 记录转为特征表（列：recency, frequency, monetary）
func ToTable(records []core.RFMRecord) (*core.FeatureTable, error) {
	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, r := range records {
		recency[i] = r.Recency
		frequency[i] = r.Frequency
		monetary[i] = r.Monetary
	}
	return core.NewFeatureTable(
		core.NumericColumn(core.FeatureRecency, recency),
		core.NumericColumn(core.FeatureFrequency, frequency),
		core.NumericColumn(core.FeatureMonetary, monetary),
	)
}

// CustomerIDs 返回记录中的客户 ID（保持顺序）
func CustomerIDs(records []core.RFMRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.CustomerID
	}
	return ids
}
