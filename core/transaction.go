package core

import "time"

// Transaction 是一条原始交易记录，RFM 聚合的输入。
type Transaction struct {
	CustomerID  string
	InvoiceDate time.Time
	InvoiceNo   string
	Amount      float64
}

// RFMRecord 是单个客户的 Recency/Frequency/Monetary 汇总。
type RFMRecord struct {
	CustomerID string  `json:"customer_id"`
	Recency    float64 `json:"recency"`   // 距快照日的天数
	Frequency  float64 `json:"frequency"` // 不同发票号数量
	Monetary   float64 `json:"monetary"`  // 金额合计
}

// RFM 特征列名
const (
	FeatureRecency   = "recency"
	FeatureFrequency = "frequency"
	FeatureMonetary  = "monetary"
)

// RFMFeatures 返回 RFM 特征列名（声明顺序）
func RFMFeatures() []string {
	return []string{FeatureRecency, FeatureFrequency, FeatureMonetary}
}

// Features 以特征名为 key 返回数值
func (r RFMRecord) Features() map[string]float64 {
	return map[string]float64{
		FeatureRecency:   r.Recency,
		FeatureFrequency: r.Frequency,
		FeatureMonetary:  r.Monetary,
	}
}
