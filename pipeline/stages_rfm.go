package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rushteam/riskit/rfm"
)

// LoadStage 从 CSV 读取原始交易
type LoadStage struct {
	Path string
}

func (s *LoadStage) Name() string { return "rfm.load" }
func (s *LoadStage) Kind() Kind   { return KindLoad }

func (s *LoadStage) Run(ctx context.Context, st *State) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open transactions: %w", err)
	}
	defer f.Close()

	txns, err := rfm.ReadTransactionsCSV(f)
	if err != nil {
		return err
	}
	st.Transactions = txns
	return nil
}

// AggregateStage 按客户聚合 RFM 特征，Snapshot 为零值时取最大交易时间 + 1 天
type AggregateStage struct {
	Snapshot time.Time
}

func (s *AggregateStage) Name() string { return "rfm.aggregate" }
func (s *AggregateStage) Kind() Kind   { return KindTransform }

func (s *AggregateStage) Run(ctx context.Context, st *State) error {
	if len(st.Transactions) == 0 {
		return missing(s.Name(), "transactions")
	}
	var opts []rfm.Option
	if !s.Snapshot.IsZero() {
		opts = append(opts, rfm.WithSnapshot(s.Snapshot))
	}
	records, err := rfm.Aggregate(st.Transactions, opts...)
	if err != nil {
		return err
	}
	table, err := rfm.ToTable(records)
	if err != nil {
		return err
	}
	st.Records = records
	st.Table = table
	return nil
}

// LabelStage 用规则生成高风险代理标签
type LabelStage struct {
	Rule string
}

func (s *LabelStage) Name() string { return "rfm.label" }
func (s *LabelStage) Kind() Kind   { return KindTransform }

func (s *LabelStage) Run(ctx context.Context, st *State) error {
	if len(st.Records) == 0 {
		return missing(s.Name(), "rfm records")
	}
	labeler, err := rfm.NewLabeler(s.Rule)
	if err != nil {
		return err
	}
	target, err := labeler.Label(st.Records)
	if err != nil {
		return err
	}
	st.Target = target
	return nil
}
