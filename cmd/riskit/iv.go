package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/pipeline"
	"github.com/rushteam/riskit/store"
)

func newIVCmd(a *app) *cobra.Command {
	var (
		transactions string
		threshold    float64
		format       string
		key          string
		only         string
		fromStore    bool
		bins         bool
	)
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Rank RFM features by Information Value",
		Long: `Compute the IV ranking from a transactions file, or read the ranking that
"riskit train" persisted (--from-store). --bins adds the per-bin good/bad
counts and WOE values; --feature limits the bin detail to one feature.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("transactions") {
				transactions = a.cfg.Train.Transactions
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Train.IVThreshold
			}
			if only != "" {
				bins = true
			}

			var (
				scores  core.IVScores
				reports []*feature.IVReport
				err     error
			)
			if fromStore {
				scores, reports, err = loadRanking(cmd.Context(), a.cfg.Store, key, only, bins)
			} else {
				reports, err = rankTransactions(cmd.Context(), transactions, a.cfg.Train.LabelRule, a.cfg.Train.BinOptions())
				scores = feature.ReportScores(reports)
				reports = filterReports(reports, only, bins)
			}
			if err != nil {
				return err
			}
			return renderIV(cmd.OutOrStdout(), scores, reports, feature.SelectFeatures(scores, threshold), threshold, format)
		},
	}
	cmd.Flags().StringVar(&transactions, "transactions", "", "transactions csv")
	cmd.Flags().Float64Var(&threshold, "threshold", feature.DefaultIVThreshold, "selection threshold (iv > threshold)")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json)")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "read the ranking persisted by train instead of recomputing it")
	cmd.Flags().StringVar(&key, "key", pipeline.DefaultIVKey, "store key of the ranking")
	cmd.Flags().BoolVar(&bins, "bins", false, "show per-bin counts and WOE")
	cmd.Flags().StringVar(&only, "feature", "", "show bins of this feature only")
	return cmd
}

// rankTransactions 复用流水线的前三个阶段，再在全量数据上计算 IV
func rankTransactions(ctx context.Context, path, rule string, opts []feature.BinOption) ([]*feature.IVReport, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	p := &pipeline.Pipeline{
		Name: "iv_report",
		Stages: []pipeline.Stage{
			&pipeline.LoadStage{Path: path},
			&pipeline.AggregateStage{},
			&pipeline.LabelStage{Rule: rule},
		},
	}
	st := &pipeline.State{}
	if err := p.Run(ctx, st); err != nil {
		return nil, err
	}
	return feature.RankReports(st.Table, st.Target, opts...)
}

// loadRanking 从存储读取训练时写入的 IV 排行及分箱明细
func loadRanking(ctx context.Context, cfg store.Config, key, only string, bins bool) (core.IVScores, []*feature.IVReport, error) {
	s, err := store.NewStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	return readRanking(ctx, s, key, only, bins)
}

func readRanking(ctx context.Context, s core.Store, key, only string, bins bool) (core.IVScores, []*feature.IVReport, error) {
	scores, err := feature.LoadIVScores(ctx, s, key)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case only != "":
		r, err := feature.LoadIVReport(ctx, s, key, only)
		if err != nil {
			return nil, nil, err
		}
		return scores, []*feature.IVReport{r}, nil
	case bins:
		reports, err := feature.LoadIVReports(ctx, s, key)
		if err != nil {
			return nil, nil, err
		}
		return scores, reports, nil
	default:
		return scores, nil, nil
	}
}

// filterReports 按 --bins / --feature 取需要展示的分箱明细
func filterReports(reports []*feature.IVReport, only string, bins bool) []*feature.IVReport {
	if !bins {
		return nil
	}
	if only == "" {
		return reports
	}
	for _, r := range reports {
		if r.Feature == only {
			return []*feature.IVReport{r}
		}
	}
	return []*feature.IVReport{}
}
