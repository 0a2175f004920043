package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/pkg/logging"
)

// SelectStage 在全量数据上计算 IV 并筛选 iv > Threshold 的特征
type SelectStage struct {
	Threshold  float64
	BinOptions []feature.BinOption
}

func (s *SelectStage) Name() string { return "feature.select" }
func (s *SelectStage) Kind() Kind   { return KindTransform }

func (s *SelectStage) Run(ctx context.Context, st *State) error {
	if st.Table == nil || st.Target == nil {
		return missing(s.Name(), "feature table and target")
	}
	reports, err := feature.RankReports(st.Table, st.Target, s.BinOptions...)
	if err != nil {
		return err
	}
	scores := feature.ReportScores(reports)
	selected := feature.SelectFeatures(scores, s.Threshold)
	for _, sc := range scores {
		logging.Info().Str("feature", sc.Feature).Float64("iv", sc.IV).Msg("information value")
	}
	if len(selected) == 0 {
		return core.InvalidInput(core.ModulePipeline, "%s: no feature has iv above %v", s.Name(), s.Threshold)
	}
	st.IVScores = scores
	st.IVReports = reports
	st.Selected = selected
	return nil
}

// SplitStage 分层划分训练集/测试集；已筛选特征时只保留被选中的列
type SplitStage struct {
	TestRatio float64
	Seed      uint64
}

func (s *SplitStage) Name() string { return "feature.split" }
func (s *SplitStage) Kind() Kind   { return KindTransform }

func (s *SplitStage) Run(ctx context.Context, st *State) error {
	if st.Table == nil || st.Target == nil {
		return missing(s.Name(), "feature table and target")
	}
	x := st.Table
	if len(st.Selected) > 0 {
		var err error
		if x, err = x.Select(st.Selected...); err != nil {
			return err
		}
	}
	split, err := feature.StratifiedSplit(x, st.Target, s.TestRatio, s.Seed)
	if err != nil {
		return err
	}
	logging.Info().
		Int("train", split.XTrain.Rows()).
		Int("test", split.XTest.Rows()).
		Msg("train/test split")
	st.Split = split
	return nil
}

// EncodeStage 在训练集上拟合 WOE 编码器，并发变换训练集与测试集
type EncodeStage struct {
	BinOptions []feature.BinOption
}

func (s *EncodeStage) Name() string { return "feature.encode" }
func (s *EncodeStage) Kind() Kind   { return KindTransform }

func (s *EncodeStage) Run(ctx context.Context, st *State) error {
	if st.Split == nil {
		return missing(s.Name(), "train/test split")
	}
	enc := feature.NewWOEEncoder(feature.WithBinOptions(s.BinOptions...))
	if err := enc.Fit(st.Split.XTrain, st.Split.YTrain); err != nil {
		return err
	}

	// Fit 之后 Transform 只读，可并发
	var train, test *core.FeatureTable
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		train, err = enc.Transform(st.Split.XTrain)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		test, err = enc.Transform(st.Split.XTest)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st.Encoder = enc
	st.TrainEncoded = train
	st.TestEncoded = test
	return nil
}
