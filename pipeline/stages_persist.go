package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/pkg/logging"
	"github.com/rushteam/riskit/store"
)

// 训练产物文件名
const (
	TrainFeaturesFile = "features_train_woe.csv"
	TestFeaturesFile  = "features_test_woe.csv"
	TrainTargetFile   = "target_train.csv"
	TestTargetFile    = "target_test.csv"

	// TargetColumn target 文件的列名
	TargetColumn = "is_high_risk"
	// DefaultIVKey IV 排行的默认存储 key
	DefaultIVKey = "riskit:iv"
)

// TablesStage 将 WOE 编码后的训练集/测试集及 target 写为 CSV
type TablesStage struct {
	Dir string
}

func (s *TablesStage) Name() string { return "persist.tables" }
func (s *TablesStage) Kind() Kind   { return KindPersist }

func (s *TablesStage) Run(ctx context.Context, st *State) error {
	if st.Encoder == nil || st.TrainEncoded == nil || st.TestEncoded == nil {
		return missing(s.Name(), "encoded tables")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cols := make([]string, 0, len(st.Encoder.Columns()))
	for _, c := range st.Encoder.Columns() {
		cols = append(cols, feature.EncodedName(c))
	}
	for _, part := range []struct {
		table  *core.FeatureTable
		target []int
		xFile  string
		yFile  string
	}{
		{st.TrainEncoded, st.Split.YTrain, TrainFeaturesFile, TrainTargetFile},
		{st.TestEncoded, st.Split.YTest, TestFeaturesFile, TestTargetFile},
	} {
		encoded, err := part.table.Select(cols...)
		if err != nil {
			return err
		}
		xPath := filepath.Join(s.Dir, part.xFile)
		if err := store.WriteTableFile(xPath, encoded); err != nil {
			return fmt.Errorf("write %s: %w", xPath, err)
		}
		yPath := filepath.Join(s.Dir, part.yFile)
		if err := store.WriteTargetFile(yPath, TargetColumn, part.target); err != nil {
			return fmt.Errorf("write %s: %w", yPath, err)
		}
		st.addOutput(xPath)
		st.addOutput(yPath)
	}
	return nil
}

// ArtifactStage 导出编码器产物：写文件（Path）和/或写存储（Key）
type ArtifactStage struct {
	Path string
	Key  string
}

func (s *ArtifactStage) Name() string { return "persist.artifact" }
func (s *ArtifactStage) Kind() Kind   { return KindPersist }

func (s *ArtifactStage) Run(ctx context.Context, st *State) error {
	if st.Encoder == nil {
		return missing(s.Name(), "fitted encoder")
	}
	selected := st.Selected
	if len(selected) == 0 {
		selected = st.Encoder.Columns()
	}
	a, err := st.Encoder.Artifact(selected)
	if err != nil {
		return err
	}

	if s.Path != "" {
		data, err := feature.MarshalArtifact(a)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
		if err := os.WriteFile(s.Path, data, 0o644); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		st.addOutput(s.Path)
	}
	if st.Store != nil {
		key := s.Key
		if key == "" {
			key = feature.DefaultArtifactKey
		}
		if err := feature.SaveArtifact(ctx, st.Store, key, a); err != nil {
			return err
		}
		st.addOutput(st.Store.Name() + ":" + key)
	}
	return nil
}

// IVStage 将 IV 排行与分箱明细写入存储：支持有序集合时写 ZSet + Hash，否则写 JSON
type IVStage struct {
	Key string
}

func (s *IVStage) Name() string { return "persist.iv" }
func (s *IVStage) Kind() Kind   { return KindPersist }

func (s *IVStage) Run(ctx context.Context, st *State) error {
	if st.IVScores == nil {
		return missing(s.Name(), "iv scores")
	}
	if st.Store == nil {
		logging.Warn().Str("stage", s.Name()).Msg("no store configured, skip")
		return nil
	}
	key := s.Key
	if key == "" {
		key = DefaultIVKey
	}

	if err := feature.SaveIVRanking(ctx, st.Store, key, st.IVScores, st.IVReports); err != nil {
		return err
	}
	st.addOutput(st.Store.Name() + ":" + key)
	return nil
}

// OnlineStage 将客户 RFM 特征发布到存储，供在线打分按客户 ID 读取
type OnlineStage struct {
	Prefix string
	TTL    int // 秒，0 表示不过期
}

func (s *OnlineStage) Name() string { return "persist.online" }
func (s *OnlineStage) Kind() Kind   { return KindPersist }

func (s *OnlineStage) Run(ctx context.Context, st *State) error {
	if len(st.Records) == 0 {
		return missing(s.Name(), "rfm records")
	}
	if st.Store == nil {
		return core.InvalidInput(core.ModulePipeline, "%s: store is required", s.Name())
	}
	svc := feature.NewStoreFeatureService(st.Store, s.Prefix)
	var ttl []int
	if s.TTL > 0 {
		ttl = []int{s.TTL}
	}
	if err := svc.Publish(ctx, st.Records, ttl...); err != nil {
		return err
	}
	logging.Info().Int("customers", len(st.Records)).Str("store", st.Store.Name()).Msg("rfm features published")
	return nil
}
