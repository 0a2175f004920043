package builders

import (
	"fmt"

	"github.com/rushteam/riskit/config"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/pipeline"
	"github.com/rushteam/riskit/pkg/conv"
	"github.com/rushteam/riskit/rfm"
)

func init() {
	config.Register("rfm.load", BuildLoadStage)
	config.Register("rfm.aggregate", BuildAggregateStage)
	config.Register("rfm.label", BuildLabelStage)
	config.Register("feature.select", BuildSelectStage)
	config.Register("feature.split", BuildSplitStage)
	config.Register("feature.encode", BuildEncodeStage)
	config.Register("persist.tables", BuildTablesStage)
	config.Register("persist.artifact", BuildArtifactStage)
	config.Register("persist.iv", BuildIVStage)
	config.Register("persist.online", BuildOnlineStage)
}

func BuildLoadStage(cfg map[string]any) (pipeline.Stage, error) {
	path := conv.ConfigGet(cfg, "path", "")
	if path == "" {
		return nil, fmt.Errorf("path not found")
	}
	return &pipeline.LoadStage{Path: path}, nil
}

func BuildAggregateStage(cfg map[string]any) (pipeline.Stage, error) {
	stage := &pipeline.AggregateStage{}
	if s := conv.ConfigGet(cfg, "snapshot", ""); s != "" {
		t, err := rfm.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot: %w", err)
		}
		stage.Snapshot = t
	}
	return stage, nil
}

func BuildLabelStage(cfg map[string]any) (pipeline.Stage, error) {
	rule := conv.ConfigGet(cfg, "rule", "")
	// 提前编译，配置错误在构建期暴露
	if _, err := rfm.NewLabeler(rule); err != nil {
		return nil, err
	}
	return &pipeline.LabelStage{Rule: rule}, nil
}

// binOptions 读取分箱配置：max_unique、quantiles
func binOptions(cfg map[string]any) []feature.BinOption {
	var opts []feature.BinOption
	if n := conv.ConfigGetInt64(cfg, "max_unique", 0); n > 0 {
		opts = append(opts, feature.WithMaxUnique(int(n)))
	}
	if q := conv.ConfigGetInt64(cfg, "quantiles", 0); q > 0 {
		opts = append(opts, feature.WithQuantiles(int(q)))
	}
	return opts
}

func BuildSelectStage(cfg map[string]any) (pipeline.Stage, error) {
	threshold := conv.ConfigGetFloat64(cfg, "threshold", feature.DefaultIVThreshold)
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must be >= 0")
	}
	return &pipeline.SelectStage{Threshold: threshold, BinOptions: binOptions(cfg)}, nil
}

func BuildSplitStage(cfg map[string]any) (pipeline.Stage, error) {
	ratio := conv.ConfigGetFloat64(cfg, "test_ratio", 0.2)
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("test_ratio %v not in (0, 1)", ratio)
	}
	seed := conv.ConfigGetInt64(cfg, "seed", feature.DefaultSplitSeed)
	return &pipeline.SplitStage{TestRatio: ratio, Seed: uint64(seed)}, nil
}

func BuildEncodeStage(cfg map[string]any) (pipeline.Stage, error) {
	return &pipeline.EncodeStage{BinOptions: binOptions(cfg)}, nil
}

func BuildTablesStage(cfg map[string]any) (pipeline.Stage, error) {
	return &pipeline.TablesStage{Dir: conv.ConfigGet(cfg, "dir", "model")}, nil
}

func BuildArtifactStage(cfg map[string]any) (pipeline.Stage, error) {
	return &pipeline.ArtifactStage{
		Path: conv.ConfigGet(cfg, "path", ""),
		Key:  conv.ConfigGet(cfg, "key", feature.DefaultArtifactKey),
	}, nil
}

func BuildIVStage(cfg map[string]any) (pipeline.Stage, error) {
	return &pipeline.IVStage{Key: conv.ConfigGet(cfg, "key", pipeline.DefaultIVKey)}, nil
}

func BuildOnlineStage(cfg map[string]any) (pipeline.Stage, error) {
	ttl := conv.ConfigGetInt64(cfg, "ttl", 0)
	if ttl < 0 {
		return nil, fmt.Errorf("ttl must be >= 0")
	}
	return &pipeline.OnlineStage{
		Prefix: conv.ConfigGet(cfg, "prefix", feature.DefaultCustomerKeyPrefix),
		TTL:    int(ttl),
	}, nil
}
