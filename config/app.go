package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feast"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/model"
	"github.com/rushteam/riskit/pipeline"
	"github.com/rushteam/riskit/pkg/logging"
	"github.com/rushteam/riskit/pkg/validation"
	"github.com/rushteam/riskit/store"
)

// EnvPrefix 环境变量前缀，层级用双下划线分隔：
// RISKIT_SERVER__ADDR=:9000 -> server.addr
const EnvPrefix = "RISKIT_"

// 在线特征来源
const (
	OnlineNone  = "none"
	OnlineStore = "store"
	OnlineFeast = "feast"
)

// AppConfig 是 riskit 命令行与服务的全部配置
type AppConfig struct {
	Logging logging.Config `koanf:"logging"`
	Store   store.Config   `koanf:"store"`
	Model   model.Config   `koanf:"model"`
	Server  ServerConfig   `koanf:"server"`
	Train   TrainConfig    `koanf:"train"`
	Online  OnlineConfig   `koanf:"online"`
}

// ServerConfig 打分服务配置
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// ArtifactPath 编码器产物文件；为空时从 Store 的 ArtifactKey 读取
	ArtifactPath   string `koanf:"artifact_path"`
	ArtifactKey    string `koanf:"artifact_key"`
	MonitorSamples int    `koanf:"monitor_samples" validate:"gte=0"`
}

// TrainConfig 训练流水线配置
type TrainConfig struct {
	Transactions string `koanf:"transactions"`
	OutputDir    string `koanf:"output_dir" validate:"required"`
	// Pipeline 自定义流水线 YAML；为空时使用默认流程
	Pipeline    string  `koanf:"pipeline"`
	LabelRule   string  `koanf:"label_rule"`
	IVThreshold float64 `koanf:"iv_threshold" validate:"gte=0"`
	TestRatio   float64 `koanf:"test_ratio" validate:"gt=0,lt=1"`
	Seed        uint64  `koanf:"seed"`
	MaxUnique   int     `koanf:"max_unique" validate:"gte=0"`
	Quantiles   int     `koanf:"quantiles" validate:"gte=0"`
}

// OnlineConfig 在线特征来源配置
type OnlineConfig struct {
	Source    string      `koanf:"source" validate:"oneof=none store feast"`
	KeyPrefix string      `koanf:"key_prefix"`
	Feast     FeastConfig `koanf:"feast"`
}

// FeastConfig Feast Serving 连接配置
type FeastConfig struct {
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port" validate:"gte=0,lte=65535"`
	Project   string        `koanf:"project"`
	Token     string        `koanf:"token"`
	EnableTLS bool          `koanf:"enable_tls"`
	Timeout   time.Duration `koanf:"timeout"`

	View feast.FeatureServiceConfig `koanf:"view"`
}

// Default 返回默认配置
func Default() *AppConfig {
	cfg := &AppConfig{
		Logging: logging.Config{Level: "info", Format: "json"},
		Store: store.Config{
			Type:  store.TypeMemory,
			Redis: store.RedisConfig{Addr: "localhost:6379", DialTimeout: 5 * time.Second},
		},
		Model: model.Config{
			Type:      model.TypeLR,
			Path:      "model/lr_model.json",
			Timeout:   5 * time.Second,
			Threshold: model.DefaultThreshold,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			ArtifactPath:   "model/woe_encoder.json",
			ArtifactKey:    feature.DefaultArtifactKey,
			MonitorSamples: 1000,
		},
		Train: TrainConfig{
			Transactions: "data/transactions.csv",
			OutputDir:    "model",
			IVThreshold:  feature.DefaultIVThreshold,
			TestRatio:    0.2,
			Seed:         feature.DefaultSplitSeed,
			MaxUnique:    feature.DefaultMaxUniqueThreshold,
			Quantiles:    feature.DefaultQuantileCount,
		},
		Online: OnlineConfig{
			Source:    OnlineNone,
			KeyPrefix: feature.DefaultCustomerKeyPrefix,
			Feast: FeastConfig{
				Host:    "localhost",
				Port:    feast.DefaultGRPCPort,
				Timeout: 5 * time.Second,
			},
		},
	}
	cfg.Store.SQLite.Path = "riskit.db"
	return cfg
}

// Load 按优先级加载配置：默认值 < YAML 文件（path 非空时） < RISKIT_ 环境变量。
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, err, "load config file %s", path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if err := validation.Struct(core.ModuleConfig, c); err != nil {
		return err
	}
	if c.Online.Source == OnlineFeast && c.Online.Feast.Project == "" {
		return core.InvalidInput(core.ModuleConfig, "online.feast.project is required when online.source is feast")
	}
	return nil
}

// BinOptions 训练配置中的分箱参数
func (t TrainConfig) BinOptions() []feature.BinOption {
	var opts []feature.BinOption
	if t.MaxUnique > 0 {
		opts = append(opts, feature.WithMaxUnique(t.MaxUnique))
	}
	if t.Quantiles > 0 {
		opts = append(opts, feature.WithQuantiles(t.Quantiles))
	}
	return opts
}

// TrainingPipeline 返回训练流水线配置：指定了 train.pipeline 时从 YAML 加载，
// 否则使用默认流程并填入训练参数；online.source 为 store 时追加 persist.online。
func (c *AppConfig) TrainingPipeline() (*pipeline.Config, error) {
	var (
		pc  *pipeline.Config
		err error
	)
	if c.Train.Pipeline != "" {
		if pc, err = pipeline.LoadFromYAML(c.Train.Pipeline); err != nil {
			return nil, err
		}
	} else {
		pc = pipeline.DefaultConfig(c.Train.Transactions, c.Train.OutputDir)
		for i := range pc.Pipeline.Stages {
			sc := &pc.Pipeline.Stages[i]
			if sc.Config == nil {
				sc.Config = map[string]any{}
			}
			switch sc.Type {
			case "rfm.label":
				sc.Config["rule"] = c.Train.LabelRule
			case "feature.select":
				sc.Config["threshold"] = c.Train.IVThreshold
				sc.Config["max_unique"] = c.Train.MaxUnique
				sc.Config["quantiles"] = c.Train.Quantiles
			case "feature.split":
				sc.Config["test_ratio"] = c.Train.TestRatio
				sc.Config["seed"] = int64(c.Train.Seed)
			case "feature.encode":
				sc.Config["max_unique"] = c.Train.MaxUnique
				sc.Config["quantiles"] = c.Train.Quantiles
			case "persist.artifact":
				sc.Config["key"] = c.Server.ArtifactKey
			}
		}
		if c.Online.Source == OnlineStore {
			pc.Pipeline.Stages = append(pc.Pipeline.Stages, pipeline.StageConfig{
				Type:   "persist.online",
				Config: map[string]any{"prefix": c.Online.KeyPrefix},
			})
		}
	}
	if err := ValidatePipelineConfig(pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// envKey RISKIT_TRAIN__IV_THRESHOLD -> train.iv_threshold
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
