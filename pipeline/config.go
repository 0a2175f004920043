package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/riskit/core"
)

// Config 是 Pipeline 的配置结构（支持 YAML/JSON）。
type Config struct {
	Pipeline struct {
		Name   string        `yaml:"name" json:"name"`
		Stages []StageConfig `yaml:"stages" json:"stages"`
	} `yaml:"pipeline" json:"pipeline"`
}

// StageConfig 是单个 Stage 的配置。
type StageConfig struct {
	Type   string         `yaml:"type" json:"type"`     // rfm.load / feature.encode / persist.tables 等
	Config map[string]any `yaml:"config" json:"config"` // Stage 特定配置
}

// DefaultConfig 返回默认训练流程：
// 读取交易 -> RFM 聚合 -> 打标 -> IV 排序筛选 -> 分层划分 -> WOE 拟合/变换 -> 落盘。
func DefaultConfig(transactionsPath, outputDir string) *Config {
	cfg := &Config{}
	cfg.Pipeline.Name = "woe_training"
	cfg.Pipeline.Stages = []StageConfig{
		{Type: "rfm.load", Config: map[string]any{"path": transactionsPath}},
		{Type: "rfm.aggregate"},
		{Type: "rfm.label"},
		{Type: "feature.select"},
		{Type: "feature.split", Config: map[string]any{"test_ratio": 0.2, "seed": 42}},
		{Type: "feature.encode"},
		{Type: "persist.tables", Config: map[string]any{"dir": outputDir}},
		{Type: "persist.artifact", Config: map[string]any{"path": outputDir + "/woe_encoder.json"}},
		{Type: "persist.iv"},
	}
	return cfg
}

// LoadFromYAML 从 YAML 文件加载 Pipeline 配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML 解析 YAML 内容
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, err, "parse pipeline yaml")
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载 Pipeline 配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, err, "parse pipeline json")
	}
	return &cfg, nil
}

// BuildPipeline 根据配置构建 Pipeline（需要 StageFactory 注册 Stage 构建器）。
// 注意：factory 应该在独立的 config 包中，避免循环依赖。
func (c *Config) BuildPipeline(factory *StageFactory) (*Pipeline, error) {
	if len(c.Pipeline.Stages) == 0 {
		return nil, core.InvalidInput(core.ModulePipeline, "pipeline %q has no stages", c.Pipeline.Name)
	}
	stages := make([]Stage, 0, len(c.Pipeline.Stages))
	for i, sc := range c.Pipeline.Stages {
		stage, err := factory.Build(sc.Type, sc.Config)
		if err != nil {
			return nil, fmt.Errorf("build stage #%d %s: %w", i, sc.Type, err)
		}
		stages = append(stages, stage)
	}
	return &Pipeline{Name: c.Pipeline.Name, Stages: stages}, nil
}

// StageBuilder 根据 config 构建 Stage。
type StageBuilder func(cfg map[string]any) (Stage, error)

// StageFactory 用于根据配置构建 Stage 实例。
type StageFactory struct {
	builders map[string]StageBuilder
}

func NewStageFactory() *StageFactory {
	return &StageFactory{builders: make(map[string]StageBuilder)}
}

// Register 注册 Stage 构建器。
func (f *StageFactory) Register(stageType string, builder StageBuilder) {
	f.builders[stageType] = builder
}

// Types 返回已注册的 Stage 类型（排序）
func (f *StageFactory) Types() []string {
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build 根据类型和配置构建 Stage。
func (f *StageFactory) Build(stageType string, config map[string]any) (Stage, error) {
	builder, ok := f.builders[stageType]
	if !ok {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown stage type: %s", stageType))
	}
	return builder(config)
}
