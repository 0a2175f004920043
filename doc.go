// Package riskit 是一个信用风险特征工具包（Risk Kit）。
//
// 设计要点：
// - Pipeline-first: 训练流程通过 Stage 串联（rfm.load → rfm.aggregate → rfm.label → feature.select → feature.split → feature.encode → persist.*）
// - Fit once, transform anywhere: WOE 编码器在训练集上拟合一次，训练/测试/在线打分共用同一份状态
// - Stage 可扩展: 自定义 Stage 并 config.Register 即可被 YAML 配置驱动
package riskit

import "github.com/rushteam/riskit/pipeline"

// 轻量 facade：便于用户直接 import "riskit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Stage = pipeline.Stage
type State = pipeline.State
type Kind = pipeline.Kind

const (
	KindLoad      = pipeline.KindLoad
	KindTransform = pipeline.KindTransform
	KindPersist   = pipeline.KindPersist
)
