package pipeline

import "context"

// Kind 用于标记 Stage 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindLoad      Kind = "load"      // 读取原始交易
	KindTransform Kind = "transform" // 聚合、打标、分箱编码等计算
	KindPersist   Kind = "persist"   // 落盘/写存储
)

// Stage 是训练 Pipeline 的最小可扩展单元。
// 统一采用“读写共享 State”的形态，前一阶段的产出即后一阶段的输入。
type Stage interface {
	Name() string
	Kind() Kind

	Run(ctx context.Context, st *State) error
}

// StageFunc 将普通函数适配为 Stage
type StageFunc struct {
	StageName string
	StageKind Kind
	Fn        func(ctx context.Context, st *State) error
}

func (f StageFunc) Name() string { return f.StageName }
func (f StageFunc) Kind() Kind   { return f.StageKind }

func (f StageFunc) Run(ctx context.Context, st *State) error {
	return f.Fn(ctx, st)
}
