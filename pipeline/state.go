package pipeline

import (
	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
)

// State 是 Stage 之间传递的训练上下文。
// 每个 Stage 只读取前序阶段写入的字段，缺失时返回 INVALID_INPUT。
type State struct {
	// Store 持久化阶段使用的存储（编码器产物、IV 排行、在线特征），可为空
	Store core.Store

	Transactions []core.Transaction
	Records      []core.RFMRecord
	Table        *core.FeatureTable
	Target       []int

	IVScores core.IVScores
	// IVReports 与 IVScores 同序的分箱明细
	IVReports []*feature.IVReport
	Selected  []string

	Split        *Split
	Encoder      *feature.WOEEncoder
	TrainEncoded *core.FeatureTable
	TestEncoded  *core.FeatureTable

	// Outputs 已写出的文件路径或存储 key
	Outputs []string
}

// Split 是 feature.Split 的别名，避免调用方额外 import
type Split = feature.Split

func (st *State) addOutput(out string) {
	st.Outputs = append(st.Outputs, out)
}

func missing(stage, field string) error {
	return core.InvalidInput(core.ModulePipeline, "%s: %s not available, check stage order", stage, field)
}
