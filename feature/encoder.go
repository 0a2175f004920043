package feature

import (
	"fmt"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/logging"
)

// EncodedSuffix 编码列名后缀
const EncodedSuffix = "_woe"

// EncodedName 返回列 col 的 WOE 编码列名
func EncodedName(col string) string { return col + EncodedSuffix }

// columnState 单列的拟合状态，Fit 之后只读
type columnState struct {
	name   string
	kind   core.ColumnKind
	edges  []float64 // nil 表示原始值直通
	table  *WOETable
	status BinStatus
	iv     float64
}

// WOEEncoder 证据权重（WoE）编码器。
//
// Fit 在训练集上为每列学习分箱切分点和 WOE 表；Transform 回放同一套切分点并查表。
// 训练期未出现的分箱编码为 core.NullFloat{Valid: false}，与真实 WOE 值（包括 0）可区分。
//
// Fit 不是并发安全的；Fit 完成后 Transform / EncodeRecord 只读状态，可被并发调用。
type WOEEncoder struct {
	binOpts []BinOption
	columns []string
	states  map[string]*columnState
}

var _ core.FeatureEncoder = (*WOEEncoder)(nil)

// EncoderOption WOEEncoder 选项
type EncoderOption func(*WOEEncoder)

// WithBinOptions 设置数值列的分箱选项
func WithBinOptions(opts ...BinOption) EncoderOption {
	return func(e *WOEEncoder) {
		e.binOpts = append(e.binOpts, opts...)
	}
}

// NewWOEEncoder 创建未拟合的 WOE 编码器
func NewWOEEncoder(opts ...EncoderOption) *WOEEncoder {
	e := &WOEEncoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fitted 是否已拟合
func (e *WOEEncoder) Fitted() bool { return e.states != nil }

// Fit 为 X 的每一列拟合分箱与 WOE 表，重复调用会整体替换之前的状态。
func (e *WOEEncoder) Fit(x *core.FeatureTable, y []int) error {
	if x == nil || x.Rows() == 0 || len(x.Names()) == 0 {
		return core.InvalidInput(core.ModuleFeature, "woe encoder: empty feature table")
	}
	if err := core.ValidateTarget(y, x.Rows()); err != nil {
		return err
	}

	columns := make([]string, 0, len(x.Names()))
	states := make(map[string]*columnState, len(x.Names()))
	for _, col := range x.Columns() {
		state, err := e.fitColumn(col, y)
		if err != nil {
			return fmt.Errorf("woe encoder: fit column %q: %w", col.Name, err)
		}
		columns = append(columns, col.Name)
		states[col.Name] = state

		logging.Debug().
			Str("feature", col.Name).
			Str("status", state.status.String()).
			Int("bins", state.table.Len()).
			Float64("iv", state.iv).
			Msg("woe column fitted")
	}

	e.columns = columns
	e.states = states
	return nil
}

func (e *WOEEncoder) fitColumn(col *core.Column, y []int) (*columnState, error) {
	state := &columnState{name: col.Name, kind: col.Kind}

	var bins []core.Bin
	switch col.Kind {
	case core.KindNumeric:
		opts := append(append([]BinOption(nil), e.binOpts...), WithFeatureName(col.Name))
		res := ComputeBins(col.Numeric, opts...)
		bins = res.Bins
		state.edges = res.Edges
		state.status = res.Status
	case core.KindCategorical:
		bins = CategoricalBins(col.Categorical)
		state.status = BinStatusPassThrough
	default:
		return nil, core.InvalidInput(core.ModuleFeature, "column kind %s cannot be woe encoded", col.Kind)
	}

	res, err := ComputeWOEIV(bins, y)
	if err != nil {
		return nil, err
	}
	state.table = res.Table
	state.iv = res.IV
	return state, nil
}

// Transform 使用拟合状态编码 X。输出包含 X 的全部列（深拷贝），
// 并为每个已拟合且出现在 X 中的列追加一个 <name>_woe 编码列（按拟合顺序）。
func (e *WOEEncoder) Transform(x *core.FeatureTable) (*core.FeatureTable, error) {
	if !e.Fitted() {
		return nil, errNotFitted()
	}
	if x == nil {
		return nil, core.InvalidInput(core.ModuleFeature, "woe encoder: nil feature table")
	}

	encoded := make([]*core.Column, 0, len(e.columns))
	for _, name := range e.columns {
		col, ok := x.Column(name)
		if !ok {
			continue
		}
		values, err := e.encodeColumn(e.states[name], col)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, core.EncodedColumn(EncodedName(name), values))
	}

	out, err := x.Clone().WithColumns(encoded...)
	if err != nil {
		return nil, fmt.Errorf("woe encoder: %w", err)
	}
	return out, nil
}

func (e *WOEEncoder) encodeColumn(state *columnState, col *core.Column) ([]core.NullFloat, error) {
	if col.Kind != state.kind {
		return nil, core.InvalidInput(core.ModuleFeature,
			"column %q is %s, encoder was fitted on %s", col.Name, col.Kind, state.kind)
	}

	var bins []core.Bin
	switch col.Kind {
	case core.KindNumeric:
		bins = ApplyBins(col.Numeric, state.edges, WithFeatureName(col.Name)).Bins
	case core.KindCategorical:
		bins = CategoricalBins(col.Categorical)
	}

	values := make([]core.NullFloat, len(bins))
	unknown := 0
	for i, b := range bins {
		if w, ok := state.table.Lookup(b); ok {
			values[i] = core.Some(w)
			continue
		}
		values[i] = core.Missing()
		unknown++
	}
	if unknown > 0 {
		logging.Debug().
			Str("feature", col.Name).
			Str("code", core.ErrorCodeUnseenCategory).
			Int("rows", unknown).
			Msg("bins not seen during fit encoded as missing")
	}
	return values, nil
}

// EncodeRecord 编码单条记录（在线打分），与 Transform 走同一条路径。
// 返回 key 为编码列名 <name>_woe；记录中没有的已拟合列会被跳过。
func (e *WOEEncoder) EncodeRecord(record map[string]float64) (map[string]core.NullFloat, error) {
	if !e.Fitted() {
		return nil, errNotFitted()
	}

	out := make(map[string]core.NullFloat, len(e.columns))
	for _, name := range e.columns {
		v, ok := record[name]
		if !ok {
			continue
		}
		values, err := e.encodeColumn(e.states[name], core.NumericColumn(name, []float64{v}))
		if err != nil {
			return nil, err
		}
		out[EncodedName(name)] = values[0]
	}
	return out, nil
}

// Columns 返回已拟合的列名（拟合顺序）
func (e *WOEEncoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Edges 返回列的切分点副本；nil 表示该列未分箱
func (e *WOEEncoder) Edges(col string) ([]float64, bool) {
	s, ok := e.states[col]
	if !ok {
		return nil, false
	}
	if s.edges == nil {
		return nil, true
	}
	return append([]float64(nil), s.edges...), true
}

// Table 返回列的 WOE 表（只读）
func (e *WOEEncoder) Table(col string) (*WOETable, bool) {
	s, ok := e.states[col]
	if !ok {
		return nil, false
	}
	return s.table, true
}

// Kind 返回列在拟合时的类型
func (e *WOEEncoder) Kind(col string) (core.ColumnKind, bool) {
	s, ok := e.states[col]
	if !ok {
		return 0, false
	}
	return s.kind, true
}

// Status 返回列在拟合时的分箱结果类型
func (e *WOEEncoder) Status(col string) (BinStatus, bool) {
	s, ok := e.states[col]
	if !ok {
		return 0, false
	}
	return s.status, true
}

// IV 返回列在训练集上的信息值
func (e *WOEEncoder) IV(col string) (float64, bool) {
	s, ok := e.states[col]
	if !ok {
		return 0, false
	}
	return s.iv, true
}

func errNotFitted() error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFitted, "woe encoder: transform called before fit")
}
