package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/riskit/core"
)

// ArtifactVersion 当前产物格式版本
const ArtifactVersion = 1

// DefaultArtifactKey 编码器产物在 Store 中的默认 key
const DefaultArtifactKey = "riskit:encoder:woe"

// Artifact 是拟合好的 WOE 编码器的持久化形式。
// 训练流水线写入，在线服务加载，保证两侧使用同一套切分点与 WOE 表。
type Artifact struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	Features  []string         `json:"features"` // IV 选中的特征（原始列名）
	Columns   []ArtifactColumn `json:"columns"`
}

// ArtifactColumn 单列的拟合状态
type ArtifactColumn struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Status string        `json:"status"`
	Edges  []float64     `json:"edges"`
	IV     float64       `json:"iv"`
	WOE    []ArtifactBin `json:"woe"`
}

// ArtifactBin 单个分箱的 WOE 值
type ArtifactBin struct {
	Bin core.Bin `json:"bin"`
	WOE float64  `json:"woe"`
}

// Artifact 导出编码器状态；selected 为在线打分使用的特征。
func (e *WOEEncoder) Artifact(selected []string) (*Artifact, error) {
	if !e.Fitted() {
		return nil, errNotFitted()
	}
	for _, f := range selected {
		if _, ok := e.states[f]; !ok {
			return nil, core.InvalidInput(core.ModuleFeature, "selected feature %q was not fitted", f)
		}
	}

	a := &Artifact{
		Version:   ArtifactVersion,
		CreatedAt: time.Now().UTC(),
		Features:  append([]string{}, selected...),
		Columns:   make([]ArtifactColumn, 0, len(e.columns)),
	}
	for _, name := range e.columns {
		s := e.states[name]
		col := ArtifactColumn{
			Name:   name,
			Kind:   s.kind.String(),
			Status: s.status.String(),
			IV:     s.iv,
			WOE:    make([]ArtifactBin, 0, s.table.Len()),
		}
		if s.edges != nil {
			col.Edges = append([]float64(nil), s.edges...)
		}
		for _, b := range s.table.Bins() {
			w, _ := s.table.Lookup(b)
			col.WOE = append(col.WOE, ArtifactBin{Bin: b, WOE: w})
		}
		a.Columns = append(a.Columns, col)
	}
	return a, nil
}

// NewWOEEncoderFromArtifact 从产物恢复已拟合的编码器
func NewWOEEncoderFromArtifact(a *Artifact, opts ...EncoderOption) (*WOEEncoder, error) {
	if a == nil {
		return nil, core.InvalidInput(core.ModuleFeature, "artifact is nil")
	}
	if a.Version != ArtifactVersion {
		return nil, core.InvalidInput(core.ModuleFeature, "unsupported artifact version %d", a.Version)
	}
	if len(a.Columns) == 0 {
		return nil, core.InvalidInput(core.ModuleFeature, "artifact has no columns")
	}

	e := NewWOEEncoder(opts...)
	columns := make([]string, 0, len(a.Columns))
	states := make(map[string]*columnState, len(a.Columns))
	for _, c := range a.Columns {
		if _, dup := states[c.Name]; dup {
			return nil, core.InvalidInput(core.ModuleFeature, "artifact column %q is duplicated", c.Name)
		}
		kind, err := core.ParseColumnKind(c.Kind)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "artifact column %q", c.Name)
		}
		status, err := ParseBinStatus(c.Status)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "artifact column %q", c.Name)
		}
		if len(c.Edges) > 0 {
			if err := validateEdges(c.Edges); err != nil {
				return nil, fmt.Errorf("artifact column %q: %w", c.Name, err)
			}
		}
		woe := make(map[core.Bin]float64, len(c.WOE))
		for _, b := range c.WOE {
			woe[b.Bin] = b.WOE
		}
		state := &columnState{
			name:   c.Name,
			kind:   kind,
			table:  NewWOETable(woe),
			status: status,
			iv:     c.IV,
		}
		if len(c.Edges) > 0 {
			state.edges = append([]float64(nil), c.Edges...)
		}
		columns = append(columns, c.Name)
		states[c.Name] = state
	}
	for _, f := range a.Features {
		if _, ok := states[f]; !ok {
			return nil, core.InvalidInput(core.ModuleFeature, "artifact feature %q has no column", f)
		}
	}

	e.columns = columns
	e.states = states
	return e, nil
}

// MarshalArtifact 序列化产物
func MarshalArtifact(a *Artifact) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// UnmarshalArtifact 反序列化产物
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "decode artifact")
	}
	return &a, nil
}

// SaveArtifact 将产物写入 Store
func SaveArtifact(ctx context.Context, s core.Store, key string, a *Artifact) error {
	data, err := MarshalArtifact(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save artifact to %s: %w", s.Name(), err)
	}
	return nil
}

// LoadArtifact 从 Store 读取产物
func LoadArtifact(ctx context.Context, s core.Store, key string) (*Artifact, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load artifact %q from %s: %w", key, s.Name(), err)
	}
	return UnmarshalArtifact(data)
}

// ParseBinStatus 是 BinStatus.String 的逆操作
func ParseBinStatus(s string) (BinStatus, error) {
	switch s {
	case "binned":
		return BinStatusBinned, nil
	case "pass_through":
		return BinStatusPassThrough, nil
	case "degenerate":
		return BinStatusDegenerate, nil
	case "failed":
		return BinStatusFailed, nil
	default:
		return 0, fmt.Errorf("unknown bin status %q", s)
	}
}
