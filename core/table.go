package core

import (
	"fmt"
	"math"
)

// ColumnKind 标记列的数据类型。
type ColumnKind int

const (
	KindNumeric     ColumnKind = iota // 连续/离散数值列，[]float64
	KindCategorical                   // 类别列，[]string
	KindEncoded                       // WOE 编码结果列，[]NullFloat（未知分箱为缺失）
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindEncoded:
		return "encoded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseColumnKind 是 String 的逆操作
func ParseColumnKind(s string) (ColumnKind, error) {
	switch s {
	case "numeric":
		return KindNumeric, nil
	case "categorical":
		return KindCategorical, nil
	case "encoded":
		return KindEncoded, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// NullFloat 是显式的可缺失浮点值。
// WOE 编码时遇到训练期未出现的分箱，结果为 Valid=false，
// 与任何真实 WOE 值（包括 0.0）都可区分，不复用 NaN。
type NullFloat struct {
	Float float64
	Valid bool
}

// Some 构造一个有效值
func Some(v float64) NullFloat { return NullFloat{Float: v, Valid: true} }

// Missing 构造一个缺失值
func Missing() NullFloat { return NullFloat{} }

// Column 是特征表中的一列。根据 Kind 只有一个数据切片有效。
type Column struct {
	Name        string
	Kind        ColumnKind
	Numeric     []float64
	Categorical []string
	Encoded     []NullFloat
}

// NumericColumn 创建数值列
func NumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Numeric: values}
}

// CategoricalColumn 创建类别列
func CategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindCategorical, Categorical: values}
}

// EncodedColumn 创建编码列
func EncodedColumn(name string, values []NullFloat) *Column {
	return &Column{Name: name, Kind: KindEncoded, Encoded: values}
}

// Len 返回列的行数
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Numeric)
	case KindCategorical:
		return len(c.Categorical)
	case KindEncoded:
		return len(c.Encoded)
	default:
		return 0
	}
}

// Clone 深拷贝列
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindNumeric:
		out.Numeric = append([]float64(nil), c.Numeric...)
	case KindCategorical:
		out.Categorical = append([]string(nil), c.Categorical...)
	case KindEncoded:
		out.Encoded = append([]NullFloat(nil), c.Encoded...)
	}
	return out
}

// take 按行下标抽取子列
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindNumeric:
		out.Numeric = make([]float64, len(rows))
		for i, r := range rows {
			out.Numeric[i] = c.Numeric[r]
		}
	case KindCategorical:
		out.Categorical = make([]string, len(rows))
		for i, r := range rows {
			out.Categorical[i] = c.Categorical[r]
		}
	case KindEncoded:
		out.Encoded = make([]NullFloat, len(rows))
		for i, r := range rows {
			out.Encoded[i] = c.Encoded[r]
		}
	}
	return out
}

// FeatureTable 是有序的命名列集合，所有列行数一致。
// FeatureTable 创建后不可变；WithColumns / Select / Take 都返回新表。
type FeatureTable struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewFeatureTable 创建特征表，校验列名唯一、非空且行数一致。
func NewFeatureTable(cols ...*Column) (*FeatureTable, error) {
	t := &FeatureTable{
		columns: make([]*Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, InvalidInput(ModuleFeature, "column %d is nil", i)
		}
		if c.Name == "" {
			return nil, InvalidInput(ModuleFeature, "column %d has empty name", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, InvalidInput(ModuleFeature, "duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, InvalidInput(ModuleFeature, "column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Rows 返回行数
func (t *FeatureTable) Rows() int { return t.rows }

// Names 返回列名（按声明顺序）
func (t *FeatureTable) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns 返回所有列（按声明顺序）。调用方不应修改返回的列。
func (t *FeatureTable) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Column 按名称获取列
func (t *FeatureTable) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Clone 深拷贝特征表
func (t *FeatureTable) Clone() *FeatureTable {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	out, _ := NewFeatureTable(cols...)
	return out
}

// WithColumns 返回追加了 extra 列的新表，原表不变。
func (t *FeatureTable) WithColumns(extra ...*Column) (*FeatureTable, error) {
	cols := make([]*Column, 0, len(t.columns)+len(extra))
	cols = append(cols, t.columns...)
	cols = append(cols, extra...)
	return NewFeatureTable(cols...)
}

// Select 按名称选择列，返回新表；未知列名返回 INVALID_INPUT。
func (t *FeatureTable) Select(names ...string) (*FeatureTable, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, InvalidInput(ModuleFeature, "unknown column %q", n)
		}
		cols = append(cols, c)
	}
	return NewFeatureTable(cols...)
}

// Take 按行下标抽取子表（用于 train/test 切分）。
func (t *FeatureTable) Take(rows []int) (*FeatureTable, error) {
	for _, r := range rows {
		if r < 0 || r >= t.rows {
			return nil, InvalidInput(ModuleFeature, "row %d out of range [0,%d)", r, t.rows)
		}
	}
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.take(rows)
	}
	return NewFeatureTable(cols...)
}

// ValidateTarget 校验 target 为非空、二值（0/1）且与特征表行数一致。
func ValidateTarget(target []int, rows int) error {
	if len(target) == 0 {
		return InvalidInput(ModuleFeature, "target is empty")
	}
	if len(target) != rows {
		return InvalidInput(ModuleFeature, "target has %d rows, features have %d", len(target), rows)
	}
	for i, y := range target {
		if y != 0 && y != 1 {
			return InvalidInput(ModuleFeature, "target is not binary: row %d has value %d", i, y)
		}
	}
	return nil
}

// IsMissing 判断数值是否视为缺失（NaN）
func IsMissing(v float64) bool { return math.IsNaN(v) }
