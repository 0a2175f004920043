package core

import (
	"fmt"
	"strconv"
	"strings"
)

// BinKind 标记分箱值的来源。
type BinKind uint8

const (
	BinMissing  BinKind = iota // 无分箱：NaN 输入或切分回放失败
	BinIndex                   // 分位数分箱的箱号（0..n-1）
	BinRaw                     // 未分箱，直接使用原始数值
	BinCategory                // 类别特征的原始类别
)

// Bin 是单行特征值的分箱结果，可直接作为 map key（WOE 表的键）。
type Bin struct {
	Kind  BinKind
	Index int
	Value float64
	Label string
}

// IndexBin 创建分位数箱号
func IndexBin(i int) Bin { return Bin{Kind: BinIndex, Index: i} }

// RawBin 创建原始数值分箱（pass-through）
func RawBin(v float64) Bin {
	if IsMissing(v) {
		return MissingBin()
	}
	// 统一 -0 与 +0，保证作为 map key 时一致
	if v == 0 {
		v = 0
	}
	return Bin{Kind: BinRaw, Value: v}
}

// CategoryBin 创建类别分箱
func CategoryBin(label string) Bin { return Bin{Kind: BinCategory, Label: label} }

// MissingBin 创建缺失分箱
func MissingBin() Bin { return Bin{Kind: BinMissing} }

// IsMissing 判断是否为缺失分箱
func (b Bin) IsMissing() bool { return b.Kind == BinMissing }

// String 返回稳定的文本表示，用于持久化与日志：bin:2 / raw:1.5 / cat:gold / missing
func (b Bin) String() string {
	switch b.Kind {
	case BinIndex:
		return "bin:" + strconv.Itoa(b.Index)
	case BinRaw:
		return "raw:" + strconv.FormatFloat(b.Value, 'g', -1, 64)
	case BinCategory:
		return "cat:" + b.Label
	default:
		return "missing"
	}
}

// Less 定义分箱的展示顺序：箱号 < 原始值 < 类别，同类内按值排序。
func (b Bin) Less(o Bin) bool {
	if b.Kind != o.Kind {
		return b.Kind < o.Kind
	}
	switch b.Kind {
	case BinIndex:
		return b.Index < o.Index
	case BinRaw:
		return b.Value < o.Value
	case BinCategory:
		return b.Label < o.Label
	default:
		return false
	}
}

// ParseBin 是 String 的逆操作
func ParseBin(s string) (Bin, error) {
	if s == "missing" {
		return MissingBin(), nil
	}
	kind, val, ok := strings.Cut(s, ":")
	if !ok {
		return Bin{}, fmt.Errorf("invalid bin %q", s)
	}
	switch kind {
	case "bin":
		i, err := strconv.Atoi(val)
		if err != nil {
			return Bin{}, fmt.Errorf("invalid bin index %q: %w", s, err)
		}
		return IndexBin(i), nil
	case "raw":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return Bin{}, fmt.Errorf("invalid raw bin %q: %w", s, err)
		}
		return RawBin(f), nil
	case "cat":
		return CategoryBin(val), nil
	default:
		return Bin{}, fmt.Errorf("invalid bin kind %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler，使 Bin 可作为 JSON 值或 map key
func (b Bin) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (b *Bin) UnmarshalText(text []byte) error {
	parsed, err := ParseBin(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
