package core

// IVScore 是单个特征的信息值（Information Value）。
type IVScore struct {
	Feature string  `json:"feature"`
	IV      float64 `json:"iv"`
}

// IVScores 是有序的 IV 列表。顺序有意义：特征声明顺序或按 IV 排序后的顺序。
type IVScores []IVScore

// Map 转为 feature -> iv 映射
func (s IVScores) Map() map[string]float64 {
	m := make(map[string]float64, len(s))
	for _, v := range s {
		m[v.Feature] = v.IV
	}
	return m
}

// Features 返回特征名列表（保持顺序）
func (s IVScores) Features() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Feature
	}
	return out
}
