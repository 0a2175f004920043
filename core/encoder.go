package core

// FeatureEncoder 是有状态特征编码器的领域接口（Unfitted -> Fitted）。
//
// 实现：
//   - feature.WOEEncoder 实现此接口
type FeatureEncoder interface {
	// Fit 在训练数据上拟合编码状态
	Fit(x *FeatureTable, y []int) error

	// Transform 使用已拟合状态编码数据，返回新表（输入列保留，追加编码列）
	Transform(x *FeatureTable) (*FeatureTable, error)

	// Fitted 是否已拟合
	Fitted() bool
}
