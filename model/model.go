package model

// DefaultThreshold 风险概率 >= 该值时判定为高风险
const DefaultThreshold = 0.5

// RiskModel 是打分阶段的最小抽象：输入 WOE 编码后的特征，输出高风险概率 [0,1]。
// 具体实现可以是本地模型（LR）或远程 RPC（外部训练好的分类器服务）。
//
// 特征 key 为编码列名（如 recency_woe）。未知分箱的特征不会出现在输入中。
type RiskModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// Classify 将概率转为二分类结果
func Classify(probability, threshold float64) int {
	if probability >= threshold {
		return 1
	}
	return 0
}
