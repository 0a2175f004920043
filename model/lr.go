package model

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/riskit/core"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
// 它是信用评分卡最经典的模型：WOE 编码后的特征与对数几率呈线性关系。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表高风险概率，范围在 (0, 1) 之间。
type LRModel struct {
	Bias    float64            `json:"bias"`    // 偏置项 (Intercept)
	Weights map[string]float64 `json:"weights"` // 特征权重 (Coefficients)，key 为编码列名
}

// LoadLRModel 从 JSON 文件加载模型：{"bias": -1.2, "weights": {"recency_woe": -0.8}}
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lr model: %w", err)
	}
	return ParseLRModel(data)
}

// ParseLRModel 解析 JSON 模型
func ParseLRModel(data []byte) (*LRModel, error) {
	var m LRModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "decode lr model")
	}
	if len(m.Weights) == 0 {
		return nil, core.InvalidInput(core.ModuleModel, "lr model has no weights")
	}
	for k, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, core.InvalidInput(core.ModuleModel, "lr weight %q is not finite", k)
		}
	}
	return &m, nil
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return 1 / (1 + math.Exp(-score)), nil
}
