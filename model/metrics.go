package model

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/validation"
)

// 模型评估指标名称
const (
	MetricAccuracy = "accuracy"
	MetricROCAUC   = "roc_auc"
	MetricF1       = "f1_score"
)

// metricsDoc 用于校验外部提交的指标：三个指标必须存在且在 [0,1]
type metricsDoc struct {
	Accuracy *float64 `json:"accuracy" validate:"required,gte=0,lte=1"`
	ROCAUC   *float64 `json:"roc_auc" validate:"required,gte=0,lte=1"`
	F1Score  *float64 `json:"f1_score" validate:"required,gte=0,lte=1"`
}

// ValidateMetrics 校验模型指标。accuracy、roc_auc、f1_score 必须全部存在且取值在 [0,1]；
// 其它 key 被忽略；NaN 不满足区间约束。失败时返回 INVALID_INPUT。
func ValidateMetrics(metrics map[string]float64) error {
	doc := metricsDoc{}
	if v, ok := metrics[MetricAccuracy]; ok {
		doc.Accuracy = &v
	}
	if v, ok := metrics[MetricROCAUC]; ok {
		doc.ROCAUC = &v
	}
	if v, ok := metrics[MetricF1]; ok {
		doc.F1Score = &v
	}
	return validation.Struct(core.ModuleModel, &doc)
}

// Evaluation 模型评估结果
type Evaluation struct {
	Accuracy  float64 `json:"accuracy"`
	ROCAUC    float64 `json:"roc_auc"`
	F1Score   float64 `json:"f1_score"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Threshold float64 `json:"threshold"`
	Samples   int     `json:"samples"`
}

// Map 转为指标映射（可直接交给 ValidateMetrics）
func (e *Evaluation) Map() map[string]float64 {
	return map[string]float64{
		MetricAccuracy: e.Accuracy,
		MetricROCAUC:   e.ROCAUC,
		MetricF1:       e.F1Score,
	}
}

// Evaluate 根据真实标签与预测概率计算 accuracy、ROC AUC、F1。
// 两个类别都必须出现，否则 AUC 无定义。
func Evaluate(yTrue []int, proba []float64, threshold float64) (*Evaluation, error) {
	if len(proba) == 0 {
		return nil, core.InvalidInput(core.ModuleModel, "evaluate: empty input")
	}
	if err := core.ValidateTarget(yTrue, len(proba)); err != nil {
		return nil, err
	}

	var tp, fp, tn, fn, pos int
	for i, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, core.InvalidInput(core.ModuleModel, "evaluate: probability %d out of [0,1]: %v", i, p)
		}
		pred := Classify(p, threshold)
		switch {
		case pred == 1 && yTrue[i] == 1:
			tp++
		case pred == 1 && yTrue[i] == 0:
			fp++
		case pred == 0 && yTrue[i] == 0:
			tn++
		default:
			fn++
		}
		pos += yTrue[i]
	}
	if pos == 0 || pos == len(yTrue) {
		return nil, core.InvalidInput(core.ModuleModel, "evaluate: roc auc needs both classes")
	}

	e := &Evaluation{
		Accuracy:  float64(tp+tn) / float64(len(proba)),
		ROCAUC:    rocAUC(yTrue, proba),
		Threshold: threshold,
		Samples:   len(proba),
	}
	if tp+fp > 0 {
		e.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		e.Recall = float64(tp) / float64(tp+fn)
	}
	if e.Precision+e.Recall > 0 {
		e.F1Score = 2 * e.Precision * e.Recall / (e.Precision + e.Recall)
	}
	return e, nil
}

func rocAUC(yTrue []int, proba []float64) float64 {
	y := append([]float64(nil), proba...)
	classes := make([]bool, len(yTrue))
	for i, label := range yTrue {
		classes[i] = label == 1
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
