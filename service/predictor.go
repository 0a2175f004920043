package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/model"
	"github.com/rushteam/riskit/pkg/logging"
)

// Input 单条打分请求
type Input struct {
	Recency   float64 `json:"recency" validate:"gte=0"`
	Frequency float64 `json:"frequency" validate:"gte=0"`
	Monetary  float64 `json:"monetary"`
}

// Features 以特征名为 key 返回数值
func (in Input) Features() map[string]float64 {
	return map[string]float64{
		core.FeatureRecency:   in.Recency,
		core.FeatureFrequency: in.Frequency,
		core.FeatureMonetary:  in.Monetary,
	}
}

// Output 打分结果
type Output struct {
	Prediction      int      `json:"prediction"`
	RiskProbability float64  `json:"risk_probability"`
	UnknownFeatures []string `json:"unknown_features,omitempty"`
}

// Predictor 在线打分器：使用训练期拟合的同一个 WOE 编码器变换输入，再调用模型。
// 在服务启动时显式创建一次，之后只读，可被并发调用。
type Predictor struct {
	encoder   *feature.WOEEncoder
	features  []string
	model     model.RiskModel
	threshold float64
	monitor   feature.EncodingMonitor
}

// PredictorOption Predictor 选项
type PredictorOption func(*Predictor)

// WithThreshold 设置高风险判定阈值
func WithThreshold(t float64) PredictorOption {
	return func(p *Predictor) { p.threshold = t }
}

// WithMonitor 设置编码监控
func WithMonitor(m feature.EncodingMonitor) PredictorOption {
	return func(p *Predictor) { p.monitor = m }
}

// NewPredictor 创建打分器。features 为模型使用的原始特征名（IV 选中的特征），
// 必须都已被 encoder 拟合。
func NewPredictor(encoder *feature.WOEEncoder, features []string, m model.RiskModel, opts ...PredictorOption) (*Predictor, error) {
	if encoder == nil || !encoder.Fitted() {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotFitted, "predictor: encoder is not fitted")
	}
	if m == nil {
		return nil, core.InvalidInput(core.ModuleService, "predictor: model is nil")
	}
	if len(features) == 0 {
		return nil, core.InvalidInput(core.ModuleService, "predictor: no features selected")
	}
	for _, f := range features {
		if _, ok := encoder.Table(f); !ok {
			return nil, core.InvalidInput(core.ModuleService, "predictor: feature %q was not fitted", f)
		}
	}

	p := &Predictor{
		encoder:   encoder,
		features:  append([]string(nil), features...),
		model:     m,
		threshold: model.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewPredictorFromArtifact 从训练产物创建打分器
func NewPredictorFromArtifact(a *feature.Artifact, m model.RiskModel, opts ...PredictorOption) (*Predictor, error) {
	encoder, err := feature.NewWOEEncoderFromArtifact(a)
	if err != nil {
		return nil, err
	}
	return NewPredictor(encoder, a.Features, m, opts...)
}

// Features 返回模型使用的原始特征名
func (p *Predictor) Features() []string {
	return append([]string(nil), p.features...)
}

// Predict 对单条请求打分
func (p *Predictor) Predict(ctx context.Context, in Input) (*Output, error) {
	return p.PredictFeatures(ctx, in.Features())
}

// PredictFeatures 对特征映射打分。未知分箱的特征不提供证据（不进入模型输入），
// 并在 UnknownFeatures 中列出。
func (p *Predictor) PredictFeatures(ctx context.Context, features map[string]float64) (*Output, error) {
	record := make(map[string]float64, len(p.features))
	for _, f := range p.features {
		v, ok := features[f]
		if !ok {
			return nil, core.InvalidInput(core.ModuleService, "missing feature %q", f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.InvalidInput(core.ModuleService, "feature %q is not finite", f)
		}
		record[f] = v
	}

	encoded, err := p.encoder.EncodeRecord(record)
	if err != nil {
		return nil, err
	}

	input := make(map[string]float64, len(p.features))
	var unknown []string
	for _, f := range p.features {
		name := feature.EncodedName(f)
		if p.monitor != nil {
			p.monitor.RecordInput(ctx, f, record[f])
		}
		v := encoded[name]
		if !v.Valid {
			unknown = append(unknown, f)
			unknownBins.WithLabelValues(f).Inc()
			if p.monitor != nil {
				p.monitor.RecordUnknown(ctx, f)
			}
			continue
		}
		input[name] = v.Float
		if p.monitor != nil {
			p.monitor.RecordEncoded(ctx, f, v.Float)
		}
	}

	prob, err := p.model.Predict(input)
	if err != nil {
		return nil, fmt.Errorf("model %s predict: %w", p.model.Name(), err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError,
			fmt.Sprintf("model %s returned probability %v outside [0,1]", p.model.Name(), prob))
	}

	out := &Output{
		Prediction:      model.Classify(prob, p.threshold),
		RiskProbability: prob,
		UnknownFeatures: unknown,
	}
	predictions.WithLabelValues(p.model.Name(), predictionLabel(out.Prediction)).Inc()
	if len(unknown) > 0 {
		logging.Debug().Strs("unknown_features", unknown).Msg("prediction made without evidence for unknown bins")
	}
	return out, nil
}

func predictionLabel(pred int) string {
	if pred == 1 {
		return "high_risk"
	}
	return "low_risk"
}
