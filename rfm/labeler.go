package rfm

import (
	"fmt"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/dsl"
	"github.com/rushteam/riskit/pkg/logging"
)

// DefaultHighRiskRule 默认高风险代理规则：长期未交易且交易次数少
const DefaultHighRiskRule = "recency > 90.0 && frequency <= 1.0"

// Labeler 根据 CEL 规则为客户打高风险标签（1 = 高风险 / bad，0 = good）。
// 规则可引用 recency、frequency、monetary 三个 double 变量。
type Labeler struct {
	rule *dsl.Rule
}

// NewLabeler 编译规则，expr 为空时使用 DefaultHighRiskRule
func NewLabeler(expr string) (*Labeler, error) {
	if expr == "" {
		expr = DefaultHighRiskRule
	}
	rule, err := dsl.NewRule(expr, core.RFMFeatures()...)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRFM, core.ErrorCodeInvalidInput, err, "rfm: invalid label rule")
	}
	return &Labeler{rule: rule}, nil
}

// Rule 返回规则表达式
func (l *Labeler) Rule() string { return l.rule.String() }

// Label 为每条记录打标签，顺序与输入一致
func (l *Labeler) Label(records []core.RFMRecord) ([]int, error) {
	target := make([]int, len(records))
	bad := 0
	for i, r := range records {
		hit, err := l.rule.Evaluate(r.Features())
		if err != nil {
			return nil, fmt.Errorf("label customer %s: %w", r.CustomerID, err)
		}
		if hit {
			target[i] = 1
			bad++
		}
	}

	logging.Info().
		Str("rule", l.rule.String()).
		Int("customers", len(records)).
		Int("high_risk", bad).
		Msg("rfm labeled")
	return target, nil
}
