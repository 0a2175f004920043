// Package dsl 提供基于 CEL (Common Expression Language) 的数值规则表达式。
package dsl

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Rule 是编译后的布尔规则，使用 CEL 实现。
// CEL 是 Google 开发的表达式语言，类型安全、线程安全；编译一次，可并发多次求值。
//
// 表达式中的变量均为 double 类型，例如（RFM 高风险代理标签）：
//   - recency > 90.0 && frequency <= 1.0
//   - monetary < 100.0 || recency >= 180.0
//
// 注意：CEL 不做 int/double 隐式转换，常量需写成 90.0 而不是 90。
type Rule struct {
	expr string
	vars []string
	prg  cel.Program
}

// NewRule 编译表达式，vars 为表达式可引用的变量名。
func NewRule(expr string, vars ...string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}

	opts := make([]cel.EnvOption, 0, len(vars))
	for _, v := range vars {
		opts = append(opts, cel.Variable(v, cel.DoubleType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("dsl: env error: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("dsl: expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %w", err)
	}
	return &Rule{expr: expr, vars: append([]string(nil), vars...), prg: prg}, nil
}

// String 返回原始表达式
func (r *Rule) String() string { return r.expr }

// Evaluate 对一组变量求值。所有声明的变量都必须提供。
func (r *Rule) Evaluate(values map[string]float64) (bool, error) {
	input := make(map[string]any, len(r.vars))
	for _, v := range r.vars {
		val, ok := values[v]
		if !ok {
			return false, fmt.Errorf("dsl: missing variable %q", v)
		}
		input[v] = val
	}

	out, _, err := r.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
