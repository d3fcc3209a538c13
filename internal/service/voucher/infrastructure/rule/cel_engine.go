// internal/service/voucher/infrastructure/rule/cel_engine.go
package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"flashmall/internal/service/voucher/domain"
)

// CELRuleEngineAdapter 是 domain.RuleEngine 接口的 CEL 实现。
// 券上的自定义适用规则是一条 CEL 表达式, 可引用的变量:
//
//	category            当前订单行的商品品类
//	quantity            当前订单行的购买数量
//	eligible_categories 券配置的适用品类集合
//
// 例如: `category in eligible_categories && quantity >= 2`。
// 编译结果按表达式缓存, 同一条规则只编译一次。
type CELRuleEngineAdapter struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

func NewCELRuleEngineAdapter() (*CELRuleEngineAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("category", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("eligible_categories", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("build cel env: %w", err)
	}
	return &CELRuleEngineAdapter{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate 实现 domain.RuleEngine。表达式必须求值为 bool。
func (a *CELRuleEngineAdapter) Evaluate(ruleDefinition string, fact domain.EligibilityFact) (bool, error) {
	prg, err := a.compile(ruleDefinition)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"category":            fact.Category,
		"quantity":            int64(fact.Quantity),
		"eligible_categories": fact.EligibleCategories,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate rule: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule did not evaluate to bool: %v", out.Value())
	}
	return result, nil
}

func (a *CELRuleEngineAdapter) compile(ruleDefinition string) (cel.Program, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if prg, ok := a.programs[ruleDefinition]; ok {
		return prg, nil
	}

	ast, iss := a.env.Compile(ruleDefinition)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile rule: %w", iss.Err())
	}
	prg, err := a.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}
	a.programs[ruleDefinition] = prg
	return prg, nil
}
