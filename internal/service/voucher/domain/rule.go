package domain

// EligibilityFact 是规则引擎评估券适用性时可见的事实集合。
type EligibilityFact struct {
	Category           string   `json:"category"`
	Quantity           int      `json:"quantity"`
	EligibleCategories []string `json:"eligible_categories"`
}

// RuleEngine 评估券上挂载的自定义适用规则表达式。
// 表达式为空时调用方应回退到 EligibleFor 的品类集合判定。
type RuleEngine interface {
	Evaluate(ruleDefinition string, fact EligibilityFact) (bool, error)
}
