package core

import "lostfound/pkg/domain"

type (
	// Rule aliases domain.Rule so policies can be registered from this package.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
)

// NewRulesEngine constructs an engine without policies.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(CodeUniquenessRule())
	engine.Register(ClaimLifecycleRule())
	engine.Register(DanglingReferenceRule())
	return engine
}
