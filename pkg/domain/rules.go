package domain

import (
	"context"
	"iter"
)

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
	ListCategories() []EncodingRule
	ListLocations() []EncodingRule
	ListItems() []LostItem
	FindCategory(id string) (EncodingRule, bool)
	FindLocation(id string) (EncodingRule, bool)
	FindItem(id string) (LostItem, bool)
	FilterItems(pred func(LostItem) bool) iter.Seq[LostItem]
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Names lists registered rule names in evaluation order.
func (e *RulesEngine) Names() []string {
	out := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule.Name())
	}
	return out
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
