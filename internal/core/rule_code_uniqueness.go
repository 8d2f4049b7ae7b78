package core

import (
	"context"
	"fmt"

	"lostfound/pkg/domain"
)

// CodeUniquenessRule blocks commits leaving two rules of one namespace with the same code.
func CodeUniquenessRule() domain.Rule {
	return codeUniquenessRule{}
}

type codeUniquenessRule struct{}

func (codeUniquenessRule) Name() string { return "code_uniqueness" }

func (r codeUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	r.check(&res, domain.NamespaceCategory, view.ListCategories())
	r.check(&res, domain.NamespaceLocation, view.ListLocations())
	return res, nil
}

func (codeUniquenessRule) check(res *domain.Result, ns domain.Namespace, rules []domain.EncodingRule) {
	holders := make(map[string]string, len(rules))
	for _, rule := range rules {
		if !rule.Configured() {
			continue
		}
		holder, taken := holders[rule.Code]
		if !taken {
			holders[rule.Code] = rule.ID
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "code_uniqueness",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s code %q held by both %s and %s", ns, rule.Code, holder, rule.ID),
			Entity:   ns.Entity(),
			EntityID: rule.ID,
		})
	}
}
