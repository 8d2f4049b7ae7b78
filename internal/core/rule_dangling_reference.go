package core

import (
	"context"
	"fmt"

	"lostfound/internal/itemstore"
	"lostfound/pkg/domain"
)

// DanglingReferenceRule warns when a removed category is still referenced
// by items. Those items keep their code and render the category as unknown.
func DanglingReferenceRule() domain.Rule {
	return danglingReferenceRule{}
}

type danglingReferenceRule struct{}

func (danglingReferenceRule) Name() string { return "dangling_reference" }

func (danglingReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityCategory || change.Action != domain.ActionDelete {
			continue
		}
		removed, ok := domain.DecodePayload[domain.EncodingRule](change.Before)
		if !ok {
			continue
		}
		refs := itemstore.Count(view.FilterItems(func(item domain.LostItem) bool { return item.TypeID == removed.ID }))
		if refs == 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "dangling_reference",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("category %s (%s) removed while %d items still reference it", removed.Label, removed.ID, refs),
			Entity:   domain.EntityCategory,
			EntityID: removed.ID,
		})
	}
	return res, nil
}
