package core

import (
	"context"
	"fmt"

	"lostfound/pkg/domain"
)

// ClaimLifecycleRule blocks item changes that break the lost -> claimed
// state machine: leaving the terminal state, deleting a claimed item,
// inconsistent claim metadata or a rewritten generated code.
func ClaimLifecycleRule() domain.Rule {
	return claimLifecycleRule{}
}

type claimLifecycleRule struct{}

func (claimLifecycleRule) Name() string { return "claim_lifecycle" }

func (claimLifecycleRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "claim_lifecycle",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   domain.EntityItem,
			EntityID: id,
		})
	}
	for _, change := range changes {
		if change.Entity != domain.EntityItem {
			continue
		}
		before, hadBefore := domain.DecodePayload[domain.LostItem](change.Before)
		after, hasAfter := domain.DecodePayload[domain.LostItem](change.After)

		if hasAfter {
			switch {
			case !after.Status.Valid():
				block(after.ID, "lost item %s is set to invalid status %q", after.ID, after.Status)
				continue
			case after.Claimed() && (after.ClaimedBy == "" || after.ClaimTimestamp == nil):
				block(after.ID, "claimed item %s is missing claim metadata", after.ID)
			case !after.Claimed() && (after.ClaimedBy != "" || after.ClaimTimestamp != nil):
				block(after.ID, "unclaimed item %s carries claim metadata", after.ID)
			}
		}
		if !hadBefore {
			continue
		}
		if !hasAfter {
			if before.Claimed() {
				block(before.ID, "claimed item %s cannot be deleted", before.ID)
			}
			continue
		}
		if before.GeneratedCode != after.GeneratedCode {
			block(after.ID, "generated code of %s changed from %s to %s", after.ID, before.GeneratedCode, after.GeneratedCode)
		}
		if before.Claimed() && (!after.Claimed() || after.ClaimedBy != before.ClaimedBy || !sameMillis(before.ClaimTimestamp, after.ClaimTimestamp)) {
			block(after.ID, "claimed item %s is terminal", after.ID)
		}
	}
	return res, nil
}

func sameMillis(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
