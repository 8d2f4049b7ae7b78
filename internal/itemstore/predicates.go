package itemstore

import (
	"iter"
	"strings"

	"lostfound/pkg/domain"
)

// Predicate selects records.
type Predicate func(domain.LostItem) bool

// AllCategories is the category filter value that matches everything.
const AllCategories = "all"

// MatchesSearch matches records where any of item name, generated code,
// finder or claimer contains term, ignoring case. A blank term matches all.
func MatchesSearch(term string) Predicate {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return func(domain.LostItem) bool { return true }
	}
	return func(item domain.LostItem) bool {
		for _, field := range []string{item.ItemName, item.GeneratedCode, item.Finder, item.ClaimedBy} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}
}

// InCategory matches records of one category. "" and AllCategories match all.
func InCategory(typeID string) Predicate {
	if typeID == "" || typeID == AllCategories {
		return func(domain.LostItem) bool { return true }
	}
	return func(item domain.LostItem) bool { return item.TypeID == typeID }
}

// AtLocation matches records found at one location.
func AtLocation(locID string) Predicate {
	return func(item domain.LostItem) bool { return item.LocID == locID }
}

// WithStatus matches records in one lifecycle state.
func WithStatus(status domain.ItemStatus) Predicate {
	return func(item domain.LostItem) bool { return item.Status == status }
}

// And matches records satisfying every predicate. Nil predicates are ignored.
func And(preds ...Predicate) Predicate {
	return func(item domain.LostItem) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Count consumes seq and returns its length.
func Count[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}
