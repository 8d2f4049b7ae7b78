package core

import (
	"iter"
	"math"
	"time"

	"lostfound/internal/itemstore"
	"lostfound/internal/ruletable"
	"lostfound/pkg/domain"
)

// UnknownLabel is shown for ids no longer present in a rule table.
const UnknownLabel = "未知"

// Bucket is one row of a distribution.
type Bucket struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// QueryFacade answers read questions over one snapshot. Every projection is
// recomputed from the snapshot on each call.
type QueryFacade struct {
	categories *ruletable.Table
	locations  *ruletable.Table
	items      *itemstore.Collection
	loc        *time.Location
}

// NewQueryFacade builds a read model over snapshot. loc defaults to time.Local.
func NewQueryFacade(snapshot Snapshot, loc *time.Location) *QueryFacade {
	if loc == nil {
		loc = time.Local
	}
	return &QueryFacade{
		categories: ruletable.FromRules(domain.NamespaceCategory, snapshot.Categories),
		locations:  ruletable.FromRules(domain.NamespaceLocation, snapshot.Locations, ruletable.Fixed()),
		items:      itemstore.FromItems(snapshot.LostItems),
		loc:        loc,
	}
}

// Location is the zone timestamps are rendered in.
func (q *QueryFacade) Location() *time.Location { return q.loc }

// Categories lists category rules in table order.
func (q *QueryFacade) Categories() []EncodingRule { return q.categories.Rules() }

// Locations lists location rules in table order.
func (q *QueryFacade) Locations() []EncodingRule { return q.locations.Rules() }

// Items lists all records, most recent first.
func (q *QueryFacade) Items() []LostItem { return q.items.Items() }

// Total is the number of records.
func (q *QueryFacade) Total() int { return q.items.Len() }

// Find returns one record.
func (q *QueryFacade) Find(id string) (LostItem, bool) { return q.items.Find(id) }

// CountByStatus counts records in one lifecycle state.
func (q *QueryFacade) CountByStatus(status ItemStatus) int {
	return itemstore.Count(q.items.Filter(itemstore.WithStatus(status)))
}

// DistributionByCategory counts records per category in table order,
// including zero counts. Records whose category was removed are counted in
// a trailing UnknownLabel bucket, present only when non-empty.
func (q *QueryFacade) DistributionByCategory() []Bucket {
	return q.distribution(q.categories, func(item LostItem) string { return item.TypeID })
}

// DistributionByLocation counts records per location in table order.
func (q *QueryFacade) DistributionByLocation() []Bucket {
	return q.distribution(q.locations, func(item LostItem) string { return item.LocID })
}

func (q *QueryFacade) distribution(table *ruletable.Table, ref func(LostItem) string) []Bucket {
	counts := make(map[string]int, table.Len())
	for item := range q.items.All() {
		counts[ref(item)]++
	}
	out := make([]Bucket, 0, table.Len()+1)
	for rule := range table.All() {
		out = append(out, Bucket{ID: rule.ID, Label: rule.Label, Code: rule.Code, Count: counts[rule.ID]})
		delete(counts, rule.ID)
	}
	unknown := 0
	for _, n := range counts {
		unknown += n
	}
	if unknown > 0 {
		out = append(out, Bucket{Label: UnknownLabel, Count: unknown})
	}
	return out
}

// ClaimRate is claimed/total in [0,1], or 0 when there are no records.
func (q *QueryFacade) ClaimRate() float64 {
	total := q.Total()
	if total == 0 {
		return 0
	}
	return float64(q.CountByStatus(domain.StatusClaimed)) / float64(total)
}

// ClaimRatePercent is ClaimRate as a rounded percentage.
func (q *QueryFacade) ClaimRatePercent() int {
	return int(math.Round(q.ClaimRate() * 100))
}

// Search lazily yields records of categoryID (empty or "all" for every
// category) where any searchable field contains term.
func (q *QueryFacade) Search(term, categoryID string) iter.Seq[LostItem] {
	return q.items.Filter(itemstore.And(itemstore.InCategory(categoryID), itemstore.MatchesSearch(term)))
}

// Filter lazily yields the records accepted by pred.
func (q *QueryFacade) Filter(pred itemstore.Predicate) iter.Seq[LostItem] {
	return q.items.Filter(pred)
}

// CategoryLabel resolves a category id, or UnknownLabel.
func (q *QueryFacade) CategoryLabel(id string) string {
	return labelOf(q.categories, id)
}

// LocationLabel resolves a location id, or UnknownLabel.
func (q *QueryFacade) LocationLabel(id string) string {
	return labelOf(q.locations, id)
}

func labelOf(table *ruletable.Table, id string) string {
	if rule, ok := table.Lookup(id); ok {
		return rule.Label
	}
	return UnknownLabel
}
