// Package itemstore holds the ordered lost item records and their lifecycle.
// Records are kept most recent first.
package itemstore

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"lostfound/pkg/domain"
	"lostfound/pkg/itemcode"
)

// RuleLookup resolves rules by id.
type RuleLookup interface {
	Lookup(id string) (domain.EncodingRule, bool)
}

// Stamp carries the values Insert takes from its environment.
type Stamp struct {
	ID  string
	Now time.Time
	// Location is used for the time segment of the generated code.
	Location *time.Location
}

// Collection is not safe for concurrent use; the store mutex serializes it.
type Collection struct {
	items []domain.LostItem
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{}
}

// FromItems loads persisted records in their stored order. Records with an
// empty or repeated id are skipped.
func FromItems(items []domain.LostItem) *Collection {
	c := &Collection{items: make([]domain.LostItem, 0, len(items))}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		c.items = append(c.items, item.Clone())
	}
	return c
}

// Insert validates draft, freezes its generated code from the current rule
// codes and prepends the new record.
func (c *Collection) Insert(draft domain.ItemDraft, categories, locations RuleLookup, stamp Stamp) (domain.LostItem, error) {
	name := strings.TrimSpace(draft.ItemName)
	if name == "" {
		return domain.LostItem{}, domain.ValidationError{Field: "itemName", Reason: "required"}
	}
	category, ok := categories.Lookup(draft.TypeID)
	if !ok {
		return domain.LostItem{}, domain.NotFoundError{Entity: domain.EntityCategory, ID: draft.TypeID}
	}
	location, ok := locations.Lookup(draft.LocID)
	if !ok {
		return domain.LostItem{}, domain.NotFoundError{Entity: domain.EntityLocation, ID: draft.LocID}
	}
	if !category.Configured() {
		return domain.LostItem{}, domain.UnconfiguredRuleError{Namespace: domain.NamespaceCategory, ID: category.ID}
	}
	if !location.Configured() {
		return domain.LostItem{}, domain.UnconfiguredRuleError{Namespace: domain.NamespaceLocation, ID: location.ID}
	}
	floor := draft.Floor
	if floor == "" {
		floor = itemcode.DefaultFloor(location.Outdoor)
	}
	if err := itemcode.ValidateFloor(floor, location.Outdoor); err != nil {
		return domain.LostItem{}, err
	}
	if err := itemcode.ValidateFinder(draft.Grade, draft.ClassNum, draft.StudentID); err != nil {
		return domain.LostItem{}, err
	}
	if stamp.ID == "" {
		return domain.LostItem{}, fmt.Errorf("lost item id required")
	}
	if _, exists := c.Find(stamp.ID); exists {
		return domain.LostItem{}, fmt.Errorf("lost item %q already exists", stamp.ID)
	}
	found := draft.FoundAt
	if found.IsZero() {
		found = stamp.Now
	}
	if stamp.Location != nil {
		found = found.In(stamp.Location)
	}
	item := domain.LostItem{
		ID:        stamp.ID,
		TypeID:    category.ID,
		LocID:     location.ID,
		ItemName:  name,
		Floor:     floor,
		Timestamp: domain.ToMillis(found),
		Finder:    itemcode.FinderLabel(draft.Grade, draft.ClassNum, draft.StudentID),
		Grade:     draft.Grade,
		ClassNum:  draft.ClassNum,
		StudentID: draft.StudentID,
		GeneratedCode: itemcode.Compose(itemcode.Components{
			CategoryCode: category.Code,
			LocationCode: location.Code,
			Floor:        floor,
			Timestamp:    found,
			Grade:        draft.Grade,
			ClassNum:     draft.ClassNum,
			StudentID:    draft.StudentID,
		}),
		Status: domain.StatusLost,
	}
	c.items = slices.Insert(c.items, 0, item)
	return item.Clone(), nil
}

// Claim performs the single lost to claimed transition.
func (c *Collection) Claim(id, claimer string, at time.Time) (domain.LostItem, error) {
	i, ok := c.index(id)
	if !ok {
		return domain.LostItem{}, domain.NotFoundError{Entity: domain.EntityItem, ID: id}
	}
	current := c.items[i]
	if current.Claimed() {
		return domain.LostItem{}, domain.AlreadyClaimedError{ID: id, ClaimedBy: current.ClaimedBy}
	}
	claimer = strings.TrimSpace(claimer)
	if claimer == "" {
		return domain.LostItem{}, domain.ValidationError{Field: "claimedBy", Reason: "required"}
	}
	if at.IsZero() {
		return domain.LostItem{}, domain.ValidationError{Field: "claimTimestamp", Reason: "required"}
	}
	ts := domain.ToMillis(at)
	current.Status = domain.StatusClaimed
	current.ClaimedBy = claimer
	current.ClaimTimestamp = &ts
	c.items[i] = current
	return current.Clone(), nil
}

// Remove deletes an unclaimed record. Claimed records are kept; an absent id
// is a no-op reported by the bool.
func (c *Collection) Remove(id string) (domain.LostItem, bool, error) {
	i, ok := c.index(id)
	if !ok {
		return domain.LostItem{}, false, nil
	}
	removed := c.items[i]
	if removed.Claimed() {
		return domain.LostItem{}, false, domain.AlreadyClaimedError{ID: id, ClaimedBy: removed.ClaimedBy}
	}
	c.items = slices.Delete(c.items, i, i+1)
	return removed, true, nil
}

// Find returns the record with id.
func (c *Collection) Find(id string) (domain.LostItem, bool) {
	i, ok := c.index(id)
	if !ok {
		return domain.LostItem{}, false
	}
	return c.items[i].Clone(), true
}

// Filter returns a lazy sequence of the records matching pred. The sequence
// may be ranged over repeatedly; each pass sees the collection as it is then.
func (c *Collection) Filter(pred Predicate) iter.Seq[domain.LostItem] {
	return func(yield func(domain.LostItem) bool) {
		for _, item := range c.items {
			if pred != nil && !pred(item) {
				continue
			}
			if !yield(item.Clone()) {
				return
			}
		}
	}
}

// All iterates every record.
func (c *Collection) All() iter.Seq[domain.LostItem] {
	return c.Filter(nil)
}

// Items returns a copy of every record.
func (c *Collection) Items() []domain.LostItem {
	return slices.Collect(c.All())
}

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.items) }

// Clone returns an independent copy.
func (c *Collection) Clone() *Collection {
	cp := &Collection{items: make([]domain.LostItem, len(c.items))}
	for i, item := range c.items {
		cp.items[i] = item.Clone()
	}
	return cp
}

func (c *Collection) index(id string) (int, bool) {
	i := slices.IndexFunc(c.items, func(item domain.LostItem) bool { return item.ID == id })
	return i, i >= 0
}
