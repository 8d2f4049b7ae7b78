// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by lostfound.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and violations.
const (
	// EntityCategory identifies a category encoding rule.
	EntityCategory EntityType = "category"
	// EntityLocation identifies a location encoding rule.
	EntityLocation EntityType = "location"
	// EntityItem identifies a lost item record.
	EntityItem EntityType = "lost_item"
)

// Namespace names one of the two independent rule sets.
type Namespace string

// Rule namespaces. Codes are unique within a namespace, never across them.
const (
	NamespaceCategory Namespace = "category"
	NamespaceLocation Namespace = "location"
)

// Entity returns the entity type rules in the namespace are recorded as.
func (n Namespace) Entity() EntityType {
	if n == NamespaceLocation {
		return EntityLocation
	}
	return EntityCategory
}

// Valid reports whether n is a known namespace.
func (n Namespace) Valid() bool {
	return n == NamespaceCategory || n == NamespaceLocation
}

// ParseNamespace resolves a free-form namespace name.
func ParseNamespace(raw string) (Namespace, error) {
	ns := Namespace(strings.ToLower(strings.TrimSpace(raw)))
	if !ns.Valid() {
		return "", ValidationError{Field: "namespace", Reason: fmt.Sprintf("unknown namespace %q", raw)}
	}
	return ns, nil
}

// ItemStatus represents the lifecycle state of a lost item.
type ItemStatus string

// Item lifecycle states. StatusLost is initial, StatusClaimed is terminal.
const (
	StatusLost    ItemStatus = "lost"
	StatusClaimed ItemStatus = "claimed"
)

// Valid reports whether s is a known lifecycle state.
func (s ItemStatus) Valid() bool {
	return s == StatusLost || s == StatusClaimed
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// EncodingRule maps a display label to a single character code.
// An empty Code means the rule is not configured yet.
type EncodingRule struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Code  string `json:"code"`
	// Outdoor locks the floor digit to "0". Only meaningful for locations.
	Outdoor bool `json:"outdoor,omitempty"`
}

// Configured reports whether the rule carries a code.
func (r EncodingRule) Configured() bool {
	return r.Code != ""
}

// LostItem is a reported item and its lifecycle state.
type LostItem struct {
	ID             string     `json:"id"`
	TypeID         string     `json:"typeId"`
	LocID          string     `json:"locId"`
	ItemName       string     `json:"itemName"`
	Floor          string     `json:"floor"`
	Timestamp      int64      `json:"timestamp"`
	Finder         string     `json:"finder"`
	Grade          string     `json:"grade"`
	ClassNum       string     `json:"classNum"`
	StudentID      string     `json:"studentId"`
	GeneratedCode  string     `json:"generatedCode"`
	Status         ItemStatus `json:"status"`
	ClaimedBy      string     `json:"claimedBy,omitempty"`
	ClaimTimestamp *int64     `json:"claimTimestamp,omitempty"`
}

// Claimed reports whether the item reached its terminal state.
func (i LostItem) Claimed() bool {
	return i.Status == StatusClaimed
}

// FoundAt converts the found timestamp into loc.
func (i LostItem) FoundAt(loc *time.Location) time.Time {
	return FromMillis(i.Timestamp, loc)
}

// ClaimedAt returns the claim time and whether one is recorded.
func (i LostItem) ClaimedAt(loc *time.Location) (time.Time, bool) {
	if i.ClaimTimestamp == nil {
		return time.Time{}, false
	}
	return FromMillis(*i.ClaimTimestamp, loc), true
}

// Clone returns a deep copy of the item.
func (i LostItem) Clone() LostItem {
	cp := i
	if i.ClaimTimestamp != nil {
		ts := *i.ClaimTimestamp
		cp.ClaimTimestamp = &ts
	}
	return cp
}

// ItemDraft carries the user-supplied inputs of a new item.
// A zero FoundAt means the moment of entry. An empty Floor selects the
// location default.
type ItemDraft struct {
	TypeID    string    `json:"typeId"`
	LocID     string    `json:"locId"`
	ItemName  string    `json:"itemName"`
	Floor     string    `json:"floor,omitempty"`
	FoundAt   time.Time `json:"foundAt,omitzero"`
	Grade     string    `json:"grade"`
	ClassNum  string    `json:"classNum"`
	StudentID string    `json:"studentId"`
}

// ToMillis converts t to epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds into loc, defaulting to time.Local.
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the change log.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
