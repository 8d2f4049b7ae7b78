// Package ruletable holds the ordered encoding rules of one namespace and
// enforces per-namespace code uniqueness.
package ruletable

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/google/uuid"

	"lostfound/pkg/domain"
	"lostfound/pkg/itemcode"
)

// Option configures a Table.
type Option func(*Table)

// WithIDGenerator overrides rule id minting.
func WithIDGenerator(fn func() string) Option {
	return func(t *Table) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// Fixed marks the table as a preset set: rules can only be recoded.
func Fixed() Option {
	return func(t *Table) { t.fixed = true }
}

// Table is an ordered rule collection. It is not safe for concurrent use;
// callers serialize access (the store mutex does).
type Table struct {
	ns    domain.Namespace
	fixed bool
	rules []domain.EncodingRule
	newID func() string
}

// New returns an empty table for ns.
func New(ns domain.Namespace, opts ...Option) *Table {
	t := &Table{ns: ns}
	t.newID = func() string { return idPrefix(ns) + uuid.NewString() }
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromRules builds a table from persisted rules, keeping their order. When two
// rules share a code the later one is loaded unconfigured.
func FromRules(ns domain.Namespace, rules []domain.EncodingRule, opts ...Option) *Table {
	t := New(ns, opts...)
	seenID := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.ID == "" || seenID[rule.ID] {
			continue
		}
		seenID[rule.ID] = true
		if rule.Code != "" && t.holderOf(rule.Code, "") != "" {
			rule.Code = ""
		}
		t.rules = append(t.rules, rule)
	}
	return t
}

func idPrefix(ns domain.Namespace) string {
	if ns == domain.NamespaceLocation {
		return "l-"
	}
	return "c-"
}

// Namespace returns the table namespace.
func (t *Table) Namespace() domain.Namespace { return t.ns }

// IsFixed reports whether rules may be added or removed.
func (t *Table) IsFixed() bool { return t.fixed }

// Add appends a rule. The code is normalized first and must not be held by
// another rule of the namespace.
func (t *Table) Add(label, rawCode string) (domain.EncodingRule, error) {
	if err := t.mutable("add"); err != nil {
		return domain.EncodingRule{}, err
	}
	label, err := cleanLabel(label)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	code, err := itemcode.NormalizeCode(rawCode)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	if holder := t.holderOf(code, ""); holder != "" {
		return domain.EncodingRule{}, domain.DuplicateCodeError{Namespace: t.ns, Code: code, HolderID: holder}
	}
	id := t.newID()
	if _, ok := t.index(id); ok || id == "" {
		return domain.EncodingRule{}, fmt.Errorf("%s id %q already in use", t.ns, id)
	}
	rule := domain.EncodingRule{ID: id, Label: label, Code: code}
	t.rules = append(t.rules, rule)
	return rule, nil
}

// Remove deletes a rule. Removing an absent id is a no-op reported by the bool.
func (t *Table) Remove(id string) (domain.EncodingRule, bool, error) {
	if err := t.mutable("remove"); err != nil {
		return domain.EncodingRule{}, false, err
	}
	i, ok := t.index(id)
	if !ok {
		return domain.EncodingRule{}, false, nil
	}
	removed := t.rules[i]
	t.rules = slices.Delete(t.rules, i, i+1)
	return removed, true, nil
}

// UpdateLabel replaces a rule label. Labels need not be unique.
func (t *Table) UpdateLabel(id, label string) (domain.EncodingRule, error) {
	if err := t.mutable("relabel"); err != nil {
		return domain.EncodingRule{}, err
	}
	label, err := cleanLabel(label)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	i, ok := t.index(id)
	if !ok {
		return domain.EncodingRule{}, t.notFound(id)
	}
	t.rules[i].Label = label
	return t.rules[i], nil
}

// UpdateCode recodes a rule. A conflict with another rule leaves the table
// untouched; re-setting or clearing the rule's own code always succeeds.
func (t *Table) UpdateCode(id, rawCode string) (domain.EncodingRule, error) {
	code, err := itemcode.NormalizeCode(rawCode)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	i, ok := t.index(id)
	if !ok {
		return domain.EncodingRule{}, t.notFound(id)
	}
	if holder := t.holderOf(code, id); holder != "" {
		return domain.EncodingRule{}, domain.DuplicateCodeError{Namespace: t.ns, Code: code, HolderID: holder}
	}
	t.rules[i].Code = code
	return t.rules[i], nil
}

// FindByID returns the rule or a NotFoundError.
func (t *Table) FindByID(id string) (domain.EncodingRule, error) {
	rule, ok := t.Lookup(id)
	if !ok {
		return domain.EncodingRule{}, t.notFound(id)
	}
	return rule, nil
}

// Lookup returns the rule with id.
func (t *Table) Lookup(id string) (domain.EncodingRule, bool) {
	i, ok := t.index(id)
	if !ok {
		return domain.EncodingRule{}, false
	}
	return t.rules[i], true
}

// HolderOf returns the id of the rule holding code, or "".
func (t *Table) HolderOf(code string) string {
	return t.holderOf(code, "")
}

// Rules returns a copy of the rules in table order.
func (t *Table) Rules() []domain.EncodingRule {
	return slices.Clone(t.rules)
}

// All iterates rules in table order.
func (t *Table) All() iter.Seq[domain.EncodingRule] {
	return slices.Values(t.Rules())
}

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Clone returns an independent copy sharing the id generator.
func (t *Table) Clone() *Table {
	return &Table{ns: t.ns, fixed: t.fixed, rules: slices.Clone(t.rules), newID: t.newID}
}

func (t *Table) index(id string) (int, bool) {
	i := slices.IndexFunc(t.rules, func(r domain.EncodingRule) bool { return r.ID == id })
	return i, i >= 0
}

// holderOf finds another rule holding a non-empty code, ignoring self.
func (t *Table) holderOf(code, self string) string {
	if code == "" {
		return ""
	}
	for _, r := range t.rules {
		if r.Code == code && r.ID != self {
			return r.ID
		}
	}
	return ""
}

func (t *Table) mutable(op string) error {
	if t.fixed {
		return domain.ValidationError{Field: "namespace", Reason: fmt.Sprintf("cannot %s rules in the fixed %s namespace", op, t.ns)}
	}
	return nil
}

func (t *Table) notFound(id string) error {
	return domain.NotFoundError{Entity: t.ns.Entity(), ID: id}
}

func cleanLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", domain.ValidationError{Field: "label", Reason: "required"}
	}
	return label, nil
}
