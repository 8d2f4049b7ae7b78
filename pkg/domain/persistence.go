package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	AddCategory(label, rawCode string) (EncodingRule, error)
	RemoveCategory(id string) error
	UpdateRuleLabel(ns Namespace, id, label string) (EncodingRule, error)
	UpdateRuleCode(ns Namespace, id, rawCode string) (EncodingRule, error)
	InsertItem(draft ItemDraft) (LostItem, error)
	ClaimItem(id, claimer string, at time.Time) (LostItem, error)
	RemoveItem(id string) error
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	Location() *time.Location
	Export() Snapshot
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	// ImportState replaces the aggregate. Durable backends keep the previous
	// state when the new one cannot be written.
	ImportState(Snapshot) error
}
