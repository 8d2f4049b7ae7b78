// Package memory provides an in-memory implementation of the lost-and-found
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lostfound/internal/itemstore"
	"lostfound/internal/ruletable"
	"lostfound/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the exported aggregate.
	Snapshot = domain.Snapshot
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithLocation sets the zone generated codes are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator overrides id minting for categories and items.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.idFn = fn
		}
	}
}

// WithLogger sets the logger used by the store and the backends embedding it.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type memoryState struct {
	categories *ruletable.Table
	locations  *ruletable.Table
	items      *itemstore.Collection
}

func (s memoryState) clone() memoryState {
	return memoryState{
		categories: s.categories.Clone(),
		locations:  s.locations.Clone(),
		items:      s.items.Clone(),
	}
}

func (s memoryState) table(ns domain.Namespace) (*ruletable.Table, error) {
	switch ns {
	case domain.NamespaceCategory:
		return s.categories, nil
	case domain.NamespaceLocation:
		return s.locations, nil
	default:
		return nil, domain.ValidationError{Field: "namespace", Reason: fmt.Sprintf("unknown namespace %q", ns)}
	}
}

func (s memoryState) export() Snapshot {
	return Snapshot{
		Categories: s.categories.Rules(),
		Locations:  s.locations.Rules(),
		LostItems:  s.items.Items(),
	}.Clone()
}

// Store provides an in-memory transactional store for the lost-and-found aggregate.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	loc    *time.Location
	idFn   func() string
	logger *zap.Logger
}

// NewStore constructs an in-memory store backed by the provided rules engine.
// The store starts from the default snapshot.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		engine: engine,
		nowFn:  time.Now,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.stateFromSnapshot(domain.DefaultSnapshot())
	return s
}

func (s *Store) stateFromSnapshot(snapshot Snapshot) memoryState {
	snapshot = domain.MigrateSnapshot(snapshot)
	var tableOpts []ruletable.Option
	if s.idFn != nil {
		tableOpts = append(tableOpts, ruletable.WithIDGenerator(s.idFn))
	}
	return memoryState{
		categories: ruletable.FromRules(domain.NamespaceCategory, snapshot.Categories, tableOpts...),
		locations:  ruletable.FromRules(domain.NamespaceLocation, snapshot.Locations, ruletable.Fixed()),
		items:      itemstore.FromItems(snapshot.LostItems),
	}
}

func (s *Store) newItemID() string {
	if s.idFn != nil {
		return s.idFn()
	}
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.export()
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) error {
	s.replace(snapshot)
	return nil
}

func (s *Store) replace(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.stateFromSnapshot(snapshot)
}

// ImportDocument replaces the store state with a persisted snapshot
// document. An unreadable document falls back to the default snapshot and
// inconsistent records are dropped; both are logged.
func (s *Store) ImportDocument(data []byte) {
	snapshot, err := domain.DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn("persisted snapshot recovered", zap.Error(err))
	}
	s.replace(snapshot)
}

// ExportDocument serializes the current store state.
func (s *Store) ExportDocument() ([]byte, error) {
	return domain.EncodeSnapshot(s.ExportState())
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Logger returns the configured logger.
func (s *Store) Logger() *zap.Logger {
	return s.logger
}

// Location returns the zone generated codes are rendered in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Nothing is committed when fn fails or a blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state, s.loc)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot, s.loc))
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state, tx.store.loc)
}

// AddCategory appends a category rule.
func (tx *transaction) AddCategory(label, rawCode string) (domain.EncodingRule, error) {
	rule, err := tx.state.categories.Add(label, rawCode)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityCategory, Action: domain.ActionCreate, After: domain.PayloadOf(rule)})
	return rule, nil
}

// RemoveCategory deletes a category rule. Items keep their dangling typeId.
func (tx *transaction) RemoveCategory(id string) error {
	removed, ok, err := tx.state.categories.Remove(id)
	if err != nil || !ok {
		return err
	}
	tx.recordChange(Change{Entity: domain.EntityCategory, Action: domain.ActionDelete, Before: domain.PayloadOf(removed)})
	return nil
}

// UpdateRuleLabel relabels a rule in ns.
func (tx *transaction) UpdateRuleLabel(ns domain.Namespace, id, label string) (domain.EncodingRule, error) {
	table, err := tx.state.table(ns)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	before, _ := table.Lookup(id)
	rule, err := table.UpdateLabel(id, label)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	tx.recordChange(Change{Entity: ns.Entity(), Action: domain.ActionUpdate, Before: domain.PayloadOf(before), After: domain.PayloadOf(rule)})
	return rule, nil
}

// UpdateRuleCode recodes a rule in ns. Existing item codes are not touched.
func (tx *transaction) UpdateRuleCode(ns domain.Namespace, id, rawCode string) (domain.EncodingRule, error) {
	table, err := tx.state.table(ns)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	before, _ := table.Lookup(id)
	rule, err := table.UpdateCode(id, rawCode)
	if err != nil {
		return domain.EncodingRule{}, err
	}
	tx.recordChange(Change{Entity: ns.Entity(), Action: domain.ActionUpdate, Before: domain.PayloadOf(before), After: domain.PayloadOf(rule)})
	return rule, nil
}

// InsertItem registers a lost item with its generated code.
func (tx *transaction) InsertItem(draft domain.ItemDraft) (domain.LostItem, error) {
	item, err := tx.state.items.Insert(draft, tx.state.categories, tx.state.locations, itemstore.Stamp{
		ID:       tx.store.newItemID(),
		Now:      tx.now,
		Location: tx.store.loc,
	})
	if err != nil {
		return domain.LostItem{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionCreate, After: domain.PayloadOf(item)})
	return item, nil
}

// ClaimItem marks a lost item claimed. A zero at means the transaction time.
func (tx *transaction) ClaimItem(id, claimer string, at time.Time) (domain.LostItem, error) {
	if at.IsZero() {
		at = tx.now
	}
	before, _ := tx.state.items.Find(id)
	item, err := tx.state.items.Claim(id, claimer, at)
	if err != nil {
		return domain.LostItem{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionUpdate, Before: domain.PayloadOf(before), After: domain.PayloadOf(item)})
	return item, nil
}

// RemoveItem deletes an unclaimed item. Unknown ids are ignored.
func (tx *transaction) RemoveItem(id string) error {
	removed, ok, err := tx.state.items.Remove(id)
	if err != nil || !ok {
		return err
	}
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionDelete, Before: domain.PayloadOf(removed)})
	return nil
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
	loc   *time.Location
}

func newTransactionView(state *memoryState, loc *time.Location) TransactionView {
	return transactionView{state: state, loc: loc}
}

func (v transactionView) ListCategories() []domain.EncodingRule { return v.state.categories.Rules() }

func (v transactionView) ListLocations() []domain.EncodingRule { return v.state.locations.Rules() }

func (v transactionView) ListItems() []domain.LostItem { return v.state.items.Items() }

func (v transactionView) FindCategory(id string) (domain.EncodingRule, bool) {
	return v.state.categories.Lookup(id)
}

func (v transactionView) FindLocation(id string) (domain.EncodingRule, bool) {
	return v.state.locations.Lookup(id)
}

func (v transactionView) FindItem(id string) (domain.LostItem, bool) {
	return v.state.items.Find(id)
}

// FilterItems lazily yields items matching pred, most recent first.
func (v transactionView) FilterItems(pred func(domain.LostItem) bool) iter.Seq[domain.LostItem] {
	return v.state.items.Filter(pred)
}

func (v transactionView) Location() *time.Location { return v.loc }

func (v transactionView) Export() Snapshot { return v.state.export() }
