package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lostfound/pkg/domain"
	"lostfound/pkg/itemcode"
)

// Operation names used for audit, metrics and trace spans.
const (
	opAddCategory         = "add_category"
	opRemoveCategory      = "remove_category"
	opUpdateCategoryLabel = "update_category_label"
	opUpdateCategoryCode  = "update_category_code"
	opUpdateLocationCode  = "update_location_code"
	opRegisterItem        = "register_item"
	opClaimItem           = "claim_item"
	opRemoveItem          = "remove_item"
)

type operationMeta struct {
	entity EntityType
	action Action
}

var operationMetadata = map[string]operationMeta{
	opAddCategory:         {EntityCategory, ActionCreate},
	opRemoveCategory:      {EntityCategory, ActionDelete},
	opUpdateCategoryLabel: {EntityCategory, ActionUpdate},
	opUpdateCategoryCode:  {EntityCategory, ActionUpdate},
	opUpdateLocationCode:  {EntityLocation, ActionUpdate},
	opRegisterItem:        {EntityItem, ActionCreate},
	opClaimItem:           {EntityItem, ActionUpdate},
	opRemoveItem:          {EntityItem, ActionDelete},
}

// Service owns the aggregate and maps every operator action to one named,
// transactional operation.
type Service struct {
	store    domain.PersistentStore
	logger   *zap.Logger
	now      func() time.Time
	loc      *time.Location
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	notifier domain.Notifier
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	s := &Service{
		store:    store,
		logger:   options.logger,
		now:      time.Now,
		loc:      time.Local,
		audit:    options.audit,
		metrics:  options.metrics,
		tracer:   options.tracer,
		notifier: options.notifier,
	}
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			s.now = fn
		}
	}
	if options.clock != nil {
		s.now = options.clock.Now
	}
	if zoned, ok := store.(interface{ Location() *time.Location }); ok && zoned.Location() != nil {
		s.loc = zoned.Location()
	}
	if options.location != nil {
		s.loc = options.location
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Location returns the zone item times are rendered in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// AddCategory creates a category rule.
func (s *Service) AddCategory(ctx context.Context, label, rawCode string) (EncodingRule, Result, error) {
	var created EncodingRule
	res, err := s.execute(ctx, opAddCategory, func(tx domain.Transaction) (string, error) {
		var err error
		created, err = tx.AddCategory(label, rawCode)
		return created.ID, err
	})
	if err == nil {
		s.notifier.Notify(domain.NotifySuccess, msgCategoryAdded(created))
	}
	return created, res, err
}

// RemoveCategory deletes a category rule; unknown ids are a no-op. Items
// referencing it keep their code and render the category as unknown.
func (s *Service) RemoveCategory(ctx context.Context, id string) (Result, error) {
	var removed EncodingRule
	var found bool
	res, err := s.execute(ctx, opRemoveCategory, func(tx domain.Transaction) (string, error) {
		removed, found = tx.Snapshot().FindCategory(id)
		return id, tx.RemoveCategory(id)
	})
	if err == nil && found {
		s.notifier.Notify(domain.NotifySuccess, msgCategoryRemoved(removed))
	}
	return res, err
}

// UpdateCategoryLabel relabels a category rule.
func (s *Service) UpdateCategoryLabel(ctx context.Context, id, label string) (EncodingRule, Result, error) {
	return s.updateRule(ctx, opUpdateCategoryLabel, id, func(tx domain.Transaction) (EncodingRule, error) {
		return tx.UpdateRuleLabel(domain.NamespaceCategory, id, label)
	})
}

// UpdateCategoryCode recodes a category rule. Items keep the code they were created with.
func (s *Service) UpdateCategoryCode(ctx context.Context, id, rawCode string) (EncodingRule, Result, error) {
	return s.updateRule(ctx, opUpdateCategoryCode, id, func(tx domain.Transaction) (EncodingRule, error) {
		return tx.UpdateRuleCode(domain.NamespaceCategory, id, rawCode)
	})
}

// UpdateLocationCode recodes one of the fixed locations.
func (s *Service) UpdateLocationCode(ctx context.Context, id, rawCode string) (EncodingRule, Result, error) {
	return s.updateRule(ctx, opUpdateLocationCode, id, func(tx domain.Transaction) (EncodingRule, error) {
		return tx.UpdateRuleCode(domain.NamespaceLocation, id, rawCode)
	})
}

func (s *Service) updateRule(ctx context.Context, op, id string, fn func(domain.Transaction) (EncodingRule, error)) (EncodingRule, Result, error) {
	var updated EncodingRule
	res, err := s.execute(ctx, op, func(tx domain.Transaction) (string, error) {
		var err error
		updated, err = fn(tx)
		return id, err
	})
	if err == nil {
		s.notifier.Notify(domain.NotifySuccess, msgRuleUpdated(updated))
	}
	return updated, res, err
}

// RegisterItem validates the draft and records a new lost item with its
// generated code.
func (s *Service) RegisterItem(ctx context.Context, draft ItemDraft) (LostItem, Result, error) {
	var created LostItem
	res, err := s.execute(ctx, opRegisterItem, func(tx domain.Transaction) (string, error) {
		var err error
		created, err = tx.InsertItem(draft)
		return created.ID, err
	})
	if err == nil {
		s.notifier.Notify(domain.NotifySuccess, msgItemRegistered(created))
	}
	return created, res, err
}

// ClaimItem marks an item returned to claimer. A zero at means now.
func (s *Service) ClaimItem(ctx context.Context, id, claimer string, at time.Time) (LostItem, Result, error) {
	if at.IsZero() {
		at = s.now()
	}
	var claimed LostItem
	res, err := s.execute(ctx, opClaimItem, func(tx domain.Transaction) (string, error) {
		var err error
		claimed, err = tx.ClaimItem(id, claimer, at)
		return id, err
	})
	if err == nil {
		s.notifier.Notify(domain.NotifySuccess, msgItemClaimed(claimed))
	}
	return claimed, res, err
}

// RemoveItem deletes an unclaimed item; unknown ids are a no-op.
func (s *Service) RemoveItem(ctx context.Context, id string) (Result, error) {
	var removed LostItem
	var found bool
	res, err := s.execute(ctx, opRemoveItem, func(tx domain.Transaction) (string, error) {
		removed, found = tx.Snapshot().FindItem(id)
		return id, tx.RemoveItem(id)
	})
	if err == nil && found {
		s.notifier.Notify(domain.NotifySuccess, msgItemRemoved(removed))
	}
	return res, err
}

// PreviewCode composes the code draft would receive, without validating it.
// Unknown or unconfigured rules render as "?" and a zero FoundAt renders the
// time sentinel.
func (s *Service) PreviewCode(ctx context.Context, draft ItemDraft) (string, error) {
	var code string
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		category, _ := view.FindCategory(draft.TypeID)
		location, _ := view.FindLocation(draft.LocID)
		floor := draft.Floor
		if floor == "" {
			floor = itemcode.DefaultFloor(location.Outdoor)
		}
		var at time.Time
		if !draft.FoundAt.IsZero() {
			at = draft.FoundAt.In(s.loc)
		}
		code = itemcode.Compose(itemcode.Components{
			CategoryCode: category.Code,
			LocationCode: location.Code,
			Floor:        floor,
			Timestamp:    at,
			Grade:        draft.Grade,
			ClassNum:     draft.ClassNum,
			StudentID:    draft.StudentID,
		})
		return nil
	})
	return code, err
}

// Query returns a read model over the current snapshot.
func (s *Service) Query(ctx context.Context) (*QueryFacade, error) {
	var facade *QueryFacade
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		facade = NewQueryFacade(view.Export(), s.loc)
		return nil
	})
	return facade, err
}

// Label returns the label view of one item.
func (s *Service) Label(ctx context.Context, id string) (LabelView, error) {
	q, err := s.Query(ctx)
	if err != nil {
		return LabelView{}, err
	}
	return q.Label(id)
}

// ExportSnapshot returns a copy of the whole aggregate.
func (s *Service) ExportSnapshot() Snapshot {
	return s.store.ExportState()
}

// ImportSnapshot replaces the whole aggregate. Legacy documents are migrated first.
func (s *Service) ImportSnapshot(snapshot Snapshot) error {
	migrated := domain.MigrateSnapshot(snapshot)
	if err := domain.ValidateSnapshot(migrated); err != nil {
		s.logger.Warn("rejected snapshot import", zap.Error(err))
		return fmt.Errorf("import snapshot: %w", err)
	}
	if err := s.store.ImportState(migrated); err != nil {
		s.logger.Error("snapshot import failed", zap.Error(err))
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.logger.Info("snapshot imported",
		zap.Int("categories", len(migrated.Categories)),
		zap.Int("items", len(migrated.LostItems)))
	return nil
}

// execute runs fn in a store transaction and reports the outcome to the
// tracer, metrics, audit log, logger and notifier.
func (s *Service) execute(ctx context.Context, op string, fn func(domain.Transaction) (string, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		entityID, err = fn(tx)
		return err
	})
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	if err != nil {
		s.recordAuditError(ctx, op, entityID, duration, err)
		s.logger.Warn("operation failed",
			zap.String("operation", op),
			zap.String("entity_id", entityID),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
		s.notifier.Notify(domain.NotifyError, failureMessage(op, err))
		return res, err
	}
	s.recordAuditSuccess(ctx, op, entityID, duration)
	s.logger.Debug("operation committed",
		zap.String("operation", op),
		zap.String("entity_id", entityID),
		zap.Duration("duration", duration))
	for _, warning := range res.Warnings() {
		s.logger.Warn("rule warning",
			zap.String("operation", op),
			zap.String("rule", warning.Rule),
			zap.String("entity_id", warning.EntityID),
			zap.String("message", warning.Message))
		s.notifier.Notify(domain.NotifyInfo, warning.Message)
	}
	return res, nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	s.recordAudit(ctx, op, entityID, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := operationMetadata[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now().UTC(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
