package core

import "lostfound/pkg/domain"

type (
	EntityType           = domain.EntityType
	Namespace            = domain.Namespace
	ItemStatus           = domain.ItemStatus
	Severity             = domain.Severity
	EncodingRule         = domain.EncodingRule
	LostItem             = domain.LostItem
	ItemDraft            = domain.ItemDraft
	Snapshot             = domain.Snapshot
	Change               = domain.Change
	Action               = domain.Action
	Violation            = domain.Violation
	Result               = domain.Result
	RuleViolationError   = domain.RuleViolationError
	Notifier             = domain.Notifier
	NotificationSeverity = domain.NotificationSeverity
)

const (
	EntityCategory = domain.EntityCategory
	EntityLocation = domain.EntityLocation
	EntityItem     = domain.EntityItem
)

const (
	NamespaceCategory = domain.NamespaceCategory
	NamespaceLocation = domain.NamespaceLocation
)

const (
	StatusLost    = domain.StatusLost
	StatusClaimed = domain.StatusClaimed
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
