package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error kind. Typed errors below match them via errors.Is.
var (
	ErrDuplicateCode    = errors.New("duplicate code")
	ErrUnconfiguredRule = errors.New("unconfigured rule")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyClaimed   = errors.New("already claimed")
	ErrPersistenceParse = errors.New("persistence parse error")
)

// ErrorKind classifies errors for notification and metrics labels.
type ErrorKind string

// Error kinds.
const (
	KindDuplicateCode    ErrorKind = "duplicate_code"
	KindUnconfiguredRule ErrorKind = "unconfigured_rule"
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindAlreadyClaimed   ErrorKind = "already_claimed"
	KindPersistenceParse ErrorKind = "persistence_parse"
	KindRuleViolation    ErrorKind = "rule_violation"
	KindInternal         ErrorKind = "internal"
)

// DuplicateCodeError reports a code already held by another rule.
type DuplicateCodeError struct {
	Namespace Namespace
	Code      string
	HolderID  string
}

func (e DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s code %q already used by %s", e.Namespace, e.Code, e.HolderID)
}

// Is matches ErrDuplicateCode.
func (e DuplicateCodeError) Is(target error) bool { return target == ErrDuplicateCode }

// Kind returns KindDuplicateCode.
func (e DuplicateCodeError) Kind() ErrorKind { return KindDuplicateCode }

// UnconfiguredRuleError reports an item referencing a rule without a code.
type UnconfiguredRuleError struct {
	Namespace Namespace
	ID        string
}

func (e UnconfiguredRuleError) Error() string {
	return fmt.Sprintf("%s %s has no code configured", e.Namespace, e.ID)
}

// Is matches ErrUnconfiguredRule.
func (e UnconfiguredRuleError) Is(target error) bool { return target == ErrUnconfiguredRule }

// Kind returns KindUnconfiguredRule.
func (e UnconfiguredRuleError) Kind() ErrorKind { return KindUnconfiguredRule }

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// Kind returns KindValidation.
func (e ValidationError) Kind() ErrorKind { return KindValidation }

// NotFoundError is returned when reference validation fails.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Kind returns KindNotFound.
func (e NotFoundError) Kind() ErrorKind { return KindNotFound }

// AlreadyClaimedError reports a claim attempt on a terminal item.
type AlreadyClaimedError struct {
	ID        string
	ClaimedBy string
}

func (e AlreadyClaimedError) Error() string {
	return fmt.Sprintf("lost item %s already claimed by %s", e.ID, e.ClaimedBy)
}

// Is matches ErrAlreadyClaimed.
func (e AlreadyClaimedError) Is(target error) bool { return target == ErrAlreadyClaimed }

// Kind returns KindAlreadyClaimed.
func (e AlreadyClaimedError) Kind() ErrorKind { return KindAlreadyClaimed }

// PersistenceParseError wraps a snapshot decoding failure.
type PersistenceParseError struct {
	Err error
}

func (e PersistenceParseError) Error() string {
	return fmt.Sprintf("parse snapshot: %v", e.Err)
}

// Unwrap returns the decoding failure.
func (e PersistenceParseError) Unwrap() error { return e.Err }

// Is matches ErrPersistenceParse.
func (e PersistenceParseError) Is(target error) bool { return target == ErrPersistenceParse }

// Kind returns KindPersistenceParse.
func (e PersistenceParseError) Kind() ErrorKind { return KindPersistenceParse }

// KindOf classifies err. It returns the empty kind for nil.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateCode):
		return KindDuplicateCode
	case errors.Is(err, ErrUnconfiguredRule):
		return KindUnconfiguredRule
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyClaimed):
		return KindAlreadyClaimed
	case errors.Is(err, ErrPersistenceParse):
		return KindPersistenceParse
	}
	var rv RuleViolationError
	if errors.As(err, &rv) {
		return KindRuleViolation
	}
	return KindInternal
}
