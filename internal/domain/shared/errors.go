// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrCreatureDead    = errors.New("creature is dead")
	ErrCreatureAlive   = errors.New("creature is not dead")
	ErrInactive        = errors.New("inactive")
	ErrExpired         = errors.New("expired")

	// Economy errors
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "creature", "ledger", "social"
	Op      string // Operation that failed, e.g., "Feed", "Transfer"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Creature domain errors
var (
	ErrCreatureNotFound      = NewDomainError("creature", "Find", ErrNotFound, "creature not found")
	ErrCreatureAlreadyExists = NewDomainError("creature", "Register", ErrAlreadyExists, "creature already registered")
	ErrAppURLTaken           = NewDomainError("creature", "Register", ErrAlreadyExists, "app URL already registered")
	ErrInvalidAppURL         = NewDomainError("creature", "Validate", ErrInvalidFormat, "invalid app URL")
	ErrInvalidCreatureName   = NewDomainError("creature", "Validate", ErrInvalidInput, "invalid creature name")
	ErrCreatureNotAlive      = NewDomainError("creature", "CheckStatus", ErrCreatureDead, "creature is dead")
	ErrCreatureNotDead       = NewDomainError("creature", "Revive", ErrCreatureAlive, "only a dead creature can be revived")
	ErrCreatureInactive      = NewDomainError("creature", "CheckStatus", ErrInactive, "creature is inactive")
	ErrStageRegression       = NewDomainError("creature", "Evolve", ErrStateTransition, "evolution stage cannot decrease")
)

// Ledger domain errors
var (
	ErrTransactionNotFound = NewDomainError("ledger", "Find", ErrNotFound, "transaction not found")
	ErrNotEnoughTokens     = NewDomainError("ledger", "Spend", ErrInsufficientBalance, "not enough tokens")
	ErrInvalidAmount       = NewDomainError("ledger", "Validate", ErrValueOutOfRange, "amount must be positive")
	ErrNegativeBalance     = NewDomainError("ledger", "Apply", ErrInsufficientBalance, "balance cannot go negative")
	ErrMissingReason       = NewDomainError("ledger", "AdminAdjust", ErrEmptyValue, "adjustment reason is required")
	ErrReasonTooLong       = NewDomainError("ledger", "AdminAdjust", ErrValueOutOfRange, "adjustment reason too long")
	ErrSelfTransfer        = NewDomainError("ledger", "Transfer", ErrInvalidInput, "cannot transfer tokens to self")
)

// Social domain errors
var (
	ErrMessageNotFound = NewDomainError("social", "FindMessage", ErrNotFound, "message not found")
	ErrSelfMessage     = NewDomainError("social", "SendMessage", ErrInvalidInput, "cannot send a message to self")
	ErrMessageTooLong  = NewDomainError("social", "SendMessage", ErrValueOutOfRange, "message too long")
	ErrEmptyMessage    = NewDomainError("social", "SendMessage", ErrEmptyValue, "message cannot be empty")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// External service errors
var (
	ErrAIUnavailable     = NewDomainError("ai", "Request", ErrServiceUnavailable, "AI service is unavailable")
	ErrAIRateLimited     = NewDomainError("ai", "Request", ErrRateLimited, "AI service rate limit exceeded")
	ErrAITimeout         = NewDomainError("ai", "Request", ErrTimeout, "AI service request timeout")
	ErrAIInvalidResponse = NewDomainError("ai", "Parse", ErrInvalidFormat, "invalid response from AI service")
)

// Admin errors
var (
	ErrAdminUnauthorized = NewDomainError("admin", "Authenticate", ErrUnauthorized, "invalid admin credentials")
	ErrAdminForbidden    = NewDomainError("admin", "Authorize", ErrForbidden, "admin access required")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsInsufficientBalance checks if the error is a balance error.
func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsInactiveOrDead checks if the error is caused by a dead or inactive creature.
func IsInactiveOrDead(err error) bool {
	return errors.Is(err, ErrCreatureDead) || errors.Is(err, ErrInactive)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnauthorized checks if the error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
