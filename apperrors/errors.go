package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError covers malformed input shape. It is never retried
// automatically and always surfaces to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// LimitExceededError is raised when a per-transaction or daily cumulative
// limit is breached. Kept distinct from ValidationError so callers can tell
// a well-formed but over-limit instruction apart from a malformed one.
type LimitExceededError struct {
	Message string
}

func (e *LimitExceededError) Error() string {
	return "limit exceeded: " + e.Message
}

// DuplicateTransactionError is raised by the idempotency guard when an
// equivalent transaction already exists. No entity is persisted.
type DuplicateTransactionError struct {
	Reference string
}

func (e *DuplicateTransactionError) Error() string {
	return "duplicate transaction, reference: " + e.Reference
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// InvalidStateError is raised when an operation is attempted on an entity
// that is not in the required state. No mutation happens.
type InvalidStateError struct {
	Entity    string
	Current   string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Operation, e.Entity, e.Current)
}

// GatewayConnectivityError means the settlement interface could not be
// reached at all. The transaction is marked FAILED but operators may decide
// to resubmit manually.
type GatewayConnectivityError struct {
	Cause error
}

func (e *GatewayConnectivityError) Error() string {
	return "rbi gateway unreachable: " + e.Cause.Error()
}

func (e *GatewayConnectivityError) Unwrap() error { return e.Cause }

// GatewayTimeoutError means the settlement interface did not answer within
// the configured request timeout. RBI may still have accepted the
// instruction; reconciliation is an operator concern.
type GatewayTimeoutError struct {
	Cause error
}

func (e *GatewayTimeoutError) Error() string {
	return "rbi gateway timed out: " + e.Cause.Error()
}

func (e *GatewayTimeoutError) Unwrap() error { return e.Cause }

// GatewayRejectionError means RBI explicitly rejected the instruction.
// Should not be blindly retried.
type GatewayRejectionError struct {
	Code    int
	Message string
}

func (e *GatewayRejectionError) Error() string {
	return fmt.Sprintf("rejected by rbi interface (%d): %s", e.Code, e.Message)
}

// SystemError wraps unexpected faults caught at the use case boundary.
type SystemError struct {
	Cause error
}

func (e *SystemError) Error() string {
	return "system error: " + e.Cause.Error()
}

func (e *SystemError) Unwrap() error { return e.Cause }

// IsGatewayInfrastructure reports whether err is a connectivity or timeout
// failure, as opposed to an explicit rejection.
func IsGatewayInfrastructure(err error) bool {
	var conn *GatewayConnectivityError
	var tmo *GatewayTimeoutError
	return errors.As(err, &conn) || errors.As(err, &tmo)
}
