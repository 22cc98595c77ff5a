package usecase

import (
	"errors"
	"fmt"
	"strings"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

// ValidationErrors groups field errors so one response can list all of them.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrCheckoutInProgress = errors.New("a checkout step is already in flight")
)

// TransitionError is returned when a command is not legal from the stored
// status. Nothing was sent and nothing was written.
type TransitionError struct {
	Entity  string
	ID      string
	From    string
	Command string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from status %q", e.Entity, e.ID, e.Command, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// GatewayUnavailableError means the payment widget or gateway could not be
// reached. The caller may retry with a new order.
type GatewayUnavailableError struct {
	Err error
}

func (e *GatewayUnavailableError) Error() string {
	return "payment gateway unavailable: " + e.Err.Error()
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }

// VerificationError blocks entitlement. Reason is safe to show to the user.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return "payment verification failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "payment verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error { return e.Err }

// NetworkError wraps a failed call to an external collaborator. The entity
// was not mutated.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
