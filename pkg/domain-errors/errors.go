// Package domainerrors carries the coded error conditions that services return.
//
// Stores return sentinel facts (see pkg/platform/sentinel); services translate
// them into one of the codes below so every caller sees a distinct, named
// condition regardless of which backend produced the failure.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code names a failure condition.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvariantViolation Code = "invariant_violation"

	// Ledger
	CodeAlreadyInitialized  Code = "already_initialized"
	CodeNotInitialized      Code = "not_initialized"
	CodeInvalidAmount       Code = "invalid_amount"
	CodeInsufficientBalance Code = "insufficient_balance"

	// Partner links
	CodeAlreadyLinked Code = "already_linked"

	// Goal escrow
	CodeInvalidReward     Code = "invalid_reward"
	CodeGoalNotFound      Code = "goal_not_found"
	CodeGoalAlreadyExists Code = "goal_already_exists"
	CodeInvalidPartners   Code = "invalid_partners"
	CodeNotAParticipant   Code = "not_a_participant"
	CodeTimeLocked        Code = "time_locked"
	CodeAlreadyApproved   Code = "already_approved"
	CodeAlreadyMinted     Code = "already_minted"
	CodeAlreadyCompleted  Code = "already_completed"
)

// Error is a coded domain error. Two errors match under errors.Is when their
// codes are equal, so callers can compare against New(code, "").
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when err
// carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidAmount, CodeInvalidReward, CodeInvalidPartners:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotAParticipant:
		return http.StatusForbidden
	case CodeNotFound, CodeGoalNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyInitialized, CodeAlreadyLinked, CodeGoalAlreadyExists,
		CodeAlreadyApproved, CodeAlreadyMinted, CodeAlreadyCompleted:
		return http.StatusConflict
	case CodeInsufficientBalance, CodeTimeLocked, CodeNotInitialized, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
