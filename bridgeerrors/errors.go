// Package bridgeerrors defines the bridge SDK's error taxonomy: a stable
// set of codes, each with an actionable outcome and the stage it surfaced
// in, wrapping the underlying cause the way the rest of this codebase
// wraps errors (fmt.Errorf("...: %w", err)).
package bridgeerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure.
type Code string

const (
	CodeUnsupportedRoute  Code = "UNSUPPORTED_ROUTE"
	CodeUnsupportedAction Code = "UNSUPPORTED_ACTION"
	CodeUnsupportedStep   Code = "UNSUPPORTED_STEP"
	CodeConfigError       Code = "CONFIG_ERROR"
	CodeRpcError          Code = "RPC_ERROR"
	CodeTimeout           Code = "TIMEOUT"
	CodeNotFinal          Code = "NOT_FINAL"
	CodeProofNotAvailable Code = "PROOF_NOT_AVAILABLE"
	CodeAlreadyProven     Code = "ALREADY_PROVEN"
	CodeNotProven         Code = "NOT_PROVEN"
	CodeAlreadyExecuted   Code = "ALREADY_EXECUTED"
	CodeExecutionReverted Code = "EXECUTION_REVERTED"
	CodeMessageFailed     Code = "MESSAGE_FAILED"
	CodeInvariantViolated Code = "INVARIANT_VIOLATION"
)

// Outcome is the actionable disposition a caller should take.
type Outcome string

const (
	OutcomeRetry   Outcome = "retry"
	OutcomeUserFix Outcome = "user_fix"
	OutcomeFatal   Outcome = "fatal"
)

// Stage identifies which lifecycle step raised the error.
type Stage string

const (
	StageInitiate Stage = "initiate"
	StageProve    Stage = "prove"
	StageExecute  Stage = "execute"
	StageMonitor  Stage = "monitor"
)

var defaultOutcomes = map[Code]Outcome{
	CodeUnsupportedRoute:  OutcomeUserFix,
	CodeUnsupportedAction: OutcomeUserFix,
	CodeUnsupportedStep:   OutcomeUserFix,
	CodeConfigError:       OutcomeUserFix,
	CodeRpcError:          OutcomeRetry,
	CodeTimeout:           OutcomeRetry,
	CodeNotFinal:          OutcomeRetry,
	CodeProofNotAvailable: OutcomeUserFix,
	CodeAlreadyProven:     OutcomeRetry,
	CodeNotProven:         OutcomeUserFix,
	CodeAlreadyExecuted:   OutcomeRetry,
	CodeExecutionReverted: OutcomeFatal,
	CodeMessageFailed:     OutcomeFatal,
	CodeInvariantViolated: OutcomeFatal,
}

// BridgeError is the concrete error type returned by every layer of the
// SDK. It is never swallowed: engines raise it, route adapters re-tag or
// pass it through, the monitor only propagates it.
type BridgeError struct {
	Code    Code
	Outcome Outcome
	Stage   Stage
	Route   string // "src->dst", empty if not route-scoped
	Chain   string // ChainId, empty if not chain-scoped
	Msg     string
	Cause   error
}

func (e *BridgeError) Error() string {
	s := fmt.Sprintf("%s [%s/%s]: %s", e.Code, e.Stage, e.Outcome, e.Msg)
	if e.Route != "" {
		s += fmt.Sprintf(" route=%s", e.Route)
	}
	if e.Chain != "" {
		s += fmt.Sprintf(" chain=%s", e.Chain)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *BridgeError) Unwrap() error { return e.Cause }

// New builds a BridgeError with the code's default outcome.
func New(code Code, stage Stage, msg string) *BridgeError {
	return &BridgeError{Code: code, Outcome: defaultOutcomes[code], Stage: stage, Msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, stage Stage, format string, args ...any) *BridgeError {
	return New(code, stage, fmt.Sprintf(format, args...))
}

// WithRoute attaches route context and returns the receiver for chaining.
func (e *BridgeError) WithRoute(route string) *BridgeError {
	e.Route = route
	return e
}

// WithChain attaches chain context and returns the receiver for chaining.
func (e *BridgeError) WithChain(chain string) *BridgeError {
	e.Chain = chain
	return e
}

// Wrap attaches an underlying cause and returns the receiver for chaining.
func (e *BridgeError) Wrap(cause error) *BridgeError {
	e.Cause = cause
	return e
}

// Is reports whether err is a *BridgeError with the given code, unwrapping
// through any number of wrapping layers.
func Is(err error, code Code) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// CodeOf extracts the Code of err if it is (or wraps) a *BridgeError.
func CodeOf(err error) (Code, bool) {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}
