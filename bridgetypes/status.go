package bridgetypes

import "time"

// StatusKind discriminates the ExecutionStatus tagged union. Ordering here
// matches the transition DAG's topological order, not Go enum value
// semantics — the DAG itself lives in the monitor package.
type StatusKind string

const (
	StatusUnknown           StatusKind = "unknown"
	StatusInitiated         StatusKind = "initiated"
	StatusFinalizedOnSource StatusKind = "finalized_on_source"
	StatusProven            StatusKind = "proven"
	StatusExecutable        StatusKind = "executable"
	StatusExecuting         StatusKind = "executing"
	StatusExecuted          StatusKind = "executed"
	StatusFailed            StatusKind = "failed"
	StatusExpired           StatusKind = "expired"
)

// ExecutionStatus is the tagged union describing where a BridgeOperation
// is in its lifecycle.
type ExecutionStatus struct {
	Kind StatusKind
	At   time.Time

	SourceTx    string // Initiated
	Finality    string // FinalizedOnSource
	ProofTx     string // Proven
	ExecutionTx string // Executing / Executed / Failed
	Reason      string // Failed / Expired
}

// Terminal reports whether this status ends the lifecycle: Executed,
// Failed, and Expired are the only terminal states.
func (s ExecutionStatus) Terminal() bool {
	switch s.Kind {
	case StatusExecuted, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// Key is the status-key the monitor dedups on: the variant plus its
// distinguishing fields, so that (e.g.) two Initiated statuses with
// different SourceTx values are treated as distinct yields.
func (s ExecutionStatus) Key() string {
	switch s.Kind {
	case StatusInitiated:
		return string(s.Kind) + "|" + s.SourceTx
	case StatusFinalizedOnSource:
		return string(s.Kind) + "|" + s.Finality
	case StatusProven:
		return string(s.Kind) + "|" + s.ProofTx
	case StatusExecuting, StatusExecuted:
		return string(s.Kind) + "|" + s.ExecutionTx
	case StatusFailed, StatusExpired:
		return string(s.Kind) + "|" + s.Reason
	default:
		return string(s.Kind)
	}
}

func newStatus(kind StatusKind, at time.Time) ExecutionStatus {
	return ExecutionStatus{Kind: kind, At: at}
}

// Constructors, one per variant, so callers never set Kind by hand.

func UnknownStatus(at time.Time) ExecutionStatus { return newStatus(StatusUnknown, at) }

func InitiatedStatus(at time.Time, sourceTx string) ExecutionStatus {
	s := newStatus(StatusInitiated, at)
	s.SourceTx = sourceTx
	return s
}

func FinalizedOnSourceStatus(at time.Time, finality string) ExecutionStatus {
	s := newStatus(StatusFinalizedOnSource, at)
	s.Finality = finality
	return s
}

func ProvenStatus(at time.Time, proofTx string) ExecutionStatus {
	s := newStatus(StatusProven, at)
	s.ProofTx = proofTx
	return s
}

func ExecutableStatus(at time.Time) ExecutionStatus { return newStatus(StatusExecutable, at) }

func ExecutingStatus(at time.Time, executionTx string) ExecutionStatus {
	s := newStatus(StatusExecuting, at)
	s.ExecutionTx = executionTx
	return s
}

func ExecutedStatus(at time.Time, executionTx string) ExecutionStatus {
	s := newStatus(StatusExecuted, at)
	s.ExecutionTx = executionTx
	return s
}

func FailedStatus(at time.Time, reason, executionTx string) ExecutionStatus {
	s := newStatus(StatusFailed, at)
	s.Reason = reason
	s.ExecutionTx = executionTx
	return s
}

func ExpiredStatus(at time.Time, reason string) ExecutionStatus {
	s := newStatus(StatusExpired, at)
	s.Reason = reason
	return s
}
