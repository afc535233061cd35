// Package domain holds the pure quote lifecycle rules: the status state
// machine, the typed annotation sub-records, and the history journal.
// Nothing in this package performs I/O.
package domain

// Status is the quote pipeline status.
type Status string

// Ordered pipeline statuses. pie_ready overlaps the pre-lock stages: it
// marks report readiness and may coexist with customer actions before the
// scope is locked.
const (
	StatusNew          Status = "new"
	StatusAwaitingCall Status = "awaiting_call"
	StatusPieReady     Status = "pie_ready"
	StatusScopeLocked  Status = "scope_locked"
	StatusDepositSent  Status = "deposit_sent"
	StatusDepositPaid  Status = "deposit_paid"
	StatusInProgress   Status = "in_progress"
	StatusDelivered    Status = "delivered"
	StatusClosedWon    Status = "closed_won"
	StatusClosedLost   Status = "closed_lost"
)

var statusOrder = []Status{
	StatusNew,
	StatusAwaitingCall,
	StatusPieReady,
	StatusScopeLocked,
	StatusDepositSent,
	StatusDepositPaid,
	StatusInProgress,
	StatusDelivered,
	StatusClosedWon,
	StatusClosedLost,
}

// Rank returns the position of a status in the pipeline order, or -1 for an
// unknown status.
func (s Status) Rank() int {
	for i, status := range statusOrder {
		if status == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether the status is one of the enumerated values.
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// IsTerminal reports whether the status admits no further automatic
// transitions.
func (s Status) IsTerminal() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// AllStatuses returns the enumerated statuses in pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// DepositStatus is the deposit sub-status tracked alongside the pipeline
// status.
type DepositStatus string

const (
	DepositNone    DepositStatus = ""
	DepositPending DepositStatus = "pending"
	DepositPaid    DepositStatus = "paid"
)

// ScopeLockStatus returns the status a scope-lock action should produce.
// Once the quote has reached deposit_sent or later, locking the scope
// updates the snapshot but must not regress the status.
func ScopeLockStatus(current Status) Status {
	if current.Rank() >= StatusDepositSent.Rank() {
		return current
	}
	return StatusScopeLocked
}

// DepositSentStatus returns the status a deposit-link action should produce.
// A completed payment is never regressed.
func DepositSentStatus(current Status, deposit DepositStatus) Status {
	if deposit == DepositPaid || current.Rank() >= StatusDepositPaid.Rank() {
		return current
	}
	return StatusDepositSent
}

// ReportReadyStatus returns the status after a report lands. Only the
// pre-lock stages advance to pie_ready; later stages are left alone.
func ReportReadyStatus(current Status) Status {
	if current == StatusNew || current == StatusAwaitingCall {
		return StatusPieReady
	}
	return current
}
