package domain

import "time"

// Journal actions. Admin status edits are journaled as a distinct override
// action so audits can tell manual correction from automatic progress.
const (
	ActionQuoteCreated       = "quote_created"
	ActionReportGenerated    = "report_generated"
	ActionCallRequested      = "call_requested"
	ActionScopeLocked        = "scope_locked"
	ActionStatusOverride     = "status_override"
	ActionPricingOverride    = "pricing_override"
	ActionDepositLinkCreated = "deposit_link_created"
	ActionPaymentConfirmed   = "payment_confirmed"
)

// HistoryEntry is one journal record. Entries are appended, never edited or
// removed.
type HistoryEntry struct {
	At      time.Time              `json:"at"`
	Action  string                 `json:"action"`
	Status  Status                 `json:"status"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// AppendHistory returns the journal with one entry appended. The input slice
// is never modified in place, so callers holding the old journal keep a
// consistent view.
func AppendHistory(history []HistoryEntry, at time.Time, action string, status Status, payload map[string]interface{}) []HistoryEntry {
	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, HistoryEntry{
		At:      at,
		Action:  action,
		Status:  status,
		Payload: payload,
	})
}
