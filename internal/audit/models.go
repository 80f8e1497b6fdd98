package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an administrative mutation.
type Action string

const (
	ActionCreateSubscriber Action = "create_subscriber"
	ActionDeleteSubscriber Action = "delete_subscriber"
	ActionAdjustBalance    Action = "adjust_balance"
)

// Outcome records whether the carrier accepted the mutation.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Entry is one recorded admin action.
type Entry struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Action       Action  `json:"action"`
	SubscriberID string  `json:"subscriber_id"`
	Detail       string  `json:"detail,omitempty"`
	Outcome      Outcome `json:"outcome"`
}

// NewEntry stamps an entry with a fresh id and the current time.
func NewEntry(action Action, subscriberID, detail string, outcome Outcome) Entry {
	return Entry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Action:       action,
		SubscriberID: subscriberID,
		Detail:       detail,
		Outcome:      outcome,
	}
}
