package models

import "time"

// MitigationAction names a corrective action a stylist can apply to an at-risk booking.
type MitigationAction string

const (
	ActionBump          MitigationAction = "bump"
	ActionPartialRefund MitigationAction = "partial-refund"
	ActionContactClient MitigationAction = "contact-client"
	ActionCancel        MitigationAction = "cancel"
	ActionWait          MitigationAction = "wait"
)

func (a MitigationAction) Valid() bool {
	switch a {
	case ActionBump, ActionPartialRefund, ActionContactClient, ActionCancel, ActionWait:
		return true
	}
	return false
}

// MitigationRecord is the audit entry appended for every applied action.
type MitigationRecord struct {
	ID            string           `bson:"id" json:"id"`
	Action        MitigationAction `bson:"action" json:"action"`
	ActorID       string           `bson:"actor_id" json:"actorId"`
	Reason        string           `bson:"reason,omitempty" json:"reason,omitempty"`
	ClientMessage string           `bson:"client_message,omitempty" json:"clientMessage,omitempty"`
	At            time.Time        `bson:"at" json:"at"`
	RefundAmount  float64          `bson:"refund_amount,omitempty" json:"refundAmount,omitempty"`
	RefundID      string           `bson:"refund_id,omitempty" json:"refundId,omitempty"`
	OldStartsAt   *time.Time       `bson:"old_starts_at,omitempty" json:"oldStartsAt,omitempty"`
	NewStartsAt   *time.Time       `bson:"new_starts_at,omitempty" json:"newStartsAt,omitempty"`
}

// BumpInput is the body of the bump action.
type BumpInput struct {
	NewTime       time.Time `json:"newTime"`
	Reason        string    `json:"reason" binding:"required"`
	ClientMessage string    `json:"clientMessage,omitempty"`
}

// PartialRefundInput is the body of the partial-refund action.
type PartialRefundInput struct {
	Percentage    float64 `json:"percentage"`
	Reason        string  `json:"reason" binding:"required"`
	ClientMessage string  `json:"clientMessage,omitempty"`
}

// ContactClientInput is the body of the contact-client action.
type ContactClientInput struct {
	Message string `json:"message" binding:"required"`
}

// CancelInput is the body of the cancel action.
type CancelInput struct {
	Reason        string `json:"reason" binding:"required"`
	ClientMessage string `json:"clientMessage,omitempty"`
}

// WaitInput is the body of the wait action.
type WaitInput struct {
	Reason string `json:"reason"`
}

// MitigationResult reports the outcome of one action.
type MitigationResult struct {
	Action  MitigationAction `json:"action"`
	Success bool             `json:"success"`
	Booking *Booking         `json:"booking"`
	Refund  *Refund          `json:"refund,omitempty"`
}
