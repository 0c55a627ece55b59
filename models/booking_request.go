package models

import "time"

// BookingRequestStatus is the lifecycle state of a booking request.
type BookingRequestStatus string

const (
	RequestPending              BookingRequestStatus = "pending"
	RequestAutoBooked           BookingRequestStatus = "auto_booked"
	RequestAwaitingConfirmation BookingRequestStatus = "accepted_awaiting_confirmation"
	RequestDeclined             BookingRequestStatus = "declined"
	RequestExpired              BookingRequestStatus = "expired"
	RequestCancelled            BookingRequestStatus = "cancelled"
	RequestConfirmed            BookingRequestStatus = "confirmed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingRequestStatus) IsTerminal() bool {
	switch s {
	case RequestAutoBooked, RequestDeclined, RequestExpired, RequestCancelled, RequestConfirmed:
		return true
	}
	return false
}

func (s BookingRequestStatus) Valid() bool {
	return s == RequestPending || s == RequestAwaitingConfirmation || s.IsTerminal()
}

// StylistResponse is the stylist's answer to a pending request.
type StylistResponse string

const (
	ResponseAccept  StylistResponse = "accept"
	ResponseDecline StylistResponse = "decline"
)

// BookingDetails carries what the client asked for.
type BookingDetails struct {
	StartsAt        time.Time `bson:"starts_at" json:"startsAt"`
	DurationMinutes int       `bson:"duration_minutes" json:"durationMinutes"`
	TotalPrice      float64   `bson:"total_price" json:"totalPrice"`
	Currency        string    `bson:"currency" json:"currency"`
	PaymentMethod   string    `bson:"payment_method" json:"paymentMethod"`                          // "card" or "cash"
	PaymentIntentID string    `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"` // card pre-authorisation
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// BookingRequest is a client's request for a stylist, resolved by exactly one transition.
type BookingRequest struct {
	ID        string `bson:"id" json:"id"`
	ClientID  string `bson:"client_id" json:"clientId"`
	StylistID string `bson:"stylist_id" json:"stylistId"`
	ServiceID string `bson:"service_id" json:"serviceId"`

	Details BookingDetails `bson:"details" json:"details"`

	CreatedAt            time.Time `bson:"created_at" json:"createdAt"`
	ExpiresAt            time.Time `bson:"expires_at" json:"expiresAt"`
	AutoBookWindowEndsAt time.Time `bson:"auto_book_window_ends_at" json:"autoBookWindowEndsAt"`

	Status             BookingRequestStatus `bson:"status" json:"status"`
	StylistRespondedAt *time.Time           `bson:"stylist_responded_at,omitempty" json:"stylistRespondedAt,omitempty"`
	StylistResponse    *StylistResponse     `bson:"stylist_response,omitempty" json:"stylistResponse"`
	DeclineReason      string               `bson:"decline_reason,omitempty" json:"declineReason,omitempty"`
	ConfirmBy          *time.Time           `bson:"confirm_by,omitempty" json:"confirmBy,omitempty"`
	CancelReason       string               `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	BookingID          string               `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	ResolvedAt         *time.Time           `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`

	Version int `bson:"version" json:"-"`
}

// RequestTransition is the set of fields written together with a status change.
type RequestTransition struct {
	To                 BookingRequestStatus
	StylistRespondedAt *time.Time
	StylistResponse    *StylistResponse
	DeclineReason      string
	ConfirmBy          *time.Time
	CancelReason       string
	BookingID          string
	ResolvedAt         *time.Time
}

// Apply copies the transition onto r, leaving unset fields untouched.
func (t RequestTransition) Apply(r *BookingRequest) {
	r.Status = t.To
	if t.StylistRespondedAt != nil {
		r.StylistRespondedAt = t.StylistRespondedAt
	}
	if t.StylistResponse != nil {
		r.StylistResponse = t.StylistResponse
	}
	if t.DeclineReason != "" {
		r.DeclineReason = t.DeclineReason
	}
	if t.ConfirmBy != nil {
		r.ConfirmBy = t.ConfirmBy
	}
	if t.CancelReason != "" {
		r.CancelReason = t.CancelReason
	}
	if t.BookingID != "" {
		r.BookingID = t.BookingID
	}
	if t.ResolvedAt != nil {
		r.ResolvedAt = t.ResolvedAt
	}
	r.Version++
}

// CreateBookingRequestInput is the body of POST /booking-requests.
type CreateBookingRequestInput struct {
	StylistID string         `json:"stylistId" binding:"required"`
	ServiceID string         `json:"serviceId" binding:"required"`
	Details   BookingDetails `json:"details"`
}

// RespondInput is the body of POST /booking-requests/:id/respond.
type RespondInput struct {
	Response      StylistResponse `json:"response" binding:"required"`
	DeclineReason string          `json:"declineReason,omitempty"`
}

// RespondResult is returned to the stylist after a response.
type RespondResult struct {
	NewStatus BookingRequestStatus `json:"newStatus"`
	BookingID string               `json:"bookingId,omitempty"`
}
