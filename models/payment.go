package models

import "time"

// RefundRequest asks the PaymentAdjuster to return money for a booking.
type RefundRequest struct {
	BookingID       string
	ClientID        string
	PaymentIntentID string
	PaymentMethod   string
	Amount          float64
	Currency        string
	Reason          string
	IdempotencyKey  string
	Metadata        map[string]string
}

// Refund is the outcome reported by the PaymentAdjuster.
type Refund struct {
	RefundID  string    `json:"refundId"`
	BookingID string    `json:"bookingId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
