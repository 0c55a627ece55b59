package models

import "time"

// BookingStatus is the state of a confirmed appointment.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// Booking represents a confirmed booking record.
type Booking struct {
	ID              string        `bson:"id" json:"id"`                // Unique booking identifier (UUID)
	RequestID       string        `bson:"request_id" json:"requestId"` // Booking request that produced it
	ClientID        string        `bson:"client_id" json:"clientId"`   // Client who booked
	StylistID       string        `bson:"stylist_id" json:"stylistId"` // Stylist who was booked
	ServiceID       string        `bson:"service_id" json:"serviceId"`
	Date            string        `bson:"date" json:"date"`          // Booking date in "YYYY-MM-DD" format
	Start           int           `bson:"start" json:"start"`        // Booking start time (minutes from midnight)
	StartsAt        time.Time     `bson:"starts_at" json:"startsAt"` // Absolute start, source of truth for risk
	EndsAt          time.Time     `bson:"ends_at" json:"endsAt"`
	DurationMinutes int           `bson:"duration_minutes" json:"durationMinutes"`
	TotalPrice      float64       `bson:"total_price" json:"totalPrice"` // Calculated total price
	Currency        string        `bson:"currency" json:"currency"`
	PaymentMethod   string        `bson:"payment_method" json:"paymentMethod"` // "card" or "cash"
	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"-"`
	RefundedAmount  float64       `bson:"refunded_amount" json:"refundedAmount"` // Sum of refunds issued so far
	Status          BookingStatus `bson:"status" json:"status"`                  // e.g., "confirmed", "cancelled"
	CancelReason    string        `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updatedAt"`

	// Live telemetry, populated by the client app while the booking is upcoming.
	DistanceMeters *float64   `bson:"distance_meters,omitempty" json:"distanceMeters,omitempty"`
	EtaSeconds     *int       `bson:"eta_seconds,omitempty" json:"etaSeconds,omitempty"`
	IsEnRoute      bool       `bson:"is_en_route" json:"isEnRoute"`
	TelemetryAt    *time.Time `bson:"telemetry_at,omitempty" json:"telemetryAt,omitempty"`

	// Mitigation bookkeeping.
	RiskSuppressedUntil *time.Time         `bson:"risk_suppressed_until,omitempty" json:"riskSuppressedUntil,omitempty"`
	PendingAction       string             `bson:"pending_action,omitempty" json:"-"`
	PendingActionAt     *time.Time         `bson:"pending_action_at,omitempty" json:"-"`
	RefundAttempts      int                `bson:"refund_attempts,omitempty" json:"-"` // refunds the provider rejected
	Mitigations         []MitigationRecord `bson:"mitigations,omitempty" json:"mitigations,omitempty"`

	Version int `bson:"version" json:"-"`
}

// RemainingRefundable is what can still be returned to the client.
func (b Booking) RemainingRefundable() float64 {
	rem := b.TotalPrice - b.RefundedAmount
	if rem < 0 {
		return 0
	}
	return rem
}

// SetSchedule keeps Date, Start and EndsAt in step with StartsAt.
func (b *Booking) SetSchedule(startsAt time.Time) {
	b.StartsAt = startsAt
	b.EndsAt = startsAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
	b.Date = startsAt.Format("2006-01-02")
	b.Start = startsAt.Hour()*60 + startsAt.Minute()
}

// TelemetryInput is the body of POST /bookings/:id/telemetry.
type TelemetryInput struct {
	DistanceMeters float64 `json:"distanceMeters"`
	EtaSeconds     int     `json:"etaSeconds"`
	IsEnRoute      bool    `json:"isEnRoute"`
}
