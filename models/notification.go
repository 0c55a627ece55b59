package models

import "time"

// Notification types sent by the engine.
const (
	NotifyNewRequest          = "booking_request_new"
	NotifyAutoBooked          = "booking_request_auto_booked"
	NotifyAwaitingConfirm     = "booking_request_accepted"
	NotifyDeclined            = "booking_request_declined"
	NotifyExpired             = "booking_request_expired"
	NotifyRequestCancelled    = "booking_request_cancelled"
	NotifyClientConfirmed     = "booking_request_confirmed"
	NotifyLateRisk            = "late_risk_alert"
	NotifyOnYourWay           = "late_risk_client_nudge"
	NotifyBookingBumped       = "booking_bumped"
	NotifyPartialRefund       = "booking_partial_refund"
	NotifyStylistMessage      = "stylist_message"
	NotifyBookingCancelled    = "booking_cancelled"
	NotifyWorkEstimateExpires = "work_estimate_expiring"
)

// Message is what the Notifier delivers to one user.
type Message struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NotificationPayload is the queued unit of delivery.
type NotificationPayload struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Message  Message   `json:"message"`
	QueuedAt time.Time `json:"queuedAt"`
}

// DeviceTokenInput is the body of POST /devices/fcm-token.
type DeviceTokenInput struct {
	Token string `json:"token" binding:"required"`
}
