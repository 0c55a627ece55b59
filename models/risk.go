package models

import "time"

// RiskLevel is the late-arrival risk of an upcoming booking.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders levels from low (0) to critical (3); unknown levels rank -1.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// RiskAssessment is derived from a booking and its telemetry on every poll. It is never stored.
type RiskAssessment struct {
	BookingID               string     `json:"bookingId"`
	ClientID                string     `json:"clientId"`
	StartsAt                time.Time  `json:"startsAt"`
	DurationMinutes         int        `json:"durationMinutes"`
	TotalPrice              float64    `json:"totalPrice"`
	Currency                string     `json:"currency"`
	RiskLevel               RiskLevel  `json:"riskLevel"`
	MinutesUntilAppointment int        `json:"minutesUntilAppointment"`
	EtaMinutes              *int       `json:"etaMinutes,omitempty"`
	DistanceMeters          *float64   `json:"distanceMeters,omitempty"`
	IsEnRoute               bool       `json:"isEnRoute"`
	TelemetryAt             *time.Time `json:"telemetryAt,omitempty"`
	AlertSuppressed         bool       `json:"alertSuppressed"`
}
