package risk

import (
	"math"
	"time"

	"glowbook/models"
)

// Classify applies the late-arrival rules in order; the first match wins.
// Not moving this close to the start is ranked above moving but slow.
func Classify(isEnRoute bool, minutesUntil int, etaMinutes *int) models.RiskLevel {
	switch {
	case !isEnRoute && minutesUntil < 10:
		return models.RiskCritical
	case isEnRoute && etaMinutes != nil && *etaMinutes > minutesUntil+10:
		return models.RiskHigh
	case !isEnRoute && minutesUntil < 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// MinutesUntil floors the time left before start; a started appointment yields a negative count.
func MinutesUntil(startsAt, now time.Time) int {
	return int(math.Floor(startsAt.Sub(now).Minutes()))
}

// EtaMinutes rounds the reported ETA up to whole minutes.
func EtaMinutes(etaSeconds *int) *int {
	if etaSeconds == nil {
		return nil
	}
	m := int(math.Ceil(float64(*etaSeconds) / 60))
	return &m
}

// Assess derives the risk of one booking at now. Nothing here is persisted.
func Assess(b models.Booking, now time.Time) models.RiskAssessment {
	minutes := MinutesUntil(b.StartsAt, now)
	eta := EtaMinutes(b.EtaSeconds)
	return models.RiskAssessment{
		BookingID:               b.ID,
		ClientID:                b.ClientID,
		StartsAt:                b.StartsAt,
		DurationMinutes:         b.DurationMinutes,
		TotalPrice:              b.TotalPrice,
		Currency:                b.Currency,
		RiskLevel:               Classify(b.IsEnRoute, minutes, eta),
		MinutesUntilAppointment: minutes,
		EtaMinutes:              eta,
		DistanceMeters:          b.DistanceMeters,
		IsEnRoute:               b.IsEnRoute,
		TelemetryAt:             b.TelemetryAt,
		AlertSuppressed:         b.RiskSuppressedUntil != nil && now.Before(*b.RiskSuppressedUntil),
	}
}
