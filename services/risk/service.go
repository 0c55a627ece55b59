package risk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"glowbook/database/repository"
	bookingRepo "glowbook/database/repository/booking"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"go.uber.org/zap"
)

const telemetryRetries = 3

type Settings struct {
	// Lookahead bounds the poll to bookings starting within this horizon.
	Lookahead time.Duration
	// DedupTTL is how long an alert for the same booking and level stays silenced.
	DedupTTL time.Duration
}

// Service polls upcoming bookings and raises late-arrival alerts.
type Service struct {
	bookings bookingRepo.BookingRepository
	notifier notification.Notifier
	gate     AlertGate
	clock    utils.Clock
	logger   *zap.Logger
	settings Settings
}

func NewService(bookings bookingRepo.BookingRepository, notifier notification.Notifier, gate AlertGate, clock utils.Clock, logger *zap.Logger, settings Settings) *Service {
	return &Service{
		bookings: bookings,
		notifier: notifier,
		gate:     gate,
		clock:    clock,
		logger:   logger,
		settings: settings,
	}
}

func (s *Service) assessUpcoming(ctx context.Context, stylistID string) ([]models.Booking, []models.RiskAssessment, error) {
	now := s.clock.Now()
	upcoming, err := s.bookings.ListUpcoming(ctx, stylistID, now, now.Add(s.settings.Lookahead))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	out := make([]models.RiskAssessment, len(upcoming))
	for i, b := range upcoming {
		out[i] = Assess(b, now)
	}
	return upcoming, out, nil
}

// LateRiskBookings lists the stylist's upcoming bookings at or above minLevel, most urgent first.
// An empty minLevel means medium, so bookings that are on track are left out.
func (s *Service) LateRiskBookings(ctx context.Context, stylistID string, minLevel models.RiskLevel) ([]models.RiskAssessment, error) {
	if minLevel == "" {
		minLevel = models.RiskMedium
	}
	if minLevel.Rank() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, minLevel)
	}

	_, all, err := s.assessUpcoming(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	out := make([]models.RiskAssessment, 0, len(all))
	for _, a := range all {
		if a.RiskLevel.Rank() >= minLevel.Rank() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].RiskLevel.Rank(), out[j].RiskLevel.Rank(); ri != rj {
			return ri > rj
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

// PollOnce recomputes every near-term assessment and alerts on high and critical risk.
// It keeps no state between runs beyond the dedup gate.
func (s *Service) PollOnce(ctx context.Context) (int, error) {
	bookings, assessments, err := s.assessUpcoming(ctx, "")
	if err != nil {
		return 0, err
	}

	alerts := 0
	for i, a := range assessments {
		if a.RiskLevel.Rank() < models.RiskHigh.Rank() || a.AlertSuppressed {
			continue
		}
		key := fmt.Sprintf("%s:%s", a.BookingID, a.RiskLevel)
		ok, err := s.gate.Allow(ctx, key, s.settings.DedupTTL)
		if err != nil {
			s.logger.Warn("Risk alert gate unavailable, retrying next poll", zap.String("bookingID", a.BookingID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		alerts++
		s.alert(ctx, bookings[i], a)
	}
	if alerts > 0 {
		s.logger.Info("Late-arrival alerts raised", zap.Int("count", alerts))
	}
	return alerts, nil
}

func (s *Service) alert(ctx context.Context, b models.Booking, a models.RiskAssessment) {
	data := map[string]string{
		"bookingId":               a.BookingID,
		"riskLevel":               string(a.RiskLevel),
		"minutesUntilAppointment": fmt.Sprint(a.MinutesUntilAppointment),
	}

	body := fmt.Sprintf("Your %s client hasn't left yet and starts in %d min.", b.StartsAt.Format("15:04"), a.MinutesUntilAppointment)
	if a.RiskLevel == models.RiskHigh && a.EtaMinutes != nil {
		body = fmt.Sprintf("Your %s client is %d min away with %d min to go.", b.StartsAt.Format("15:04"), *a.EtaMinutes, a.MinutesUntilAppointment)
	}
	s.send(ctx, b.StylistID, models.Message{
		Type:  models.NotifyLateRisk,
		Title: "Client may be late",
		Body:  body,
		Data:  data,
	})

	if a.RiskLevel == models.RiskCritical {
		s.send(ctx, b.ClientID, models.Message{
			Type:  models.NotifyOnYourWay,
			Title: "Are you on your way?",
			Body:  fmt.Sprintf("Your appointment starts in %d minutes.", a.MinutesUntilAppointment),
			Data:  map[string]string{"bookingId": a.BookingID},
		})
	}
}

func (s *Service) send(ctx context.Context, userID string, msg models.Message) {
	if err := s.notifier.Send(ctx, userID, msg); err != nil {
		s.logger.Warn("Failed to send risk notification", zap.String("userID", userID), zap.String("type", msg.Type), zap.Error(err))
	}
}

// RecordTelemetry stores the client's live location summary on their booking.
func (s *Service) RecordTelemetry(ctx context.Context, bookingID, clientID string, in models.TelemetryInput) (*models.RiskAssessment, error) {
	if in.DistanceMeters < 0 || in.EtaSeconds < 0 {
		return nil, fmt.Errorf("%w: distance and eta must not be negative", ErrInvalidTelemetry)
	}

	for attempt := 0; attempt < telemetryRetries; attempt++ {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
		}
		if b.ClientID != clientID {
			return nil, ErrForbidden
		}
		if b.Status != models.BookingConfirmed {
			return nil, ErrBookingNotActive
		}

		now := s.clock.Now()
		distance, eta := in.DistanceMeters, in.EtaSeconds
		b.DistanceMeters = &distance
		b.EtaSeconds = &eta
		b.IsEnRoute = in.IsEnRoute
		b.TelemetryAt = &now
		b.UpdatedAt = now

		err = s.bookings.Update(ctx, b, b.Version)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store telemetry: %w", err)
		}
		a := Assess(*b, now)
		return &a, nil
	}
	return nil, fmt.Errorf("failed to store telemetry for %s: %w", bookingID, repository.ErrConflict)
}
