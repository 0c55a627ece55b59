package handlers

import (
	"context"
	"net/http"

	"glowbook/models"

	"github.com/gin-gonic/gin"
)

// RiskService exposes late-arrival assessments and client telemetry.
type RiskService interface {
	LateRiskBookings(ctx context.Context, stylistID string, minLevel models.RiskLevel) ([]models.RiskAssessment, error)
	RecordTelemetry(ctx context.Context, bookingID, clientID string, in models.TelemetryInput) (*models.RiskAssessment, error)
}

// MitigationService applies corrective actions to at-risk bookings.
type MitigationService interface {
	Bump(ctx context.Context, bookingID, stylistID string, in models.BumpInput) (*models.MitigationResult, error)
	PartialRefund(ctx context.Context, bookingID, stylistID string, in models.PartialRefundInput) (*models.MitigationResult, error)
	ContactClient(ctx context.Context, bookingID, stylistID string, in models.ContactClientInput) (*models.MitigationResult, error)
	Cancel(ctx context.Context, bookingID, stylistID string, in models.CancelInput) (*models.MitigationResult, error)
	Wait(ctx context.Context, bookingID, stylistID string, in models.WaitInput) (*models.MitigationResult, error)
}

type BookingHandler struct {
	Risk       RiskService
	Mitigation MitigationService
}

func NewBookingHandler(riskSvc RiskService, mitigationSvc MitigationService) *BookingHandler {
	return &BookingHandler{Risk: riskSvc, Mitigation: mitigationSvc}
}

// LateRiskBookings handles GET /api/bookings/late-risk-bookings.
func (h *BookingHandler) LateRiskBookings(c *gin.Context) {
	level := models.RiskLevel(c.Query("minLevel"))
	list, err := h.Risk.LateRiskBookings(c.Request.Context(), callerID(c), level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": emptyIfNil(list)})
}

// RecordTelemetry handles POST /api/bookings/:id/telemetry from the client app.
func (h *BookingHandler) RecordTelemetry(c *gin.Context) {
	var input models.TelemetryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.Risk.RecordTelemetry(c.Request.Context(), c.Param("id"), callerID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// mitigate binds the action body and runs it against the booking in the path.
func mitigate[T any](c *gin.Context, run func(ctx context.Context, bookingID, stylistID string, in T) (*models.MitigationResult, error)) {
	var input T
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := run(c.Request.Context(), c.Param("id"), callerID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) Bump(c *gin.Context) {
	mitigate(c, h.Mitigation.Bump)
}

func (h *BookingHandler) PartialRefund(c *gin.Context) {
	mitigate(c, h.Mitigation.PartialRefund)
}

func (h *BookingHandler) ContactClient(c *gin.Context) {
	mitigate(c, h.Mitigation.ContactClient)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	mitigate(c, h.Mitigation.Cancel)
}

func (h *BookingHandler) Wait(c *gin.Context) {
	var input models.WaitInput
	_ = c.ShouldBindJSON(&input)
	res, err := h.Mitigation.Wait(c.Request.Context(), c.Param("id"), callerID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
