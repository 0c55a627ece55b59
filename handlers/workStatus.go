package handlers

import (
	"context"
	"net/http"
	"time"

	"glowbook/models"

	"github.com/gin-gonic/gin"
)

// WorkStatusService is the stylist's own work status state machine.
type WorkStatusService interface {
	Get(ctx context.Context, stylistID string) (*models.WorkStatus, error)
	MarkWorking(ctx context.Context, stylistID string, estimatedAvailableAt time.Time, note string) (*models.WorkStatus, error)
	ExtendWork(ctx context.Context, stylistID string, newEstimate time.Time) (*models.WorkStatus, error)
	MarkAvailable(ctx context.Context, stylistID, note string) (*models.WorkStatus, error)
	MarkUnavailable(ctx context.Context, stylistID, note string) (*models.WorkStatus, error)
	GoOffline(ctx context.Context, stylistID string) (*models.WorkStatus, error)
	MarkAlertSent(ctx context.Context, stylistID string) (*models.WorkStatus, error)
}

type WorkStatusHandler struct {
	Service WorkStatusService
}

func NewWorkStatusHandler(svc WorkStatusService) *WorkStatusHandler {
	return &WorkStatusHandler{Service: svc}
}

func (h *WorkStatusHandler) reply(c *gin.Context, ws *models.WorkStatus, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkStatusHandler) MyStatus(c *gin.Context) {
	ws, err := h.Service.Get(c.Request.Context(), callerID(c))
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) MarkWorking(c *gin.Context) {
	var input models.MarkWorkingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ws, err := h.Service.MarkWorking(c.Request.Context(), callerID(c), input.EstimatedAvailableAt, input.Note)
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) ExtendWork(c *gin.Context) {
	var input models.ExtendWorkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ws, err := h.Service.ExtendWork(c.Request.Context(), callerID(c), input.NewEstimatedAvailableAt)
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) MarkAvailable(c *gin.Context) {
	var input models.NoteInput
	_ = c.ShouldBindJSON(&input)
	ws, err := h.Service.MarkAvailable(c.Request.Context(), callerID(c), input.Note)
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) MarkUnavailable(c *gin.Context) {
	var input models.NoteInput
	_ = c.ShouldBindJSON(&input)
	ws, err := h.Service.MarkUnavailable(c.Request.Context(), callerID(c), input.Note)
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) GoOffline(c *gin.Context) {
	ws, err := h.Service.GoOffline(c.Request.Context(), callerID(c))
	h.reply(c, ws, err)
}

func (h *WorkStatusHandler) MarkAlertSent(c *gin.Context) {
	ws, err := h.Service.MarkAlertSent(c.Request.Context(), callerID(c))
	h.reply(c, ws, err)
}
