package handlers

import (
	"context"
	"net/http"

	"glowbook/models"

	"github.com/gin-gonic/gin"
)

// BookingRequestService is the booking request lifecycle as seen by HTTP callers.
type BookingRequestService interface {
	Create(ctx context.Context, clientID string, in models.CreateBookingRequestInput) (*models.BookingRequest, error)
	Respond(ctx context.Context, requestID, stylistID string, response models.StylistResponse, declineReason string) (*models.RespondResult, error)
	ConfirmByClient(ctx context.Context, requestID, clientID string) (*models.BookingRequest, error)
	CancelByClient(ctx context.Context, requestID, clientID, reason string) (*models.BookingRequest, error)
	Get(ctx context.Context, requestID, userID string) (*models.BookingRequest, error)
	ListForStylist(ctx context.Context, stylistID string, status models.BookingRequestStatus) ([]models.BookingRequest, error)
	ListForClient(ctx context.Context, clientID string, status models.BookingRequestStatus) ([]models.BookingRequest, error)
}

type BookingRequestHandler struct {
	Service BookingRequestService
}

func NewBookingRequestHandler(svc BookingRequestService) *BookingRequestHandler {
	return &BookingRequestHandler{Service: svc}
}

// CreateRequest handles POST /api/booking-requests.
func (h *BookingRequestHandler) CreateRequest(c *gin.Context) {
	var input models.CreateBookingRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	req, err := h.Service.Create(c.Request.Context(), callerID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// MyRequests handles GET /api/booking-requests/my-requests for stylists.
func (h *BookingRequestHandler) MyRequests(c *gin.Context) {
	status := models.BookingRequestStatus(c.Query("status"))
	reqs, err := h.Service.ListForStylist(c.Request.Context(), callerID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": emptyIfNil(reqs)})
}

// SentRequests handles GET /api/booking-requests/sent for clients.
func (h *BookingRequestHandler) SentRequests(c *gin.Context) {
	status := models.BookingRequestStatus(c.Query("status"))
	reqs, err := h.Service.ListForClient(c.Request.Context(), callerID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": emptyIfNil(reqs)})
}

func (h *BookingRequestHandler) GetRequest(c *gin.Context) {
	req, err := h.Service.Get(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Respond handles POST /api/booking-requests/:id/respond.
func (h *BookingRequestHandler) Respond(c *gin.Context) {
	var input models.RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Service.Respond(c.Request.Context(), c.Param("id"), callerID(c), input.Response, input.DeclineReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingRequestHandler) Confirm(c *gin.Context) {
	req, err := h.Service.ConfirmByClient(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *BookingRequestHandler) Cancel(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// The body is optional.
	_ = c.ShouldBindJSON(&input)

	req, err := h.Service.CancelByClient(c.Request.Context(), c.Param("id"), callerID(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
