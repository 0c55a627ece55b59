package handlers

import (
	"net/http"

	"glowbook/models"
	"glowbook/services/notification"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	Tokens notification.TokenStore
}

func NewDeviceHandler(tokens notification.TokenStore) *DeviceHandler {
	return &DeviceHandler{Tokens: tokens}
}

// UpdateFCMTokenHandler registers the caller's push token.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	var input models.DeviceTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Tokens.SetToken(c.Request.Context(), callerID(c), input.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
