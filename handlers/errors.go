package handlers

import (
	"errors"
	"net/http"

	"glowbook/services/bookingRequest"
	"glowbook/services/mitigation"
	"glowbook/services/risk"
	"glowbook/services/workStatus"
	"glowbook/utils"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable maps service sentinels to HTTP responses. Race losers are 409s, not 500s.
var errorTable = []errorMapping{
	{bookingRequest.ErrNotFound, http.StatusNotFound, "not_found"},
	{bookingRequest.ErrForbidden, http.StatusForbidden, "forbidden"},
	{bookingRequest.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{bookingRequest.ErrRequestExpired, http.StatusGone, "request_expired"},
	{bookingRequest.ErrStylistUnavailable, http.StatusConflict, "stylist_unavailable"},
	{bookingRequest.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},

	{mitigation.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{mitigation.ErrForbidden, http.StatusForbidden, "forbidden"},
	{mitigation.ErrBookingAlreadyTerminal, http.StatusConflict, "booking_already_terminal"},
	{mitigation.ErrMitigationInProgress, http.StatusConflict, "mitigation_in_progress"},
	{mitigation.ErrRefundNotRecorded, http.StatusInternalServerError, "refund_not_recorded"},
	{mitigation.ErrConflict, http.StatusConflict, "conflict"},
	{mitigation.ErrInvalidTime, http.StatusBadRequest, "invalid_time"},
	{mitigation.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{mitigation.ErrExternalServiceFailure, http.StatusBadGateway, "external_service_failure"},

	{risk.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{risk.ErrForbidden, http.StatusForbidden, "forbidden"},
	{risk.ErrBookingNotActive, http.StatusConflict, "booking_not_active"},
	{risk.ErrInvalidTelemetry, http.StatusBadRequest, "invalid_telemetry"},
	{risk.ErrInvalidLevel, http.StatusBadRequest, "invalid_level"},

	{workStatus.ErrInvalidTime, http.StatusBadRequest, "invalid_time"},
	{workStatus.ErrNotWorking, http.StatusConflict, "not_working"},
	{workStatus.ErrConflict, http.StatusConflict, "conflict"},
}

// respondError writes the mapped error, or a 500 for anything unexpected.
func respondError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			utils.JSONError(c, m.status, m.code, m.err.Error(), err.Error())
			return
		}
	}
	utils.JSONError(c, http.StatusInternalServerError, "internal", "Internal Server Error", err.Error())
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "invalid_input", "Invalid request body", err.Error())
}
