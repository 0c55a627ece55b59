package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"glowbook/services/mitigation"
	"glowbook/services/workStatus"
	"glowbook/utils"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorMapsWrappedSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"refund moved but not recorded", fmt.Errorf("%w: refund re_1: timeout", mitigation.ErrRefundNotRecorded), http.StatusInternalServerError, "refund_not_recorded"},
		{"lost race", mitigation.ErrConflict, http.StatusConflict, "conflict"},
		{"provider rejected", fmt.Errorf("%w: refund failed: declined", mitigation.ErrExternalServiceFailure), http.StatusBadGateway, "external_service_failure"},
		{"not working", workStatus.ErrNotWorking, http.StatusConflict, "not_working"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body utils.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Fatalf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}
