package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking request endpoints
	CreateBookingRequest  gin.HandlerFunc
	MyBookingRequests     gin.HandlerFunc
	SentBookingRequests   gin.HandlerFunc
	GetBookingRequest     gin.HandlerFunc
	RespondBookingRequest gin.HandlerFunc
	ConfirmBookingRequest gin.HandlerFunc
	CancelBookingRequest  gin.HandlerFunc

	// Booking risk and mitigation endpoints
	LateRiskBookings      gin.HandlerFunc
	RecordTelemetry       gin.HandlerFunc
	MitigateBump          gin.HandlerFunc
	MitigatePartialRefund gin.HandlerFunc
	MitigateContact       gin.HandlerFunc
	MitigateCancel        gin.HandlerFunc
	MitigateWait          gin.HandlerFunc

	// Work status endpoints
	MyWorkStatus    gin.HandlerFunc
	MarkWorking     gin.HandlerFunc
	ExtendWork      gin.HandlerFunc
	MarkAvailable   gin.HandlerFunc
	MarkUnavailable gin.HandlerFunc
	GoOffline       gin.HandlerFunc
	MarkAlertSent   gin.HandlerFunc

	// Device endpoints
	UpdateFCMTokenHandler gin.HandlerFunc

	Health gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the per-area handlers.
func NewHandlerBundle(requests *BookingRequestHandler, bookings *BookingHandler, work *WorkStatusHandler, devices *DeviceHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateBookingRequest:  requests.CreateRequest,
		MyBookingRequests:     requests.MyRequests,
		SentBookingRequests:   requests.SentRequests,
		GetBookingRequest:     requests.GetRequest,
		RespondBookingRequest: requests.Respond,
		ConfirmBookingRequest: requests.Confirm,
		CancelBookingRequest:  requests.Cancel,

		LateRiskBookings:      bookings.LateRiskBookings,
		RecordTelemetry:       bookings.RecordTelemetry,
		MitigateBump:          bookings.Bump,
		MitigatePartialRefund: bookings.PartialRefund,
		MitigateContact:       bookings.ContactClient,
		MitigateCancel:        bookings.Cancel,
		MitigateWait:          bookings.Wait,

		MyWorkStatus:    work.MyStatus,
		MarkWorking:     work.MarkWorking,
		ExtendWork:      work.ExtendWork,
		MarkAvailable:   work.MarkAvailable,
		MarkUnavailable: work.MarkUnavailable,
		GoOffline:       work.GoOffline,
		MarkAlertSent:   work.MarkAlertSent,

		UpdateFCMTokenHandler: devices.UpdateFCMTokenHandler,

		Health: HealthHandler,
	}
}
