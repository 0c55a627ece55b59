package routes

import (
	"time"

	"glowbook/handlers"
	"glowbook/middleware"
	"glowbook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRequestRoutes registers the booking request lifecycle endpoints.
func RegisterBookingRequestRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	requests := api.Group("/booking-requests")
	{
		// Either party may read a request it belongs to.
		requests.GET("/:id", hb.GetBookingRequest)

		client := requests.Group("")
		client.Use(middleware.RequireRole(utils.RoleClient))
		client.POST("", hb.CreateBookingRequest)
		client.GET("/sent", hb.SentBookingRequests)
		client.POST("/:id/confirm", hb.ConfirmBookingRequest)
		client.POST("/:id/cancel", hb.CancelBookingRequest)

		stylist := requests.Group("")
		stylist.Use(middleware.RequireRole(utils.RoleStylist))
		stylist.GET("/my-requests", hb.MyBookingRequests)
		stylist.POST("/:id/respond", hb.RespondBookingRequest)
	}
}

// RegisterBookingRoutes registers late-risk and mitigation endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("/:id/telemetry", middleware.RequireRole(utils.RoleClient), hb.RecordTelemetry)

		stylist := bookings.Group("")
		stylist.Use(middleware.RequireRole(utils.RoleStylist))
		stylist.GET("/late-risk-bookings", hb.LateRiskBookings)
		stylist.POST("/:id/mitigation/bump", hb.MitigateBump)
		stylist.POST("/:id/mitigation/partial-refund", hb.MitigatePartialRefund)
		stylist.POST("/:id/mitigation/contact-client", hb.MitigateContact)
		stylist.POST("/:id/mitigation/cancel", hb.MitigateCancel)
		stylist.POST("/:id/mitigation/wait", hb.MitigateWait)
	}
}

// RegisterWorkStatusRoutes registers the stylist's work status endpoints.
func RegisterWorkStatusRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	work := api.Group("/work-status")
	{
		work.Use(middleware.RequireRole(utils.RoleStylist))
		work.GET("/my-status", hb.MyWorkStatus)
		work.POST("/mark-working", hb.MarkWorking)
		work.POST("/extend-work", hb.ExtendWork)
		work.POST("/mark-available", hb.MarkAvailable)
		work.POST("/mark-unavailable", hb.MarkUnavailable)
		work.POST("/go-offline", hb.GoOffline)
		work.POST("/mark-alert-sent", hb.MarkAlertSent)
	}
}

func RegisterDeviceRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/devices/fcm-token", hb.UpdateFCMTokenHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())
	RegisterBookingRequestRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterWorkStatusRoutes(api, hb)
	RegisterDeviceRoutes(api, hb)
}
