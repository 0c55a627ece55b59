// Command seed fills a local Mongo database with stylists and upcoming bookings so the
// risk poller and mitigation endpoints have something to act on.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"glowbook/config"
	"glowbook/database"
	bookingRepo "glowbook/database/repository/booking"
	workStatusRepo "glowbook/database/repository/workStatus"
	"glowbook/models"
	"glowbook/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	config.LoadConfig()
	database.InitDB()
	db := database.DB()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Clear existing demo data.
	for _, name := range []string{"bookings", "booking_requests", "work_status"} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("Failed to clear %s collection: %v", name, err)
		}
	}

	bookings := bookingRepo.NewMongoBookingRepo(db)
	work := workStatusRepo.NewMongoWorkStatusRepo(db)
	if err := bookings.EnsureIndexes(); err != nil {
		log.Fatalf("Failed to ensure booking indexes: %v", err)
	}
	if err := work.EnsureIndexes(); err != nil {
		log.Fatalf("Failed to ensure work status indexes: %v", err)
	}

	now := time.Now().UTC()
	states := []models.WorkState{models.WorkAvailable, models.WorkWorking, models.WorkUnavailable, models.WorkOffline}
	stylists := 4
	clients := 6

	for i := 1; i <= stylists; i++ {
		ws := &models.WorkStatus{
			StylistID: fmt.Sprintf("stylist-%d", i),
			Status:    states[(i-1)%len(states)],
			UpdatedAt: now,
		}
		if ws.Status == models.WorkWorking {
			est := now.Add(20 * time.Minute)
			ws.WorkStartedAt = &now
			ws.EstimatedAvailableAt = &est
		}
		if err := work.Save(ctx, ws, 0); err != nil {
			log.Fatalf("Failed to save work status for %s: %v", ws.StylistID, err)
		}
	}

	// Spread start times over the next three hours so every risk level shows up.
	offsets := []time.Duration{5 * time.Minute, 20 * time.Minute, 45 * time.Minute, 90 * time.Minute, 150 * time.Minute}
	inserted := 0
	for i := 1; i <= stylists; i++ {
		for j, off := range offsets {
			startsAt := now.Add(off).Truncate(time.Minute)
			b := &models.Booking{
				ID:              uuid.New().String(),
				RequestID:       uuid.New().String(),
				ClientID:        fmt.Sprintf("client-%d", rand.Intn(clients)+1),
				StylistID:       fmt.Sprintf("stylist-%d", i),
				ServiceID:       "demo-service",
				Date:            startsAt.Format("2006-01-02"),
				Start:           startsAt.Hour()*60 + startsAt.Minute(),
				StartsAt:        startsAt,
				EndsAt:          startsAt.Add(60 * time.Minute),
				DurationMinutes: 60,
				TotalPrice:      float64(40 + rand.Intn(120)),
				Currency:        "USD",
				PaymentMethod:   []string{"card", "cash"}[j%2],
				Status:          models.BookingConfirmed,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			// Every other booking has a client en route with a random ETA.
			if j%2 == 1 {
				eta := rand.Intn(90) * 60
				dist := float64(500 + rand.Intn(20000))
				b.IsEnRoute = true
				b.EtaSeconds = &eta
				b.DistanceMeters = &dist
				b.TelemetryAt = &now
			}
			if err := bookings.Create(ctx, b); err != nil {
				log.Fatalf("Failed to insert booking: %v", err)
			}
			inserted++
		}
	}
	fmt.Printf("Inserted %d work statuses and %d bookings\n", stylists, inserted)

	// Demo tokens for calling the API.
	for _, who := range []struct{ sub, role string }{{"stylist-1", utils.RoleStylist}, {"client-1", utils.RoleClient}} {
		tok, err := utils.GenerateToken(who.sub, who.role, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Printf("%s (%s): %s\n", who.sub, who.role, tok)
	}
}
