package models

import "time"

// WorkState is a stylist's live working/availability state.
type WorkState string

const (
	WorkOffline     WorkState = "offline"
	WorkWorking     WorkState = "working"
	WorkAvailable   WorkState = "available"
	WorkUnavailable WorkState = "unavailable"
)

// WorkStatus is the one live record per stylist.
type WorkStatus struct {
	StylistID            string     `bson:"stylist_id" json:"stylistId"`
	Status               WorkState  `bson:"status" json:"status"`
	WorkStartedAt        *time.Time `bson:"work_started_at,omitempty" json:"workStartedAt,omitempty"`
	EstimatedAvailableAt *time.Time `bson:"estimated_available_at,omitempty" json:"estimatedAvailableAt,omitempty"`
	ActualAvailableAt    *time.Time `bson:"actual_available_at,omitempty" json:"actualAvailableAt,omitempty"`
	AlertSent            bool       `bson:"alert_sent" json:"alertSent"`
	WorkExtendedCount    int        `bson:"work_extended_count" json:"workExtendedCount"`
	Note                 string     `bson:"note,omitempty" json:"note,omitempty"`
	UpdatedAt            time.Time  `bson:"updated_at" json:"updatedAt"`

	Version int `bson:"version" json:"-"`
}

// AcceptsRequests reports whether new booking requests may be sent to the stylist.
func (w WorkStatus) AcceptsRequests() bool {
	return w.Status == WorkWorking || w.Status == WorkAvailable
}

// MarkWorkingInput is the body of POST /work-status/mark-working.
type MarkWorkingInput struct {
	EstimatedAvailableAt time.Time `json:"estimatedAvailableAt"`
	Note                 string    `json:"note,omitempty"`
}

// ExtendWorkInput is the body of POST /work-status/extend-work.
type ExtendWorkInput struct {
	NewEstimatedAvailableAt time.Time `json:"newEstimatedAvailableAt"`
}

// NoteInput is the optional body of the availability endpoints.
type NoteInput struct {
	Note string `json:"note,omitempty"`
}
