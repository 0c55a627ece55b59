package notification

import (
	"context"
	"sync"

	"glowbook/models"
)

// Sent is one message captured by a Recorder.
type Sent struct {
	UserID  string
	Message models.Message
}

// Recorder captures messages instead of delivering them. Err, when set, is returned from Send.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) Send(_ context.Context, userID string, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{UserID: userID, Message: msg})
	return r.Err
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Count returns how many messages of the given type were sent to userID.
func (r *Recorder) Count(userID, msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.UserID == userID && s.Message.Type == msgType {
			n++
		}
	}
	return n
}
