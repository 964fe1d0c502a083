package core

import (
	"fmt"
	"strings"
	"time"
)

// Event records that something of a given EventType happened to a Host.
// Events are immutable once written; they form the host's audit trail.
type Event struct {
	ID          int64     `json:"id"`
	HostID      int64     `json:"hostId"`
	Hostname    string    `json:"hostname"`
	User        string    `json:"user"`
	EventTypeID int64     `json:"eventTypeId"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Href returns the API location of this event under the given prefix.
func (e Event) Href(prefix string) string {
	return fmt.Sprintf("%s/events/%d", prefix, e.ID)
}

// Validate checks that the event is well formed.
func (e Event) Validate() error {
	if e.HostID <= 0 {
		return fmt.Errorf("%w: host is required", ErrInvalid)
	}
	if e.EventTypeID <= 0 {
		return fmt.Errorf("%w: event type is required", ErrInvalid)
	}
	if strings.TrimSpace(e.User) == "" {
		return fmt.Errorf("%w: user is required", ErrInvalid)
	}
	return nil
}
