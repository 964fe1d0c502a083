package core

import (
	"fmt"
	"strings"
)

// Event type states. A state describes what an event of this type says about
// the host: work is now required, the condition is cleared, or the host is
// known broken.
const (
	StateRequired = "required"
	StateOK       = "ok"
	StateBroken   = "broken"
)

// EventType categorizes events by what happened and what it implies.
type EventType struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// Href returns the API location of this event type under the given prefix.
func (et EventType) Href(prefix string) string {
	return fmt.Sprintf("%s/eventtypes/%d", prefix, et.ID)
}

// Validate checks that the event type is well formed.
func (et EventType) Validate() error {
	if strings.TrimSpace(et.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalid)
	}
	switch et.State {
	case StateRequired, StateOK, StateBroken:
	case "":
		return fmt.Errorf("%w: state is required", ErrInvalid)
	default:
		return fmt.Errorf("%w: unknown state %q", ErrInvalid, et.State)
	}
	return nil
}
