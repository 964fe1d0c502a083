package core

import (
	"errors"
	"testing"
)

func TestHostValidate(t *testing.T) {
	tests := []struct {
		name    string
		host    Host
		wantErr bool
	}{
		{"valid", Host{Hostname: "web01.example.com"}, false},
		{"empty hostname", Host{}, true},
		{"whitespace hostname", Host{Hostname: "   "}, true},
		{"hostname with space", Host{Hostname: "web 01"}, true},
		{"hostname with slash", Host{Hostname: "web/01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.host.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Validate() = %v, want ErrInvalid", err)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestEventTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		et      EventType
		wantErr bool
	}{
		{"valid required", EventType{Category: "system-reboot", State: StateRequired}, false},
		{"valid ok", EventType{Category: "system-reboot", State: StateOK}, false},
		{"valid broken", EventType{Category: "system-maintenance", State: StateBroken}, false},
		{"missing category", EventType{State: StateRequired}, true},
		{"missing state", EventType{Category: "system-reboot"}, true},
		{"unknown state", EventType{Category: "system-reboot", State: "pending"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.et.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	valid := Event{HostID: 1, EventTypeID: 2, User: "johnny"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		event Event
	}{
		{"missing host", Event{EventTypeID: 2, User: "johnny"}},
		{"missing event type", Event{HostID: 1, User: "johnny"}},
		{"missing user", Event{HostID: 1, EventTypeID: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestHrefs(t *testing.T) {
	host := Host{ID: 1, Hostname: "example"}
	if got := host.Href("/api/v1"); got != "/api/v1/hosts/example" {
		t.Errorf("Host.Href() = %q", got)
	}

	et := EventType{ID: 7}
	if got := et.Href("/api/v1"); got != "/api/v1/eventtypes/7" {
		t.Errorf("EventType.Href() = %q", got)
	}

	event := Event{ID: 12}
	if got := event.Href("/api/v1"); got != "/api/v1/events/12" {
		t.Errorf("Event.Href() = %q", got)
	}
}
