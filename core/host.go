package core

import (
	"fmt"
	"strings"
)

// Host represents a machine tracked by hermes. Hostnames are unique.
type Host struct {
	ID       int64  `json:"id"`
	Hostname string `json:"hostname"`
}

// Href returns the API location of this host under the given prefix.
func (h Host) Href(prefix string) string {
	return fmt.Sprintf("%s/hosts/%s", prefix, h.Hostname)
}

// Validate checks that the host is well formed.
func (h Host) Validate() error {
	hostname := strings.TrimSpace(h.Hostname)
	if hostname == "" {
		return fmt.Errorf("%w: hostname is required", ErrInvalid)
	}
	if len(hostname) > 255 {
		return fmt.Errorf("%w: hostname exceeds 255 characters", ErrInvalid)
	}
	if strings.ContainsAny(hostname, " \t\n/") {
		return fmt.Errorf("%w: hostname contains invalid characters", ErrInvalid)
	}
	return nil
}
