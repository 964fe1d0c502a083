// Package core defines the domain model for the hermes host event tracker:
// hosts, event types, and the events that happen to hosts. Types carry their
// own validation; persistence and transport live elsewhere.
package core
