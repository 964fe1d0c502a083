package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hermes/core"

	"go.uber.org/zap"
)

// EventTypeStorage provides SQLite-backed event type persistence.
type EventTypeStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewEventTypeStorage creates a new event type storage.
func NewEventTypeStorage(sqlite *SQLite, logger *zap.SugaredLogger) *EventTypeStorage {
	return &EventTypeStorage{sqlite: sqlite, logger: logger}
}

// CreateEventType inserts an event type and sets its ID.
func (s *EventTypeStorage) CreateEventType(ctx context.Context, et *core.EventType) error {
	if err := et.Validate(); err != nil {
		return err
	}

	res, err := s.sqlite.DB.ExecContext(ctx,
		"INSERT INTO event_types (category, state, description) VALUES (?, ?, ?)",
		et.Category, et.State, et.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateEventType, et.Category, et.State)
		}
		return fmt.Errorf("failed to create event type: %w", err)
	}

	et.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event type id: %w", err)
	}
	return nil
}

// GetEventType returns the event type with the given ID.
func (s *EventTypeStorage) GetEventType(ctx context.Context, id int64) (*core.EventType, error) {
	var et core.EventType
	err := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT id, category, state, description FROM event_types WHERE id = ?", id).
		Scan(&et.ID, &et.Category, &et.State, &et.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrEventTypeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event type: %w", err)
	}
	return &et, nil
}

// GetEventTypes returns a page of event types, optionally filtered by
// category and state, together with the unpaginated total.
func (s *EventTypeStorage) GetEventTypes(ctx context.Context, category, state string, offset, limit int) ([]core.EventType, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if category != "" {
		where += " AND category = ?"
		args = append(args, category)
	}
	if state != "" {
		where += " AND state = ?"
		args = append(args, state)
	}

	var total int64
	if err := s.sqlite.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_types"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count event types: %w", err)
	}

	query := "SELECT id, category, state, description FROM event_types" + where + " ORDER BY id LIMIT ? OFFSET ?"
	rows, err := s.sqlite.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list event types: %w", err)
	}
	defer rows.Close()

	eventTypes := []core.EventType{}
	for rows.Next() {
		var et core.EventType
		if err := rows.Scan(&et.ID, &et.Category, &et.State, &et.Description); err != nil {
			return nil, 0, fmt.Errorf("failed to scan event type: %w", err)
		}
		eventTypes = append(eventTypes, et)
	}
	return eventTypes, total, rows.Err()
}

// UpdateEventType replaces the description of an event type. Category and
// state are immutable once created; events already recorded depend on them.
func (s *EventTypeStorage) UpdateEventType(ctx context.Context, id int64, description string) (*core.EventType, error) {
	res, err := s.sqlite.DB.ExecContext(ctx,
		"UPDATE event_types SET description = ? WHERE id = ?", description, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update event type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrEventTypeNotFound, id)
	}
	return s.GetEventType(ctx, id)
}
