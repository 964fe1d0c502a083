package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hermes/core"

	"go.uber.org/zap"
)

// EventStorage provides SQLite-backed event persistence. Events are
// append-only; there is no update or delete path.
type EventStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewEventStorage creates a new event storage.
func NewEventStorage(sqlite *SQLite, logger *zap.SugaredLogger) *EventStorage {
	return &EventStorage{sqlite: sqlite, logger: logger}
}

// EventFilter narrows event listings.
type EventFilter struct {
	Hostname    string
	EventTypeID int64
}

const eventColumns = `
	e.id, e.host_id, h.hostname, e.user, e.event_type_id, e.note, e.timestamp`

// CreateEvent inserts an event and sets its ID and timestamp.
func (s *EventStorage) CreateEvent(ctx context.Context, event *core.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	res, err := s.sqlite.DB.ExecContext(ctx,
		"INSERT INTO events (host_id, user, event_type_id, note, timestamp) VALUES (?, ?, ?, ?, ?)",
		event.HostID, event.User, event.EventTypeID, event.Note, event.Timestamp)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	event.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	return nil
}

// GetEvent returns the event with the given ID.
func (s *EventStorage) GetEvent(ctx context.Context, id int64) (*core.Event, error) {
	row := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT"+eventColumns+" FROM events e JOIN hosts h ON h.id = e.host_id WHERE e.id = ?", id)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// GetEvents returns a page of events newest first, together with the
// unpaginated total.
func (s *EventStorage) GetEvents(ctx context.Context, filter EventFilter, offset, limit int) ([]core.Event, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Hostname != "" {
		where += " AND h.hostname = ?"
		args = append(args, filter.Hostname)
	}
	if filter.EventTypeID > 0 {
		where += " AND e.event_type_id = ?"
		args = append(args, filter.EventTypeID)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM events e JOIN hosts h ON h.id = e.host_id" + where
	if err := s.sqlite.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := "SELECT" + eventColumns +
		" FROM events e JOIN hosts h ON h.id = e.host_id" + where +
		" ORDER BY e.timestamp DESC, e.id DESC LIMIT ? OFFSET ?"
	rows, err := s.sqlite.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []core.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, total, rows.Err()
}

// LatestEventForHost returns the most recent event for a host, or nil when
// the host has none.
func (s *EventStorage) LatestEventForHost(ctx context.Context, hostname string) (*core.Event, error) {
	row := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT"+eventColumns+
			" FROM events e JOIN hosts h ON h.id = e.host_id WHERE h.hostname = ?"+
			" ORDER BY e.timestamp DESC, e.id DESC LIMIT 1", hostname)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return event, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*core.Event, error) {
	var event core.Event
	err := row.Scan(&event.ID, &event.HostID, &event.Hostname, &event.User,
		&event.EventTypeID, &event.Note, &event.Timestamp)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
