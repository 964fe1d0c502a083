package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hermes/core"

	"go.uber.org/zap"
)

// HostStorage provides SQLite-backed host persistence.
type HostStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewHostStorage creates a new host storage.
func NewHostStorage(sqlite *SQLite, logger *zap.SugaredLogger) *HostStorage {
	return &HostStorage{sqlite: sqlite, logger: logger}
}

// CreateHost inserts a host and sets its ID.
func (s *HostStorage) CreateHost(ctx context.Context, host *core.Host) error {
	if err := host.Validate(); err != nil {
		return err
	}

	res, err := s.sqlite.DB.ExecContext(ctx,
		"INSERT INTO hosts (hostname) VALUES (?)", host.Hostname)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateHost, host.Hostname)
		}
		return fmt.Errorf("failed to create host: %w", err)
	}

	host.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read host id: %w", err)
	}
	return nil
}

// GetHost returns the host with the given hostname.
func (s *HostStorage) GetHost(ctx context.Context, hostname string) (*core.Host, error) {
	var host core.Host
	err := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT id, hostname FROM hosts WHERE hostname = ?", hostname).
		Scan(&host.ID, &host.Hostname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotFound, hostname)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	return &host, nil
}

// GetHosts returns a page of hosts, optionally filtered by exact hostname,
// together with the unpaginated total.
func (s *HostStorage) GetHosts(ctx context.Context, hostname string, offset, limit int) ([]core.Host, int64, error) {
	where := ""
	args := []interface{}{}
	if hostname != "" {
		where = " WHERE hostname = ?"
		args = append(args, hostname)
	}

	var total int64
	if err := s.sqlite.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM hosts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count hosts: %w", err)
	}

	query := "SELECT id, hostname FROM hosts" + where + " ORDER BY hostname LIMIT ? OFFSET ?"
	rows, err := s.sqlite.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	hosts := []core.Host{}
	for rows.Next() {
		var host core.Host
		if err := rows.Scan(&host.ID, &host.Hostname); err != nil {
			return nil, 0, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	return hosts, total, rows.Err()
}

// UpdateHost renames a host.
func (s *HostStorage) UpdateHost(ctx context.Context, hostname, newHostname string) (*core.Host, error) {
	if err := (core.Host{Hostname: newHostname}).Validate(); err != nil {
		return nil, err
	}

	res, err := s.sqlite.DB.ExecContext(ctx,
		"UPDATE hosts SET hostname = ? WHERE hostname = ?", newHostname, hostname)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHost, newHostname)
		}
		return nil, fmt.Errorf("failed to update host: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrHostNotFound, hostname)
	}

	return s.GetHost(ctx, newHostname)
}

// DeleteHost removes a host. Hosts with recorded events cannot be deleted.
func (s *HostStorage) DeleteHost(ctx context.Context, hostname string) error {
	res, err := s.sqlite.DB.ExecContext(ctx, "DELETE FROM hosts WHERE hostname = ?", hostname)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to delete host: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrHostNotFound, hostname)
	}
	return nil
}
