package storage

// migrate creates the hermes schema. Statements are idempotent so startup can
// run them unconditionally.
func (s *SQLite) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS hosts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hostname TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS event_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			state TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			UNIQUE (category, state)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			host_id INTEGER NOT NULL REFERENCES hosts(id),
			user TEXT NOT NULL,
			event_type_id INTEGER NOT NULL REFERENCES event_types(id),
			note TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_host ON events(host_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type_id, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
