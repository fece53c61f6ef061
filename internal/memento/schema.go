package memento

// schemaSQL defines the SQLite schema for the state database.
// Tables:
//   - memento: global key-value state that survives restarts (auto-approve flag, ...)
const schemaSQL = `
CREATE TABLE IF NOT EXISTS memento (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// initSchema creates the database tables if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
