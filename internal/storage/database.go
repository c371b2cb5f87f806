package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys on every pooled connection and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			user_ip TEXT,
			user_agent TEXT,
			started_at DATETIME NOT NULL,
			last_message_at DATETIME NOT NULL,
			total_messages INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			ended_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			response_time_ms REAL,
			extra_data TEXT,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, id);`,
		`CREATE TABLE IF NOT EXISTS article_queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			article_key TEXT NOT NULL,
			conversation_id INTEGER,
			queried_at DATETIME NOT NULL,
			search_type TEXT,
			search_query TEXT,
			found INTEGER NOT NULL DEFAULT 0,
			source TEXT,
			response_time_ms REAL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE SET NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_article_queries_key ON article_queries (article_key);`,
		`CREATE INDEX IF NOT EXISTS idx_article_queries_time ON article_queries (queried_at);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_started ON conversations (started_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Databases created before conversations could be ended lack these columns.
	columns := []struct{ table, name, def string }{
		{"conversations", "is_active", "INTEGER NOT NULL DEFAULT 1"},
		{"conversations", "ended_at", "DATETIME"},
	}
	for _, c := range columns {
		if err := addColumn(db, c.table, c.name, c.def); err != nil {
			return err
		}
	}

	return nil
}

// addColumn adds a column unless the table already has it.
func addColumn(db *sql.DB, table, name, def string) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, name).Scan(&n); err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, def)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, name, err)
	}
	return nil
}
