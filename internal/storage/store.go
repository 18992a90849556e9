// Package storage persists versioned JSON snapshots in a key-value table.
// SQLite is the default backend; Postgres is selected through DATABASE_TYPE.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DataVersion tags every snapshot. Bumping it invalidates old snapshots
// without destroying them, so a schema change resets cleanly.
const DataVersion = "2.0.0"

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database
func Connect() error {
	dbType := os.Getenv("DATABASE_TYPE")
	if dbType == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	// Create data directory if it doesn't exist
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "vocabquiz.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates the snapshot table if it doesn't exist
func initializeSchema() error {
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %v", err)
	}
	return nil
}

// SnapshotRepository handles snapshot reads and writes
type SnapshotRepository struct{}

// NewSnapshotRepository creates a new repository instance
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

// Save serializes value and upserts it under key with the current data
// version
func (r *SnapshotRepository) Save(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %s: %v", key, err)
	}

	var query string
	if DB.DriverName() == "postgres" {
		query = `
			INSERT INTO snapshots (key, version, payload, updated_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET
				version = EXCLUDED.version,
				payload = EXCLUDED.payload,
				updated_at = CURRENT_TIMESTAMP
		`
	} else {
		query = `
			INSERT INTO snapshots (key, version, payload, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET
				version = excluded.version,
				payload = excluded.payload,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	if _, err := DB.Exec(query, key, DataVersion, string(payload)); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %v", key, err)
	}
	return nil
}

// Load reads the snapshot under key into out. It returns false when no
// snapshot exists or when the stored version does not match the current data
// version, which treats old-format data as absent rather than deleting it.
func (r *SnapshotRepository) Load(key string, out interface{}) (bool, error) {
	var query string
	if DB.DriverName() == "postgres" {
		query = `SELECT version, payload FROM snapshots WHERE key = $1`
	} else {
		query = `SELECT version, payload FROM snapshots WHERE key = ?`
	}

	var row struct {
		Version string `db:"version"`
		Payload string `db:"payload"`
	}
	err := DB.Get(&row, query, key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot %s: %v", key, err)
	}
	if row.Version != DataVersion {
		return false, nil
	}

	if err := json.Unmarshal([]byte(row.Payload), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal snapshot %s: %v", key, err)
	}
	return true, nil
}

// Delete removes the snapshot under key
func (r *SnapshotRepository) Delete(key string) error {
	var query string
	if DB.DriverName() == "postgres" {
		query = `DELETE FROM snapshots WHERE key = $1`
	} else {
		query = `DELETE FROM snapshots WHERE key = ?`
	}
	if _, err := DB.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %v", key, err)
	}
	return nil
}

// Reset removes all snapshots, used by explicit data resets
func (r *SnapshotRepository) Reset() error {
	if _, err := DB.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to reset snapshots: %v", err)
	}
	return nil
}
