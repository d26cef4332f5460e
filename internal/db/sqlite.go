package db

import (
	"database/sql"
	"fmt"

	"github.com/RichardoC/aipro/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Rows live only as long as their session: they are removed when the chat
// is cleared or the session ends.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS turns_session_idx ON turns(session_id, id);`

type Database struct {
	db *sql.DB
}

func New(dsn string) (*Database, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" opens a fresh database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (db *Database) AppendTurn(sessionID string, turn models.Turn) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO sessions (id) VALUES (?)`, sessionID); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO turns (session_id, role, text, created_at)
        VALUES (?, ?, ?, ?)`, sessionID, string(turn.Role), turn.Text, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return tx.Commit()
}

func (db *Database) Turns(sessionID string) ([]models.Turn, error) {
	rows, err := db.db.Query(`
        SELECT role, text, created_at
        FROM turns
        WHERE session_id = ?
        ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]models.Turn, 0)
	for rows.Next() {
		var (
			t    models.Turn
			role string
		)
		if err := rows.Scan(&role, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = models.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (db *Database) ClearTurns(sessionID string) error {
	_, err := db.db.Exec("DELETE FROM turns WHERE session_id = ?", sessionID)
	return err
}

func (db *Database) DeleteSession(sessionID string) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *Database) Close() error {
	return db.db.Close()
}
