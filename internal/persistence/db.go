// Package persistence provides SQLite-based save storage: game state
// snapshots, generated plans, and a rolling log of Changes envelopes. See
// design doc Section 8.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/interaction"
	"github.com/talgya/idlecore/internal/planner"
	"github.com/talgya/idlecore/internal/state"
)

// DB wraps a SQLite connection for save persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		save_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		goal_json TEXT NOT NULL,
		plan_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS changes_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		save_id TEXT NOT NULL,
		start_tick INTEGER NOT NULL,
		end_tick INTEGER NOT NULL,
		changes_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_save ON plans(save_id);
	CREATE INDEX IF NOT EXISTS idx_changes_save ON changes_log(save_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	migrations := []string{
		"ALTER TABLE saves ADD COLUMN seed INTEGER NOT NULL DEFAULT 0",
	}
	for _, stmt := range migrations {
		if _, err := db.conn.Exec(stmt); err != nil {
			slog.Debug("persistence: migration skipped", "stmt", stmt, "error", err)
		}
	}
	return nil
}

// saveRow is the JSON-blob-in-column row shape for the saves table.
type saveRow struct {
	ID        string `db:"id"`
	UpdatedAt string `db:"updated_at"`
	StateJSON string `db:"state_json"`
}

// SaveState upserts the full GlobalState snapshot for saveID.
func (db *DB) SaveState(saveID string, s state.GlobalState) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO saves (id, updated_at, state_json) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, state_json = excluded.state_json`,
		saveID, s.UpdatedAt.Format(time.RFC3339), string(blob),
	)
	return err
}

// LoadState loads the GlobalState snapshot for saveID, or ok=false if none
// exists yet.
func (db *DB) LoadState(saveID string) (state.GlobalState, bool, error) {
	var row saveRow
	err := db.conn.Get(&row, `SELECT id, updated_at, state_json FROM saves WHERE id = ?`, saveID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return state.GlobalState{}, false, nil
		}
		return state.GlobalState{}, false, fmt.Errorf("load state: %w", err)
	}
	var s state.GlobalState
	if err := s.UnmarshalJSON([]byte(row.StateJSON), catalog.SkillByName); err != nil {
		return state.GlobalState{}, false, fmt.Errorf("unmarshal state: %w", err)
	}
	return s, true, nil
}

// planStepRow is the wire shape one Plan step is serialized to inside the
// plans table's plan_json blob.
type planStepRow struct {
	Kind        uint8           `json:"kind"`
	Ticks       int             `json:"ticks,omitempty"`
	Interaction json.RawMessage `json:"interaction,omitempty"`
}

// SavePlan records a generated Plan for later inspection. Nothing in this
// package loads a saved plan back.
func (db *DB) SavePlan(saveID string, p planner.Plan, goalDescription string) error {
	rows := make([]planStepRow, 0, len(p.Steps))
	for _, step := range p.Steps {
		row := planStepRow{Kind: uint8(step.Kind), Ticks: step.Ticks}
		if step.Kind == planner.StepInteraction {
			raw, err := interaction.MarshalJSON(step.Interaction)
			if err != nil {
				return fmt.Errorf("marshal plan step: %w", err)
			}
			row.Interaction = raw
		}
		rows = append(rows, row)
	}
	blob, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO plans (id, save_id, created_at, goal_json, plan_json) VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), saveID, time.Now().UTC().Format(time.RFC3339), goalDescription, string(blob),
	)
	return err
}

// SaveChanges appends one Changes envelope to the rolling log.
func (db *DB) SaveChanges(saveID string, startTick, endTick int64, c state.Changes) error {
	blob, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO changes_log (save_id, start_tick, end_tick, changes_json) VALUES (?, ?, ?, ?)`,
		saveID, startTick, endTick, string(blob),
	)
	return err
}

// TrimOldChanges removes changes_log rows for saveID older than keepTicks
// behind currentTick.
func (db *DB) TrimOldChanges(saveID string, currentTick, keepTicks int64) (int64, error) {
	cutoff := currentTick - keepTicks
	if cutoff <= 0 {
		return 0, nil
	}
	res, err := db.conn.Exec(`DELETE FROM changes_log WHERE save_id = ? AND end_tick < ?`, saveID, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveMeta upserts a single world_meta key/value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO world_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMeta reads a single world_meta value, or "" if absent.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, `SELECT value FROM world_meta WHERE key = ?`, key)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return "", nil
		}
		return "", err
	}
	return value, nil
}
