// Package journal keeps a history of firmware updates in SQLite.
package journal

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/notify"
)

// SQLiteRepo stores journal entries in the updates table.
type SQLiteRepo struct {
	DB *sql.DB
}

// Record inserts e and returns its ID.
func (r *SQLiteRepo) Record(e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := r.DB.Exec(`
INSERT INTO updates(device, backend, from_version, to_version, system, outcome, message, created_at)
VALUES(?,?,?,?,?,?,?,?)
`, e.Device, e.Backend, e.From, e.To, e.System, e.Outcome, e.Message, e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Error().
			Err(err).
			Str("device", e.Device).
			Str("outcome", e.Outcome).
			Msg("Database error recording update")
		return 0, err
	}
	return res.LastInsertId()
}

// List returns the newest entries first, at most limit of them (0 means
// no limit). An empty device matches every device.
func (r *SQLiteRepo) List(device string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.DB.Query(`
SELECT id, device, backend, from_version, to_version, system, outcome, message, created_at
FROM updates WHERE (? = '' OR device = ?)
ORDER BY id DESC LIMIT ?
`, device, device, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Device, &e.Backend, &e.From, &e.To, &e.System, &e.Outcome, &e.Message, &created); err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable journal row")
			continue
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Name identifies the repo as an outcome sink.
func (r *SQLiteRepo) Name() string { return "journal" }

// Updated journals a successful update.
func (r *SQLiteRepo) Updated(u notify.Updated) error {
	_, err := r.Record(Entry{
		Device:    u.Name,
		Backend:   u.Backend.String(),
		From:      u.From,
		To:        u.To,
		System:    u.System,
		Outcome:   OutcomeUpdated,
		CreatedAt: u.At,
	})
	return err
}

// Failed journals a worker failure.
func (r *SQLiteRepo) Failed(f notify.Failed) error {
	_, err := r.Record(Entry{
		Device:    f.Name,
		Outcome:   OutcomeFailed,
		Message:   f.Message,
		CreatedAt: f.At,
	})
	return err
}

// Progressed is not journaled.
func (r *SQLiteRepo) Progressed(notify.Progress) error { return nil }

var _ notify.Sink = (*SQLiteRepo)(nil)
