package webhook

import (
	"database/sql"
	"strings"
)

// Repository persists webhook subscriptions.
type Repository interface {
	List() ([]Webhook, error)
	Create(h Webhook) (int64, error)
	Update(id int64, h Webhook) error
	Delete(id int64) error
}

// SQLiteRepo implements Repository over SQLite. Events are stored as a
// comma separated list.
type SQLiteRepo struct {
	DB *sql.DB
}

func (r *SQLiteRepo) List() ([]Webhook, error) {
	rows, err := r.DB.Query(`SELECT id, url, events, enabled FROM webhooks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Webhook
	for rows.Next() {
		var h Webhook
		var events string
		if err := rows.Scan(&h.ID, &h.URL, &events, &h.Enabled); err != nil {
			continue
		}
		h.Events = splitEvents(events)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Create(h Webhook) (int64, error) {
	res, err := r.DB.Exec(`INSERT INTO webhooks(url, events, enabled) VALUES(?,?,?)`,
		h.URL, strings.Join(h.Events, ","), h.Enabled)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) Update(id int64, h Webhook) error {
	res, err := r.DB.Exec(`UPDATE webhooks SET url=?, events=?, enabled=? WHERE id=?`,
		h.URL, strings.Join(h.Events, ","), h.Enabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteRepo) Delete(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM webhooks WHERE id=?`, id)
	return err
}

func splitEvents(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
