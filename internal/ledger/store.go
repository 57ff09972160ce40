// Package ledger provides the expense record store.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one expense row.
type Record struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Expenses    float64   `json:"expenses"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryTotal summarizes spending for one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// Store is a SQLite-backed expense store.
type Store struct {
	db *sql.DB
}

// timeLayout is the storage format for created_at values. Matches SQLite's
// CURRENT_TIMESTAMP text shape so Go-written and default-written rows compare
// equal in date() expressions.
const timeLayout = "2006-01-02 15:04:05"

// Open opens (creating if needed) the expense database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the expenses table if it does not exist.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS expenses (
			id          INTEGER PRIMARY KEY,
			description TEXT,
			category    TEXT,
			expenses    NUMERIC,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// Upsert inserts a record, overwriting every non-key field when the id already
// exists. A zero CreatedAt means "now"; an explicit CreatedAt is stored as
// given (used when the model extracts a date from a receipt).
func (s *Store) Upsert(r Record) error {
	if r.CreatedAt.IsZero() {
		_, err := s.db.Exec(`
			INSERT INTO expenses (id, description, category, expenses, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				description = excluded.description,
				category    = excluded.category,
				expenses    = excluded.expenses
		`, r.ID, r.Description, r.Category, r.Expenses, time.Now().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("upsert expense %d: %w", r.ID, err)
		}
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO expenses (id, description, category, expenses, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			category    = excluded.category,
			expenses    = excluded.expenses,
			created_at  = excluded.created_at
	`, r.ID, r.Description, r.Category, r.Expenses, r.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert expense %d: %w", r.ID, err)
	}
	return nil
}

// Total returns the sum of all expense amounts, 0 when the table is empty.
func (s *Store) Total() (float64, error) {
	var total float64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(expenses), 0) FROM expenses`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total expenses: %w", err)
	}
	return total, nil
}

// TotalsByCategory returns per-category sums, largest first.
func (s *Store) TotalsByCategory() ([]CategoryTotal, error) {
	rows, err := s.db.Query(`
		SELECT category, SUM(expenses) AS total FROM expenses
		GROUP BY category ORDER BY total DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("totals by category: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("totals by category: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// MostRecent returns the row with the highest id, or nil when the table is
// empty. The agent uses it to pick the next id.
func (s *Store) MostRecent() (*Record, error) {
	var r Record
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, description, category, expenses, created_at FROM expenses
		ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.Description, &r.Category, &r.Expenses, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent expense: %w", err)
	}
	r.CreatedAt, _ = time.ParseInLocation(timeLayout, createdAt, time.Local)
	return &r, nil
}

// Categories returns the distinct category values present in the store.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByPeriod returns expenses for an Indonesian period phrase: "hari ini",
// "minggu ini", "bulan ini". Any other value returns all rows, newest first,
// and the model narrows down in natural language.
func (s *Store) ByPeriod(period string) ([]Record, error) {
	where := "1=1"
	switch period {
	case "hari ini":
		where = "date(created_at) = date('now', 'localtime')"
	case "minggu ini":
		where = "date(created_at) >= date('now', 'localtime', '-7 days')"
	case "bulan ini":
		where = "strftime('%Y-%m', created_at) = strftime('%Y-%m', 'now', 'localtime')"
	}

	rows, err := s.db.Query(`
		SELECT id, description, category, expenses, created_at FROM expenses
		WHERE ` + where + ` ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("expenses by period: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Description, &r.Category, &r.Expenses, &createdAt); err != nil {
			return nil, fmt.Errorf("expenses by period: %w", err)
		}
		r.CreatedAt, _ = time.ParseInLocation(timeLayout, createdAt, time.Local)
		out = append(out, r)
	}
	return out, rows.Err()
}
