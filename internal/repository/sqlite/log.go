package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/daily-log/internal/model"
	"github.com/sakif/daily-log/internal/repository"
)

// compile-time check that *DB implements repository.LogRepository
var _ repository.LogRepository = (*DB)(nil)

// Insert creates a new log entry.
//
// The storage layer owns two fields the caller never supplies:
//   - ID: the integer primary key, read back via LastInsertId
//   - CreatedAt: the creation timestamp, assigned here — the entry's
//     calendar "date" derives from it, so it must be server time, never
//     client-supplied
//
// The passed struct is mutated in place with both values.
func (db *DB) Insert(ctx context.Context, entry *model.LogEntry) error {
	entry.CreatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO logs (user_id, user_email, plan, achievement, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.UserID,
		entry.UserEmail,
		entry.Plan,
		entry.Achievement,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading log entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// List retrieves log entries newest-first.
//
// q.UserID == "" means all users (the admin scope); otherwise only that
// user's rows. q.Limit <= 0 disables the LIMIT clause — the history view
// fetches a user's complete list in one query.
//
// Ordering ties on created_at are broken by id DESC so two entries
// submitted within the same timestamp still page deterministically.
func (db *DB) List(ctx context.Context, q repository.LogQuery) ([]model.LogEntry, error) {
	query := `SELECT id, user_id, user_email, plan, achievement, created_at FROM logs`
	args := []any{}

	if q.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, q.UserID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, q.Limit, offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LogEntry, 0)
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.UserEmail, &e.Plan, &e.Achievement, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating log rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of log entries, optionally restricted to one
// user. The admin table divides this by its page size for totalPages.
func (db *DB) Count(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM logs`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting log entries: %w", err)
	}
	return count, nil
}

// DistinctSubmitters returns each user that has submitted at least one
// log, exactly once, sorted by email. Feeds the admin filter dropdown.
//
// Grouping by user_id guards against a user's denormalized email varying
// across entries: one deterministic label per user, filtering stays on
// the stable user_id.
func (db *DB) DistinctSubmitters(ctx context.Context) ([]model.Submitter, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, MAX(user_email) AS user_email
		 FROM logs
		 GROUP BY user_id
		 ORDER BY user_email`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submitters: %w", err)
	}
	defer rows.Close()

	submitters := make([]model.Submitter, 0)
	for rows.Next() {
		var s model.Submitter
		if err := rows.Scan(&s.UserID, &s.UserEmail); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submitter row: %w", err)
		}
		submitters = append(submitters, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submitter rows: %w", err)
	}

	return submitters, nil
}
