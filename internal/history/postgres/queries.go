package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/lots/internal/history"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func queryHistory(ctx context.Context, db executor, userID int64, prefix string, limit int) ([]history.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, text, created_at FROM search_history
		WHERE user_id = $1 AND text ILIKE $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`,
		userID, likeEscaper.Replace(history.Normalize(prefix))+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func queryInsert(ctx context.Context, db executor, userID int64, text string, now time.Time) (*history.Entry, error) {
	var e history.Entry
	err := db.QueryRowContext(ctx, `
		INSERT INTO search_history (user_id, text, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, text) DO UPDATE SET created_at = EXCLUDED.created_at
		RETURNING id, text, created_at`,
		userID, text, now,
	).Scan(&e.ID, &e.Text, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func queryDeleteAll(ctx context.Context, db executor, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
	return err
}

func queryDeleteByID(ctx context.Context, db executor, userID, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return history.ErrNotFound
	}
	return nil
}
