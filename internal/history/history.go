// Package history defines the local search-history store used by the
// listing search box.
package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by DeleteByID when no entry has the given id.
var ErrNotFound = errors.New("history entry not found")

// DefaultLimit caps Query results when the caller passes limit <= 0.
const DefaultLimit = 10

// Entry is one remembered search.
type Entry struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists search history for one user.
type Store interface {
	// Query returns entries starting with prefix (case-insensitive), most
	// recent first.
	Query(ctx context.Context, prefix string, limit int) ([]Entry, error)
	// Insert records text, moving an existing identical entry to the top.
	Insert(ctx context.Context, text string) (*Entry, error)
	DeleteAll(ctx context.Context) error
	DeleteByID(ctx context.Context, id int64) error
	Close() error
}

// Normalize trims text and collapses inner whitespace runs. Stores apply it
// before inserting; an empty result is not recorded.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
