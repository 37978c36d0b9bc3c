// Package store persists notification history.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// Store durably records notifications.
type Store interface {
	// Insert appends a notification to the history.
	Insert(ctx context.Context, n *model.Notification) error

	// List returns notifications matching opts, newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Notification, error)

	// Prune removes notifications created before olderThan and reports how
	// many were removed.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases file handles and resources.
	Close() error
}

// ListOptions specifies criteria for listing notifications.
type ListOptions struct {
	Since   time.Duration  // Only notifications newer than now-since (0=all)
	AppName string         // Exact match on app name
	Urgency *model.Urgency // Filter by urgency level (nil=any)
	Limit   int            // Maximum results (0=unlimited)
}

func (o ListOptions) matches(n *model.Notification, now time.Time) bool {
	if o.Since > 0 && n.CreatedAt.Before(now.Add(-o.Since)) {
		return false
	}
	if o.AppName != "" && n.AppName != o.AppName {
		return false
	}
	if o.Urgency != nil && n.Hints.Urgency != *o.Urgency {
		return false
	}
	return true
}

// newestFirst sorts by creation time descending, ties broken by ID.
func newestFirst(ns []model.Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].ID > ns[j].ID
		}
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}

// StoreError wraps a backend failure for one operation.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Options selects and locates a backend.
type Options struct {
	Backend string
	Path    string
}

// Open opens the configured backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(opts.Path)
	case BackendJSONL:
		return NewJSONLPersistence(opts.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
