package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jmylchreest/notistack/internal/model"
)

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// notificationRow is the flattened table representation of a notification.
type notificationRow struct {
	ID            string `db:"id"`
	BusID         int64  `db:"bus_id"`
	AppName       string `db:"app_name"`
	Summary       string `db:"summary"`
	Body          string `db:"body"`
	AppIcon       string `db:"app_icon"`
	ReplacesID    int64  `db:"replaces_id"`
	Actions       string `db:"actions"`
	Urgency       int    `db:"urgency"`
	Category      string `db:"category"`
	Resident      bool   `db:"resident"`
	ExpireTimeout int32  `db:"expire_timeout"`
	CreatedAt     int64  `db:"created_at"`
	ImageWidth    int32  `db:"image_width"`
	ImageHeight   int32  `db:"image_height"`
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
// dbPath may be ":memory:".
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer; this also keeps a :memory: database on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var v int
	err := s.db.Get(&v, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	return v, err
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		if currentVersion, err = s.SchemaVersion(); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Insert stores n. Re-inserting the same ID is an error.
func (s *SQLiteStore) Insert(ctx context.Context, n *model.Notification) error {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return &StoreError{Op: "insert", ID: n.ID, Err: err}
	}

	size, _ := n.Image()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, bus_id, app_name, summary, body, app_icon, replaces_id,
			actions, urgency, category, resident, expire_timeout,
			created_at, image_width, image_height
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, int64(n.BusID), n.AppName, n.Summary, n.Body, n.AppIcon, int64(n.ReplacesID),
		string(actionsJSON), int(n.Hints.Urgency), n.Hints.Category, n.Hints.Resident, n.ExpireTimeout,
		n.CreatedAt.UTC().UnixNano(), size.Width, size.Height,
	)
	if err != nil {
		return &StoreError{Op: "insert", ID: n.ID, Err: err}
	}
	return nil
}

// List retrieves notifications matching opts, newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]model.Notification, error) {
	var conditions []string
	var args []interface{}

	if opts.Since > 0 {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, time.Now().Add(-opts.Since).UTC().UnixNano())
	}
	if opts.AppName != "" {
		conditions = append(conditions, "app_name = ?")
		args = append(args, opts.AppName)
	}
	if opts.Urgency != nil {
		conditions = append(conditions, "urgency = ?")
		args = append(args, int(*opts.Urgency))
	}

	query := "SELECT * FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	result := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.toModel()
		if err != nil {
			return nil, &StoreError{Op: "list", ID: r.ID, Err: err}
		}
		result = append(result, n)
	}
	return result, nil
}

// Prune deletes notifications created before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE created_at < ?", olderThan.UTC().UnixNano())
	if err != nil {
		return 0, &StoreError{Op: "prune", Err: err}
	}
	return res.RowsAffected()
}

func (r notificationRow) toModel() (model.Notification, error) {
	var actions []string
	if err := json.Unmarshal([]byte(r.Actions), &actions); err != nil {
		return model.Notification{}, fmt.Errorf("decoding actions: %w", err)
	}
	var image *model.ImageSize
	if r.ImageWidth > 0 && r.ImageHeight > 0 {
		image = &model.ImageSize{Width: r.ImageWidth, Height: r.ImageHeight}
	}
	return model.Notification{
		ID:            r.ID,
		BusID:         uint32(r.BusID),
		AppName:       r.AppName,
		ReplacesID:    uint32(r.ReplacesID),
		AppIcon:       r.AppIcon,
		Summary:       r.Summary,
		Body:          r.Body,
		Actions:       actions,
		ExpireTimeout: r.ExpireTimeout,
		CreatedAt:     time.Unix(0, r.CreatedAt).UTC(),
		Hints: model.Hints{
			ImageSize: image,
			Urgency:   model.Urgency(r.Urgency),
			Category:  r.Category,
			Resident:  r.Resident,
		},
	}, nil
}
