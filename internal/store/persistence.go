package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// SchemaVersion is the current JSONL schema version.
const SchemaVersion = 1

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	NotistackSchemaVersion int   `json:"notistack_schema_version"`
	CreatedAt              int64 `json:"created_at"`
}

// JSONLPersistence implements Store as an append-only JSON Lines file.
type JSONLPersistence struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewJSONLPersistence opens path for appending, creating the file and its
// parent directories if needed.
func NewJSONLPersistence(path string) (*JSONLPersistence, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	p := &JSONLPersistence{
		path: path,
		file: file,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if info.Size() == 0 {
		if err := p.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return p, nil
}

func (p *JSONLPersistence) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		NotistackSchemaVersion: SchemaVersion,
		CreatedAt:              time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = p.file.Write(append(data, '\n'))
	return err
}

// Insert appends n as one line and syncs the file.
func (p *JSONLPersistence) Insert(_ context.Context, n *model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return &StoreError{Op: "insert", ID: n.ID, Err: ErrStoreClosed}
	}

	data, err := json.Marshal(n.WithImageSize())
	if err != nil {
		return &StoreError{Op: "insert", ID: n.ID, Err: err}
	}
	if _, err := p.file.Write(append(data, '\n')); err != nil {
		return &StoreError{Op: "insert", ID: n.ID, Err: err}
	}
	if err := p.file.Sync(); err != nil {
		return &StoreError{Op: "insert", ID: n.ID, Err: err}
	}
	return nil
}

// List reads the whole file and filters it in memory.
func (p *JSONLPersistence) List(_ context.Context, opts ListOptions) ([]model.Notification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.loadLocked()
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	now := time.Now()
	result := make([]model.Notification, 0, len(all))
	for i := range all {
		if opts.matches(&all[i], now) {
			result = append(result, all[i])
		}
	}

	newestFirst(result)
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Prune rewrites the file without notifications older than olderThan.
func (p *JSONLPersistence) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.loadLocked()
	if err != nil {
		return 0, &StoreError{Op: "prune", Err: err}
	}

	keep := make([]model.Notification, 0, len(all))
	for _, n := range all {
		if !n.CreatedAt.Before(olderThan) {
			keep = append(keep, n)
		}
	}

	removed := int64(len(all) - len(keep))
	if removed == 0 {
		return 0, nil
	}
	if err := p.rewriteLocked(keep); err != nil {
		return 0, &StoreError{Op: "prune", Err: err}
	}
	return removed, nil
}

// loadLocked reads every notification from the file. Caller must hold the lock.
func (p *JSONLPersistence) loadLocked() ([]model.Notification, error) {
	if p.closed || p.file == nil {
		return nil, ErrStoreClosed
	}

	if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", p.path, err)
	}

	var notifications []model.Notification
	scanner := bufio.NewScanner(p.file)

	// Increase buffer size for potentially long lines
	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.NotistackSchemaVersion > 0 {
				if header.NotistackSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.NotistackSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var n model.Notification
		if err := json.Unmarshal(line, &n); err != nil {
			// Skip malformed lines
			continue
		}
		if n.ID != "" {
			notifications = append(notifications, n)
		}
	}

	if err := scanner.Err(); err != nil {
		return notifications, fmt.Errorf("error reading file: %w", err)
	}

	// Seek back to end for appending
	if _, err := p.file.Seek(0, io.SeekEnd); err != nil {
		return notifications, err
	}

	return notifications, nil
}

// rewriteLocked replaces the file contents. Caller must hold the lock.
func (p *JSONLPersistence) rewriteLocked(ns []model.Notification) error {
	if err := p.file.Close(); err != nil {
		return err
	}
	p.file = nil

	backupPath := p.path + ".bak"
	if err := os.Rename(p.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0o600)
	if err != nil {
		os.Rename(backupPath, p.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	p.file = file

	if err := p.writeHeader(); err != nil {
		return err
	}

	for _, n := range ns {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if _, err := p.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if err := p.file.Sync(); err != nil {
		return err
	}

	os.Remove(backupPath)
	return nil
}

// Close releases file handles and resources.
func (p *JSONLPersistence) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}
