// Package journal persists drag notifications to a local SQLite database so
// the history command can show what was dragged, shaken and dropped.
//
// Writes are queued on a buffered channel and committed in batches by a
// single writer goroutine, keeping the input delivery path free of disk I/O.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/offlinefirst/dragsense/pkg/logging"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("journal closed")

const (
	defaultBatchSize    = 32
	defaultBatchTimeout = time.Second
	defaultBuffer       = 256
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    notification TEXT NOT NULL,
    content_kind TEXT NOT NULL,
    items INTEGER NOT NULL DEFAULT 0,
    summary TEXT NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recorded ON notifications(recorded_at);
`

// Entry is one journaled notification.
type Entry struct {
	ID           string          `json:"id"`
	RunID        string          `json:"run_id"`
	Notification string          `json:"notification"`
	ContentKind  pasteboard.Kind `json:"content_kind"`
	Items        int             `json:"items"`
	Summary      string          `json:"summary"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// Options configures a Store.
type Options struct {
	// Path is the database file. Parent directories are created.
	Path string
	// RunID tags every entry written by this process. Generated when empty.
	RunID        string
	Redactor     Redactor
	Clock        func() time.Time
	Logger       *slog.Logger
	BatchSize    int
	BatchTimeout time.Duration
	Buffer       int
}

// Store is an append-only notification journal.
type Store struct {
	db       *sql.DB
	runID    string
	redactor Redactor
	clock    func() time.Time
	logger   *slog.Logger

	batchSize    int
	batchTimeout time.Duration

	queue   chan Entry
	flushCh chan chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Open creates or opens the journal database and starts the writer.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("journal path is required")
	}
	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	dsn := opts.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	s := &Store{
		db:           db,
		runID:        opts.RunID,
		redactor:     opts.Redactor,
		clock:        opts.Clock,
		logger:       opts.Logger,
		batchSize:    opts.BatchSize,
		batchTimeout: opts.BatchTimeout,
		flushCh:      make(chan chan struct{}),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.batchTimeout <= 0 {
		s.batchTimeout = defaultBatchTimeout
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	s.queue = make(chan Entry, buffer)

	go s.writer()
	return s, nil
}

// RunID identifies the entries written by this store.
func (s *Store) RunID() string {
	return s.runID
}

// Record queues a notification for writing. It never blocks: when the queue
// is full or the store is closed the entry is dropped and false is returned.
func (s *Store) Record(notification string, content pasteboard.Content) bool {
	entry := Entry{
		ID:           uuid.NewString(),
		RunID:        s.runID,
		Notification: notification,
		ContentKind:  content.Kind,
		Items:        itemCount(content),
		Summary:      s.redactor.Summarize(content),
		RecordedAt:   s.clock().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- entry:
		return true
	default:
		s.logger.Warn("journal queue full, dropping entry", "notification", notification)
		return false
	}
}

func itemCount(content pasteboard.Content) int {
	switch content.Kind {
	case pasteboard.KindFiles:
		return len(content.Files)
	case pasteboard.KindRemoteImage:
		return len(content.ImageURLs)
	case pasteboard.KindNone:
		return 0
	default:
		return 1
	}
}

// Flush blocks until every queued entry has been committed.
func (s *Store) Flush() {
	done := make(chan struct{})
	select {
	case s.flushCh <- done:
		<-done
	case <-s.stopCh:
	}
}

// Recent returns up to limit entries, newest first. Queued entries are
// flushed before reading.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	s.Flush()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, notification, content_kind, items, summary, recorded_at
		FROM notifications
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			kindName string
			nanos    int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Notification, &kindName, &e.Items, &e.Summary, &nanos); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		kind, err := pasteboard.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("journal row %s: %w", e.ID, err)
		}
		e.ContentKind = kind
		e.RecordedAt = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the queue, stops the writer and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	return s.db.Close()
}

func (s *Store) writer() {
	defer close(s.doneCh)

	batch := make([]Entry, 0, s.batchSize)
	timer := time.NewTimer(s.batchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.commit(batch); err != nil {
			s.logger.Error("write journal batch", "entries", len(batch), "error", err)
		}
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case entry := <-s.queue:
				batch = append(batch, entry)
			default:
				return
			}
		}
	}

	for {
		select {
		case entry := <-s.queue:
			batch = append(batch, entry)
			if len(batch) >= s.batchSize {
				flush()
				timer.Reset(s.batchTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(s.batchTimeout)
		case done := <-s.flushCh:
			drain()
			flush()
			close(done)
		case <-s.stopCh:
			drain()
			flush()
			return
		}
	}
}

func (s *Store) commit(batch []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO notifications
		(id, run_id, notification, content_kind, items, summary, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.ID, e.RunID, e.Notification, e.ContentKind.String(), e.Items, e.Summary, e.RecordedAt.UnixNano()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
