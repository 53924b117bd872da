package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/credit-castor/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/credit-castor/internal/platform/timeouts"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/storage"
	"github.com/louisbranch/credit-castor/internal/services/ledger/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store is the SQLite timeline journal.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.EventStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", cleanPath, timeouts.JournalBusy.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendEvent validates evt and appends it to the timeline, creating the
// timeline on first use. An event without an id is given one. Appending an
// event id already on the timeline returns the stored record when the content
// is identical.
func (s *Store) AppendEvent(ctx context.Context, timelineID string, evt event.Event) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}
	timelineID = strings.TrimSpace(timelineID)
	if timelineID == "" {
		return storage.Record{}, platformerrors.New(platformerrors.CodeTimelineIDRequired, "timeline id is required")
	}
	if err := event.Validate(evt); err != nil {
		return storage.Record{}, err
	}
	env, err := normalize(evt)
	if err != nil {
		return storage.Record{}, err
	}
	evt, err = env.Open()
	if err != nil {
		return storage.Record{}, err
	}
	hash, err := event.Hash(evt)
	if err != nil {
		return storage.Record{}, fmt.Errorf("compute event hash: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	recordedAt := s.now().UTC().Truncate(time.Millisecond)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO timelines (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		timelineID, toMillis(recordedAt), toMillis(recordedAt),
	); err != nil {
		return storage.Record{}, fmt.Errorf("upsert timeline: %w", err)
	}

	var existingHash string
	err = tx.QueryRowContext(ctx,
		`SELECT event_hash FROM timeline_events WHERE timeline_id = ? AND event_id = ?`,
		timelineID, env.ID,
	).Scan(&existingHash)
	switch {
	case err == nil:
		_ = tx.Rollback()
		return s.existing(ctx, timelineID, env.ID, hash)
	case !errors.Is(err, sql.ErrNoRows):
		return storage.Record{}, fmt.Errorf("lookup event id: %w", err)
	}

	var (
		lastSeq   int64
		lastDate  int64
		prevChain string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, event_date, chain_hash FROM timeline_events
		 WHERE timeline_id = ? ORDER BY seq DESC LIMIT 1`,
		timelineID,
	).Scan(&lastSeq, &lastDate, &prevChain)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, fmt.Errorf("load last event: %w", err)
	}
	if lastSeq > 0 && toMillis(evt.EventDate()) < lastDate {
		return storage.Record{}, platformerrors.WithMetadata(
			platformerrors.CodeEventOutOfOrder,
			fmt.Sprintf("event %s dated %s is before the last journaled event (%s)",
				evt.EventID(), evt.EventDate().Format(time.DateOnly), fromMillis(lastDate).Format(time.DateOnly)),
			map[string]string{"timeline_id": timelineID, "event_id": evt.EventID()},
		)
	}

	record := storage.Record{
		TimelineID: timelineID,
		Seq:        uint64(lastSeq) + 1,
		Event:      evt,
		Hash:       hash,
		PrevHash:   prevChain,
		ChainHash:  ChainHash(prevChain, hash),
		RecordedAt: recordedAt,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO timeline_events (
		   timeline_id, seq, event_id, kind, event_date, payload_json,
		   event_hash, prev_chain_hash, chain_hash, recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		timelineID,
		int64(record.Seq),
		env.ID,
		string(env.Kind),
		toMillis(env.Date),
		[]byte(env.Payload),
		record.Hash,
		record.PrevHash,
		record.ChainHash,
		toMillis(recordedAt),
	); err != nil {
		if isConstraintError(err) {
			_ = tx.Rollback()
			return s.existing(ctx, timelineID, env.ID, hash)
		}
		return storage.Record{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.Record{}, fmt.Errorf("commit: %w", err)
	}
	return record, nil
}

func (s *Store) existing(ctx context.Context, timelineID, eventID, hash string) (storage.Record, error) {
	records, err := s.ListRecords(ctx, timelineID)
	if err != nil {
		return storage.Record{}, err
	}
	for _, r := range records {
		if r.Event.EventID() != eventID {
			continue
		}
		if r.Hash != hash {
			return storage.Record{}, platformerrors.WithMetadata(
				platformerrors.CodeInvalidEvent,
				fmt.Sprintf("event %s already journaled with different content", eventID),
				map[string]string{"timeline_id": timelineID, "event_id": eventID},
			)
		}
		return r, nil
	}
	return storage.Record{}, fmt.Errorf("append event %s: constraint violation", eventID)
}

// ListRecords returns the timeline's records in sequence order.
func (s *Store) ListRecords(ctx context.Context, timelineID string) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	timelineID = strings.TrimSpace(timelineID)
	if timelineID == "" {
		return nil, platformerrors.New(platformerrors.CodeTimelineIDRequired, "timeline id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, event_id, kind, event_date, payload_json, event_hash, prev_chain_hash, chain_hash, recorded_at
		 FROM timeline_events WHERE timeline_id = ? ORDER BY seq`,
		timelineID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var (
			seq        int64
			env        event.Envelope
			kind       string
			eventDate  int64
			payload    []byte
			recordedAt int64
			record     = storage.Record{TimelineID: timelineID}
		)
		if err := rows.Scan(&seq, &env.ID, &kind, &eventDate, &payload, &record.Hash, &record.PrevHash, &record.ChainHash, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		env.Kind = event.Kind(kind)
		env.Date = fromMillis(eventDate)
		env.Payload = payload
		evt, err := env.Open()
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", seq, err)
		}
		record.Seq = uint64(seq)
		record.Event = evt
		record.RecordedAt = fromMillis(recordedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// ListEvents returns the timeline's events in journal order. An unknown
// timeline is reported as not found.
func (s *Store) ListEvents(ctx context.Context, timelineID string) ([]event.Event, error) {
	records, err := s.ListRecords(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeNotFound,
			fmt.Sprintf("timeline %q not found", timelineID),
			map[string]string{"timeline_id": timelineID},
		)
	}
	events := make([]event.Event, 0, len(records))
	for _, r := range records {
		events = append(events, r.Event)
	}
	return events, nil
}

// ListTimelines returns every timeline ordered by id.
func (s *Store) ListTimelines(ctx context.Context) ([]storage.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT t.id, t.updated_at, COUNT(e.seq), COALESCE(MAX(e.event_date), 0)
		 FROM timelines t LEFT JOIN timeline_events e ON e.timeline_id = t.id
		 GROUP BY t.id ORDER BY t.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	defer rows.Close()

	var timelines []storage.Timeline
	for rows.Next() {
		var (
			tl        storage.Timeline
			updatedAt int64
			lastDate  int64
		)
		if err := rows.Scan(&tl.ID, &updatedAt, &tl.EventCount, &lastDate); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		tl.UpdatedAt = fromMillis(updatedAt)
		if tl.EventCount > 0 {
			tl.LastEventDate = fromMillis(lastDate)
		}
		timelines = append(timelines, tl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timelines: %w", err)
	}
	return timelines, nil
}

// VerifyChain recomputes every hash on the timeline and reports the first
// record that does not match.
func (s *Store) VerifyChain(ctx context.Context, timelineID string) error {
	records, err := s.ListRecords(ctx, timelineID)
	if err != nil {
		return err
	}
	prev := ""
	for _, r := range records {
		hash, err := event.Hash(r.Event)
		if err != nil {
			return fmt.Errorf("hash event %d: %w", r.Seq, err)
		}
		if hash != r.Hash {
			return fmt.Errorf("event %d: content hash mismatch", r.Seq)
		}
		if r.PrevHash != prev {
			return fmt.Errorf("event %d: previous hash mismatch", r.Seq)
		}
		if ChainHash(prev, hash) != r.ChainHash {
			return fmt.Errorf("event %d: chain hash mismatch", r.Seq)
		}
		prev = r.ChainHash
	}
	return nil
}

// ChainHash links an event hash to the chain hash before it.
func ChainHash(prevChainHash, eventHash string) string {
	sum := sha256.Sum256([]byte(prevChainHash + ":" + eventHash))
	return hex.EncodeToString(sum[:])
}

// normalize gives the event an id when it has none and truncates its date to
// the journal's millisecond precision.
func normalize(evt event.Event) (event.Envelope, error) {
	env, err := event.Wrap(evt)
	if err != nil {
		return event.Envelope{}, err
	}
	if strings.TrimSpace(env.ID) == "" {
		generated, err := id.NewID()
		if err != nil {
			return event.Envelope{}, fmt.Errorf("generate event id: %w", err)
		}
		env.ID = generated
	}
	env.Date = env.Date.UTC().Truncate(time.Millisecond)
	return env, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}
