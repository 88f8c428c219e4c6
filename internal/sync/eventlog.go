// Package syncx keeps an append-only log of learner state changes so
// offline sites can replay them upstream.
package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	TypeViewPublished   = "ViewPublished"
	TypeProgressSaved   = "ProgressSaved"
	TypeSubmissionSaved = "SubmissionSaved"
	TypeViewRestarted   = "ViewRestarted"
)

const defaultLimit = 100

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// NewEvent builds an event with payload encoded as JSON.
func NewEvent(typ, key string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Event{Type: typ, Key: key, DataJSON: string(b)}, nil
}

// Key is the natural key of learner events.
func Key(userID string, viewID int64) string {
	return fmt.Sprintf("%s/%d", userID, viewID)
}

// Log is an append-only event log.
type Log interface {
	Append(ctx context.Context, e Event) error
	// Since returns events with Seq > seq in ascending order.
	Since(ctx context.Context, seq int64, limit int) ([]Event, error)
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	return r.AppendTx(ctx, r.db, e)
}

// AppendTx appends through ex so the event commits with the write it
// describes.
func (r *EventRepo) AppendTx(ctx context.Context, ex Execer, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("append %s: %w", e.Type, err)
	}
	return nil
}

func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq ASC LIMIT $2`, seq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MemoryLog is the in-process Log used with the memory store.
type MemoryLog struct {
	mu     sync.RWMutex
	siteID string
	events []Event
}

func NewMemoryLog(siteID string) *MemoryLog {
	if siteID == "" {
		siteID = "local"
	}
	return &MemoryLog{siteID: siteID}
}

func (m *MemoryLog) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.SiteID == "" {
		e.SiteID = m.siteID
	}
	e.Seq = int64(len(m.events)) + 1
	e.CreatedAt = time.Now().Unix()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryLog) Since(_ context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Event{}
	if seq < 0 {
		seq = 0
	}
	for i := int(seq); i < len(m.events) && len(out) < limit; i++ {
		out = append(out, m.events[i])
	}
	return out, nil
}
