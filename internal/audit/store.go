// Package audit is an optional, append-only record of settled rounds and
// claims, independent of the ABCI commit path: losing this store changes
// nothing about consensus, it only degrades the operator's ability to
// answer "what happened" questions without replaying the whole chain.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/decred/slog"
	"github.com/lootopgf/lootery-go/internal/lottery"
)

// auditedEventTypes is the subset of lottery.Event types worth a durable
// row: settlement and claim outcomes, not every intermediate event
// (TicketPurchased/JackpotSeeded churn far more often and are already
// servable from the committed snapshot).
var auditedEventTypes = map[string]bool{
	lottery.EventGameFinalised:    true,
	lottery.EventJackpotRollover:  true,
	lottery.EventDrawSkipped:      true,
	lottery.EventWinningsClaimed:  true,
	lottery.EventConsolationClaim: true,
}

// Store is a pgx-backed sink for audited events.
type Store struct {
	log  slog.Logger
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string, log slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return &Store{log: log, pool: pool}, nil
}

// Close releases the pool. Safe to call on a nil Store.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS lottery_audit_events (
	id          BIGSERIAL PRIMARY KEY,
	height      BIGINT NOT NULL,
	event_type  TEXT NOT NULL,
	attrs       JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS lottery_audit_events_height_idx ON lottery_audit_events (height);
CREATE INDEX IF NOT EXISTS lottery_audit_events_type_idx ON lottery_audit_events (event_type);
`

// InitSchema creates the audit table and its indexes if they do not
// already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, initSchemaSQL); err != nil {
		return fmt.Errorf("audit: init schema: %w", err)
	}
	return nil
}

// RecordBlock persists every audited event from one block's worth of
// lottery.Event slices, skipping event types not in auditedEventTypes.
// A failure here is logged, never propagated to the caller: the ABCI
// commit path must not halt because the audit sink is unreachable.
func (s *Store) RecordBlock(ctx context.Context, height int64, events []lottery.Event) {
	for _, ev := range events {
		if !auditedEventTypes[ev.Type] {
			continue
		}
		if err := s.recordEvent(ctx, height, ev); err != nil {
			s.log.Warnf("audit: failed to record %s at height %d: %v", ev.Type, height, err)
		}
	}
}

func (s *Store) recordEvent(ctx context.Context, height int64, ev lottery.Event) error {
	attrs, err := json.Marshal(ev.Attrs)
	if err != nil {
		return fmt.Errorf("marshal attrs: %w", err)
	}
	const insertSQL = `
		INSERT INTO lottery_audit_events (height, event_type, attrs)
		VALUES ($1, $2, $3)
	`
	_, err = s.pool.Exec(ctx, insertSQL, height, ev.Type, attrs)
	return err
}

// Record is a single persisted audit row, returned by queries over the
// audit log.
type Record struct {
	ID         int64             `json:"id"`
	Height     int64             `json:"height"`
	EventType  string            `json:"eventType"`
	Attrs      map[string]string `json:"attrs"`
	RecordedAt time.Time         `json:"recordedAt"`
}

// RecentByType returns the most recent limit rows of the given event
// type, newest first, for an operator inspecting recent settlements or
// claims without scanning the whole table.
func (s *Store) RecentByType(ctx context.Context, eventType string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const querySQL = `
		SELECT id, height, event_type, attrs, recorded_at
		FROM lottery_audit_events
		WHERE event_type = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, querySQL, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var attrs []byte
		if err := rows.Scan(&r.ID, &r.Height, &r.EventType, &attrs, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("audit: scan row: %w", err)
		}
		if err := json.Unmarshal(attrs, &r.Attrs); err != nil {
			return nil, fmt.Errorf("audit: decode attrs: %w", err)
		}
		out = append(out, r)
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}
