// Package postgres persists the action trail in PostgreSQL. The table is
// append-only: no update or delete path exists.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/audit"
)

// Schema is the DDL for the trail store.
const Schema = `
CREATE TABLE IF NOT EXISTS trail_events (
	seq             BIGSERIAL PRIMARY KEY,
	category        TEXT NOT NULL,
	occurred_at     TIMESTAMPTZ NOT NULL,
	action          TEXT NOT NULL,
	subsidy_id      UUID NOT NULL,
	milestone_index INT NOT NULL,
	tx_hash         TEXT NOT NULL DEFAULT '',
	actor_role      TEXT NOT NULL DEFAULT '',
	actor_id        TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_trail_subsidy ON trail_events (subsidy_id, seq);
`

// Store appends trail events to PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the trail table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure trail schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trail_events
			(category, occurred_at, action, subsidy_id, milestone_index,
			 tx_hash, actor_role, actor_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(event.Category), event.Timestamp, string(event.Action),
		event.SubsidyID.String(), event.MilestoneIndex, event.TxHash,
		event.ActorRole, event.ActorID, event.Reason,
	)
	if err != nil {
		return fmt.Errorf("append trail event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, action, subsidy_id, milestone_index,
		       tx_hash, actor_role, actor_id, reason
		FROM trail_events WHERE subsidy_id = $1 ORDER BY seq`,
		subsidyID.String())
	if err != nil {
		return nil, fmt.Errorf("list trail events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			event       audit.Event
			rawCategory string
			rawAction   string
			rawSubsidy  string
		)
		if err := rows.Scan(&rawCategory, &event.Timestamp, &rawAction,
			&rawSubsidy, &event.MilestoneIndex, &event.TxHash,
			&event.ActorRole, &event.ActorID, &event.Reason); err != nil {
			return nil, fmt.Errorf("scan trail event: %w", err)
		}
		parsed, err := id.ParseSubsidyID(rawSubsidy)
		if err != nil {
			return nil, fmt.Errorf("parse trail subsidy id: %w", err)
		}
		event.Category = audit.EventCategory(rawCategory)
		event.Action = audit.Action(rawAction)
		event.SubsidyID = parsed
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trail events: %w", err)
	}
	return out, nil
}
