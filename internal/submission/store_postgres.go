package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/sentinel"
)

// Schema is the DDL for the submission store.
const Schema = `
CREATE TABLE IF NOT EXISTS milestone_submissions (
	id              UUID PRIMARY KEY,
	subsidy_id      UUID NOT NULL,
	milestone_index INT NOT NULL,
	producer_id     UUID NOT NULL,
	auditor_id      UUID NOT NULL,
	description     TEXT NOT NULL,
	evidence_ref    TEXT NOT NULL,
	status          TEXT NOT NULL,
	verified_at     TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_subsidy ON milestone_submissions (subsidy_id, created_at);
`

// PostgresStore persists milestone submissions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the submission tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure submission schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *MilestoneSubmission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO milestone_submissions
			(id, subsidy_id, milestone_index, producer_id, auditor_id,
			 description, evidence_ref, status, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID.String(), sub.SubsidyID.String(), sub.MilestoneIndex,
		sub.ProducerID.String(), sub.AuditorID.String(), sub.Description,
		sub.EvidenceRef, string(sub.Status), sub.VerifiedAt, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

const submissionColumns = `id, subsidy_id, milestone_index, producer_id,
	auditor_id, description, evidence_ref, status, verified_at, created_at`

func (s *PostgresStore) ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]*MilestoneSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM milestone_submissions
		 WHERE subsidy_id = $1 ORDER BY created_at`, subsidyID.String())
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*MilestoneSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) OldestPending(ctx context.Context, subsidyID id.SubsidyID) (*MilestoneSubmission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM milestone_submissions
		 WHERE subsidy_id = $1 AND status = $2
		 ORDER BY created_at LIMIT 1`, subsidyID.String(), string(StatusSubmitted))
	return scanSubmission(row)
}

func (s *PostgresStore) MarkVerified(ctx context.Context, subsidyID id.SubsidyID, milestoneIndex int, verifiedAt time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE milestone_submissions SET status = $1, verified_at = $2
		 WHERE subsidy_id = $3 AND milestone_index = $4 AND status = $5`,
		string(StatusVerified), verifiedAt, subsidyID.String(), milestoneIndex, string(StatusSubmitted))
	if err != nil {
		return 0, fmt.Errorf("mark submissions verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark submissions verified: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) RejectPending(ctx context.Context, subsidyID id.SubsidyID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE milestone_submissions SET status = $1
		 WHERE subsidy_id = $2 AND status = $3`,
		string(StatusRejected), subsidyID.String(), string(StatusSubmitted))
	if err != nil {
		return 0, fmt.Errorf("reject pending submissions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reject pending submissions: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*MilestoneSubmission, error) {
	var (
		sub         MilestoneSubmission
		rawID       string
		rawSubsidy  string
		rawProducer string
		rawAuditor  string
		rawStatus   string
		verifiedAt  sql.NullTime
	)
	err := row.Scan(&rawID, &rawSubsidy, &sub.MilestoneIndex, &rawProducer,
		&rawAuditor, &sub.Description, &sub.EvidenceRef, &rawStatus,
		&verifiedAt, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	submissionID, err := id.ParseSubmissionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse submission id: %w", err)
	}
	subsidyID, err := id.ParseSubsidyID(rawSubsidy)
	if err != nil {
		return nil, fmt.Errorf("parse subsidy id: %w", err)
	}
	producerID, err := id.ParseProducerID(rawProducer)
	if err != nil {
		return nil, fmt.Errorf("parse producer id: %w", err)
	}
	auditorID, err := id.ParseAuditorID(rawAuditor)
	if err != nil {
		return nil, fmt.Errorf("parse auditor id: %w", err)
	}
	sub.ID = submissionID
	sub.SubsidyID = subsidyID
	sub.ProducerID = producerID
	sub.AuditorID = auditorID
	sub.Status = Status(rawStatus)
	if verifiedAt.Valid {
		sub.VerifiedAt = &verifiedAt.Time
	}
	return &sub, nil
}
