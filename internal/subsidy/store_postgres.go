package subsidy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/sentinel"
)

// Schema is the DDL for the subsidy store. The milestone array lives in a
// JSONB column on the contract row so the release flag update is a single
// atomic row write, matching the no-cross-document-transaction model.
const Schema = `
CREATE TABLE IF NOT EXISTS subsidies (
	id               UUID PRIMARY KEY,
	title            TEXT NOT NULL,
	government_id    UUID NOT NULL,
	producer_id      UUID NOT NULL,
	auditor_id       UUID NOT NULL,
	total_amount     BIGINT NOT NULL,
	milestones       JSONB NOT NULL,
	contract_address TEXT NOT NULL,
	status           TEXT NOT NULL,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subsidies_producer ON subsidies (producer_id);
CREATE INDEX IF NOT EXISTS idx_subsidies_active ON subsidies (is_active) WHERE is_active;
`

// PostgresStore persists subsidy contracts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the subsidy tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure subsidy schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, contract *SubsidyContract) error {
	milestones, err := json.Marshal(contract.Milestones)
	if err != nil {
		return fmt.Errorf("marshal milestones: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO subsidies
			(id, title, government_id, producer_id, auditor_id, total_amount,
			 milestones, contract_address, status, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		contract.ID.String(), contract.Title, contract.GovernmentID.String(),
		contract.ProducerID.String(), contract.AuditorID.String(),
		contract.TotalAmount.Int64(), milestones, contract.ContractAddress,
		string(contract.Status), contract.IsActive, contract.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert subsidy: %w", err)
	}
	return nil
}

const selectColumns = `id, title, government_id, producer_id, auditor_id,
	total_amount, milestones, contract_address, status, is_active, created_at`

func (s *PostgresStore) Get(ctx context.Context, subsidyID id.SubsidyID) (*SubsidyContract, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subsidies WHERE id = $1`, subsidyID.String())
	return scanContract(row)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*SubsidyContract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM subsidies WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active subsidies: %w", err)
	}
	defer rows.Close()
	return scanContracts(rows)
}

func (s *PostgresStore) ListByProducer(ctx context.Context, producerID id.ProducerID) ([]*SubsidyContract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM subsidies WHERE producer_id = $1 ORDER BY created_at`,
		producerID.String())
	if err != nil {
		return nil, fmt.Errorf("list subsidies by producer: %w", err)
	}
	defer rows.Close()
	return scanContracts(rows)
}

// MarkReleased locks the contract row, flips the milestone flag, and writes
// the updated array and status back in the same transaction. The row lock
// serializes concurrent writers; the already-released check inside the
// transaction makes the write monotonic.
func (s *PostgresStore) MarkReleased(ctx context.Context, subsidyID id.SubsidyID, index int, releasedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark released: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subsidies WHERE id = $1 FOR UPDATE`, subsidyID.String())
	contract, err := scanContract(row)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(contract.Milestones) {
		return sentinel.ErrNotFound
	}
	if contract.Milestones[index].IsReleased {
		return sentinel.ErrAlreadyReleased
	}

	ts := releasedAt
	contract.Milestones[index].IsReleased = true
	contract.Milestones[index].ReleasedAt = &ts
	newStatus := contract.RecomputeStatus()

	milestones, err := json.Marshal(contract.Milestones)
	if err != nil {
		return fmt.Errorf("marshal milestones: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE subsidies SET milestones = $1, status = $2 WHERE id = $3`,
		milestones, string(newStatus), subsidyID.String(),
	); err != nil {
		return fmt.Errorf("update milestones: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, subsidyID id.SubsidyID, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subsidies SET status = $1 WHERE id = $2`,
		string(status), subsidyID.String())
	if err != nil {
		return fmt.Errorf("update subsidy status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subsidy status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*SubsidyContract, error) {
	var (
		contract      SubsidyContract
		rawID         string
		rawGovernment string
		rawProducer   string
		rawAuditor    string
		rawAmount     int64
		rawMilestones []byte
		rawStatus     string
	)
	err := row.Scan(&rawID, &contract.Title, &rawGovernment, &rawProducer,
		&rawAuditor, &rawAmount, &rawMilestones, &contract.ContractAddress,
		&rawStatus, &contract.IsActive, &contract.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subsidy: %w", err)
	}

	subsidyID, err := id.ParseSubsidyID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse subsidy id: %w", err)
	}
	governmentID, err := id.ParseGovernmentID(rawGovernment)
	if err != nil {
		return nil, fmt.Errorf("parse government id: %w", err)
	}
	producerID, err := id.ParseProducerID(rawProducer)
	if err != nil {
		return nil, fmt.Errorf("parse producer id: %w", err)
	}
	auditorID, err := id.ParseAuditorID(rawAuditor)
	if err != nil {
		return nil, fmt.Errorf("parse auditor id: %w", err)
	}
	contract.ID = subsidyID
	contract.GovernmentID = governmentID
	contract.ProducerID = producerID
	contract.AuditorID = auditorID
	contract.TotalAmount = id.Amount(rawAmount)
	contract.Status = Status(rawStatus)
	if err := json.Unmarshal(rawMilestones, &contract.Milestones); err != nil {
		return nil, fmt.Errorf("unmarshal milestones: %w", err)
	}
	return &contract, nil
}

func scanContracts(rows *sql.Rows) ([]*SubsidyContract, error) {
	var out []*SubsidyContract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subsidies: %w", err)
	}
	return out, nil
}
