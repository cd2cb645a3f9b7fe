package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proofline/proofline/pkg/schema"
)

// AuditStore persists RunRecord rows for later lookup/audit, grounded on
// the pack's Postgres signal (jackc/pgx/v5, used directly by
// kubernaut's storage layer) since no RunRecord persistence source
// survived retrieval for this domain.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore opens a pgx connection pool against dsn. Call Close when
// done.
func NewAuditStore(ctx context.Context, dsn string) (*AuditStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect to audit database: %w", err)
	}
	return &AuditStore{pool: pool}, nil
}

func (s *AuditStore) Close() { s.pool.Close() }

// EnsureSchema creates the run_records table if it doesn't already exist.
// Called once at startup rather than via an external migration tool,
// matching the teacher pack's preference for self-contained setup over a
// dedicated migration framework.
func (s *AuditStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS run_records (
	run_id            TEXT PRIMARY KEY,
	execution_id      TEXT NOT NULL,
	claim             TEXT NOT NULL,
	provider          TEXT NOT NULL,
	logical_model     TEXT NOT NULL,
	prompt_version    TEXT NOT NULL,
	schema_version    TEXT NOT NULL,
	mode              TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	total_tokens_in   INTEGER NOT NULL,
	total_tokens_out  INTEGER NOT NULL,
	cost_usd          DOUBLE PRECISION NOT NULL,
	artifact_uri      TEXT,
	gate_compliance_ok BOOLEAN NOT NULL,
	gate_stability_ok  BOOLEAN NOT NULL,
	gate_precision_ok  BOOLEAN NOT NULL,
	pqs               INTEGER NOT NULL,
	pqs_version       TEXT NOT NULL,
	record            JSONB NOT NULL
)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: create run_records table: %w", err)
	}
	return nil
}

// InsertRunRecord writes one RunRecord as an audit row, storing the full
// record as JSONB alongside the columns used for indexed lookup/reporting.
func (s *AuditStore) InsertRunRecord(ctx context.Context, rec schema.RunRecord) error {
	full, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal run record: %w", err)
	}

	const q = `
INSERT INTO run_records (
	run_id, execution_id, claim, provider, logical_model, prompt_version,
	schema_version, mode, created_at, total_tokens_in, total_tokens_out,
	cost_usd, artifact_uri, gate_compliance_ok, gate_stability_ok,
	gate_precision_ok, pqs, pqs_version, record
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (run_id) DO NOTHING`

	_, err = s.pool.Exec(ctx, q,
		rec.RunID, rec.ExecutionID, rec.Claim, rec.Provider, rec.LogicalModel,
		rec.PromptVersion, rec.SchemaVersion, rec.Mode, rec.CreatedAt,
		rec.TotalTokensIn, rec.TotalTokensOut, rec.CostUSD, rec.ArtifactURI,
		rec.GateComplianceOK, rec.GateStabilityOK, rec.GatePrecisionOK,
		rec.PQS, rec.PQSVersion, full,
	)
	if err != nil {
		return fmt.Errorf("store: insert run record: %w", err)
	}
	return nil
}

// GetRunRecord fetches one run's full record by its run_id.
func (s *AuditStore) GetRunRecord(ctx context.Context, runID string) (schema.RunRecord, bool, error) {
	const q = `SELECT record FROM run_records WHERE run_id = $1`
	var raw []byte
	err := s.pool.QueryRow(ctx, q, runID).Scan(&raw)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return schema.RunRecord{}, false, nil
		}
		return schema.RunRecord{}, false, fmt.Errorf("store: fetch run record: %w", err)
	}
	var rec schema.RunRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return schema.RunRecord{}, false, fmt.Errorf("store: decode run record: %w", err)
	}
	return rec, true, nil
}
