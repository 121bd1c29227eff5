package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gojiplus/statqa/domain/analysis"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// QARepository persists generated Q/A pairs keyed by run, with the full
// provenance record stored as JSONB so any pair can be traced back to its
// computation steps.
type QARepository struct {
	db *sqlx.DB
}

// NewQARepository creates a repository over an open connection pool.
func NewQARepository(db *sqlx.DB) *QARepository {
	return &QARepository{db: db}
}

// Connect opens a pool against the given DSN and verifies it.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.StorageError("open database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.StorageError("ping database", err)
	}
	return db, nil
}

// EnsureSchema creates the qa_pairs table if it does not exist.
func (r *QARepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS qa_pairs (
			id            TEXT PRIMARY KEY,
			run_id        TEXT NOT NULL,
			question      TEXT NOT NULL,
			answer        TEXT NOT NULL,
			question_type TEXT NOT NULL,
			source        TEXT NOT NULL,
			variables     TEXT[] NOT NULL,
			dataset       TEXT,
			chart_path    TEXT,
			provenance    JSONB NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_qa_pairs_run ON qa_pairs (run_id);
		CREATE INDEX IF NOT EXISTS idx_qa_pairs_type ON qa_pairs (question_type)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return apperrors.StorageError("create qa_pairs schema", err)
	}
	return nil
}

// SavePairs inserts all pairs for a run in one transaction. Either every
// pair lands or none does.
func (r *QARepository) SavePairs(ctx context.Context, runID string, pairs []analysis.QAPair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO qa_pairs (
			id, run_id, question, answer, question_type, source,
			variables, dataset, chart_path, provenance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, pair := range pairs {
		provenanceJSON, err := json.Marshal(pair.Provenance)
		if err != nil {
			return apperrors.StorageError("marshal provenance", err)
		}
		_, err = tx.ExecContext(ctx, query,
			pair.ID,
			runID,
			pair.Question,
			pair.Answer,
			pair.Type,
			pair.Source,
			pq.Array(pair.Variables),
			pair.Dataset,
			pair.ChartPath,
			provenanceJSON,
		)
		if err != nil {
			return apperrors.StorageError(fmt.Sprintf("insert qa pair %s", pair.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StorageError("commit qa pairs", err)
	}
	return nil
}

// PairsByRun returns every stored pair for a run in insertion order.
func (r *QARepository) PairsByRun(ctx context.Context, runID string) ([]analysis.QAPair, error) {
	query := `
		SELECT id, question, answer, question_type, source,
			   variables, dataset, chart_path, provenance
		FROM qa_pairs
		WHERE run_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, apperrors.StorageError("query qa pairs", err)
	}
	defer rows.Close()

	var pairs []analysis.QAPair
	for rows.Next() {
		var pair analysis.QAPair
		var variables pq.StringArray
		var dataset, chartPath sql.NullString
		var provenanceJSON []byte

		err := rows.Scan(
			&pair.ID,
			&pair.Question,
			&pair.Answer,
			&pair.Type,
			&pair.Source,
			&variables,
			&dataset,
			&chartPath,
			&provenanceJSON,
		)
		if err != nil {
			return nil, apperrors.StorageError("scan qa pair", err)
		}
		pair.Variables = variables
		pair.Dataset = dataset.String
		pair.ChartPath = chartPath.String
		if err := json.Unmarshal(provenanceJSON, &pair.Provenance); err != nil {
			return nil, apperrors.StorageError("unmarshal provenance", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// CountByType returns per-question-type counts for a run, for run summaries.
func (r *QARepository) CountByType(ctx context.Context, runID string) (map[string]int, error) {
	query := `
		SELECT question_type, COUNT(*)
		FROM qa_pairs
		WHERE run_id = $1
		GROUP BY question_type`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, apperrors.StorageError("count qa pairs", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var qType string
		var n int
		if err := rows.Scan(&qType, &n); err != nil {
			return nil, apperrors.StorageError("scan qa count", err)
		}
		counts[qType] = n
	}
	return counts, rows.Err()
}

// DeleteRun removes every pair belonging to a run.
func (r *QARepository) DeleteRun(ctx context.Context, runID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM qa_pairs WHERE run_id = $1`, runID)
	if err != nil {
		return 0, apperrors.StorageError("delete run", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
