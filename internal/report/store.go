package report

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	rank INTEGER NOT NULL,
	savings REAL NOT NULL,
	mae REAL NOT NULL,
	psnr REAL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_samples_source_rank ON samples(source, rank);
`

// Sample is the quality of one rank of one image.
type Sample struct {
	Source        string
	Width, Height int
	Rank          int
	Savings       float64
	MAE           float64
	// PSNR is +Inf for a lossless reconstruction.
	PSNR float64
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores samples in a single transaction.
func (s *Store) Insert(ctx context.Context, samples []Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (source, width, height, rank, savings, mae, psnr)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sm := range samples {
		psnr := sql.NullFloat64{Float64: sm.PSNR, Valid: !math.IsInf(sm.PSNR, 0) && !math.IsNaN(sm.PSNR)}
		if _, err := stmt.ExecContext(ctx, sm.Source, sm.Width, sm.Height, sm.Rank, sm.Savings, sm.MAE, psnr); err != nil {
			return fmt.Errorf("failed to insert sample rank=%d: %w", sm.Rank, err)
		}
	}
	return tx.Commit()
}

// Samples returns the samples recorded for source, ordered by rank.
func (s *Store) Samples(ctx context.Context, source string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, width, height, rank, savings, mae, psnr
		FROM samples
		WHERE source = ?
		ORDER BY rank, id`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			sm   Sample
			psnr sql.NullFloat64
		)
		if err := rows.Scan(&sm.Source, &sm.Width, &sm.Height, &sm.Rank, &sm.Savings, &sm.MAE, &psnr); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sm.PSNR = math.Inf(1)
		if psnr.Valid {
			sm.PSNR = psnr.Float64
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}
