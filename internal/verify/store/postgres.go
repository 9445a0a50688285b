package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"stagepass/internal/verify/models"
)

// Postgres persists verification records in PostgreSQL. The single-use
// guarantee rests on the conditional UPDATE in TransitionStatus: the status
// predicate makes the read-compare-write one atomic statement, so two
// concurrent scans of the same pending credential can never both win.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an existing database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to PostgreSQL using the pgx stdlib driver.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	return &Postgres{db: db}, nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() error { return s.db.Close() }

// Ping checks connectivity for readiness probes.
func (s *Postgres) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const findRecordQuery = `
	SELECT participant_id::text, event_id::text, name, song_title,
	       category_id::text, category_name, subcategory_id::text, subcategory_name,
	       status, updated_at
	FROM verification_records
	WHERE participant_id = $1 AND event_id = $2
`

// FindRecord returns the single record for the pair. More than one matching
// row is a store-integrity violation and surfaces as ErrDuplicateRecords.
func (s *Postgres) FindRecord(ctx context.Context, participantID, eventID string) (*models.VerificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, findRecordQuery, participantID, eventID)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	defer rows.Close()

	var rec *models.VerificationRecord
	for rows.Next() {
		if rec != nil {
			return nil, fmt.Errorf("duplicate rows for participant %s event %s: %w", participantID, eventID, ErrDuplicateRecords)
		}
		rec = &models.VerificationRecord{}
		if err := rows.Scan(
			&rec.ParticipantID, &rec.EventID, &rec.Name, &rec.SongTitle,
			&rec.CategoryID, &rec.CategoryName, &rec.SubCategoryID, &rec.SubCategoryName,
			&rec.Status, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

const transitionQuery = `
	UPDATE verification_records
	SET status = $4, updated_at = now()
	WHERE participant_id = $1 AND event_id = $2 AND status = $3
`

// TransitionStatus runs the compare-and-set. Zero rows affected means either
// the record is gone or a concurrent writer changed the status first; the
// follow-up existence check distinguishes the two.
func (s *Postgres) TransitionStatus(ctx context.Context, participantID, eventID string, expected, next models.Status) error {
	res, err := s.db.ExecContext(ctx, transitionQuery, participantID, eventID, string(expected), string(next))
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM verification_records WHERE participant_id = $1 AND event_id = $2`,
		participantID, eventID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("transition status recheck: %w", err)
	}
	return fmt.Errorf("status is %q, expected %q: %w", current, expected, ErrConflict)
}

var _ RecordStore = (*Postgres)(nil)
