package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/verify/models"
	"stagepass/internal/verify/store"
)

var recordColumns = []string{
	"participant_id", "event_id", "name", "song_title",
	"category_id", "category_name", "subcategory_id", "subcategory_name",
	"status", "updated_at",
}

func newMockStore(t *testing.T) (*store.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewPostgres(db), mock
}

func recordRow(status models.Status) *sqlmock.Rows {
	return sqlmock.NewRows(recordColumns).AddRow(
		"42", "7", "A", "S", "1", "Solo", "2", "Piano", string(status), time.Now(),
	)
}

func TestPostgresFindRecord(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT participant_id::text`).
		WithArgs("42", "7").
		WillReturnRows(recordRow(models.StatusPending))

	rec, err := s.FindRecord(context.Background(), "42", "7")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ParticipantID)
	assert.Equal(t, "Solo", rec.CategoryName)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindRecordNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT participant_id::text`).
		WithArgs("42", "7").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := s.FindRecord(context.Background(), "42", "7")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresFindRecordDuplicateRows(t *testing.T) {
	s, mock := newMockStore(t)

	rows := recordRow(models.StatusPending).AddRow(
		"42", "7", "A", "S", "1", "Solo", "2", "Piano", "pending", time.Now(),
	)
	mock.ExpectQuery(`SELECT participant_id::text`).
		WithArgs("42", "7").
		WillReturnRows(rows)

	_, err := s.FindRecord(context.Background(), "42", "7")
	assert.ErrorIs(t, err, store.ErrDuplicateRecords)
}

func TestPostgresFindRecordQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT participant_id::text`).
		WithArgs("42", "7").
		WillReturnError(errors.New("connection reset"))

	_, err := s.FindRecord(context.Background(), "42", "7")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresTransitionStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE verification_records`).
		WithArgs("42", "7", "pending", "verified").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.TransitionStatus(context.Background(), "42", "7", models.StatusPending, models.StatusVerified)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransitionStatusConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE verification_records`).
		WithArgs("42", "7", "pending", "verified").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM verification_records`).
		WithArgs("42", "7").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("verified"))

	err := s.TransitionStatus(context.Background(), "42", "7", models.StatusPending, models.StatusVerified)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestPostgresTransitionStatusRecordGone(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE verification_records`).
		WithArgs("42", "7", "pending", "verified").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM verification_records`).
		WithArgs("42", "7").
		WillReturnError(sql.ErrNoRows)

	err := s.TransitionStatus(context.Background(), "42", "7", models.StatusPending, models.StatusVerified)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
