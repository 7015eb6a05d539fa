package repository

import (
	"context"
	"testing"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateSubmission(t *testing.T) {
	repo, mockDB := newMockRepo(t)

	submission := &model.QuestSubmission{
		ID:          uuid.New(),
		QuestID:     uuid.New(),
		Wallet:      "0xabc",
		SubmittedAt: time.Now().UTC(),
		Proofs:      map[int]string{0: "https://example.com"},
		Status:      model.SubmissionPending,
	}

	mockDB.ExpectBegin()
	mockDB.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT submission_id FROM submissions").
		WillReturnRows(sqlmock.NewRows([]string{"submission_id"}))
	mockDB.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO submission_proofs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := repo.CreateSubmission(context.Background(), submission)
	assert.NoError(t, err)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestCreateSubmissionDuplicate(t *testing.T) {
	repo, mockDB := newMockRepo(t)

	submission := &model.QuestSubmission{
		ID:          uuid.New(),
		QuestID:     uuid.New(),
		Wallet:      "0xabc",
		SubmittedAt: time.Now().UTC(),
		Status:      model.SubmissionPending,
	}

	// the pair lock is taken before the existence check, so a racing insert
	// for the same (quest, wallet) waits and then sees this row
	mockDB.ExpectBegin()
	mockDB.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT submission_id FROM submissions").
		WillReturnRows(sqlmock.NewRows([]string{"submission_id"}).AddRow(uuid.New().String()))
	mockDB.ExpectRollback()

	err := repo.CreateSubmission(context.Background(), submission)
	assert.ErrorIs(t, err, ErrSubmissionExists)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}
