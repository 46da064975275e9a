package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

func TestHafalanRepositoryReviewGuardsPendingStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHafalanRepository(db)

	grade := 90
	reviewedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE hafalan SET status = $2, grade = $3, notes = $4, reviewed_at = $5, updated_at = $5 WHERE id = $1 AND status = $6")).
		WithArgs("haf-1", models.HafalanStatusApproved, &grade, "mumtaz", reviewedAt, models.HafalanStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Review(context.Background(), "haf-1", models.HafalanStatusApproved, &grade, "mumtaz", reviewedAt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHafalanRepositoryReviewAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHafalanRepository(db)

	reviewedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE hafalan SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Review(context.Background(), "haf-1", models.HafalanStatusRejected, nil, "", reviewedAt)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHafalanRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHafalanRepository(db)

	rows := sqlmock.NewRows([]string{"id", "santri_id", "musyrif_id", "surah_id", "ayah_start", "ayah_end", "type", "status", "grade", "notes", "audio_path", "reviewed_at", "created_at", "updated_at", "santri_name", "musyrif_name"}).
		AddRow("1", "san-1", "mus-1", 2, 1, 5, "SETORAN", "PENDING", nil, "", nil, nil, time.Now(), time.Now(), "Ahmad", "Ust. Hasan")
	mock.ExpectQuery("SELECT hf.id, hf.santri_id").
		WithArgs("mus-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("mus-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	submissions, total, err := repo.List(context.Background(), models.HafalanFilter{MusyrifID: "mus-1"})
	require.NoError(t, err)
	assert.Len(t, submissions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
