package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSantriRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSantriRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nis", "full_name", "gender", "birth_date", "address", "status", "wali_id", "halaqah_id", "created_at", "updated_at", "halaqah_name", "wali_name"}).
		AddRow("1", "001", "Ahmad", "M", time.Now(), "Jl. Melati", "ACTIVE", "wali-1", "hal-1", time.Now(), time.Now(), "Halaqah Al-Fatih", "Pak Budi")
	mock.ExpectQuery("SELECT s.id, s.nis, s.full_name").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM santri s")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	santri, total, err := repo.List(context.Background(), models.SantriFilter{})
	require.NoError(t, err)
	assert.Len(t, santri, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSantriRepositoryListScopedToMusyrif(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSantriRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("h.musyrif_id = $1")).
		WithArgs("musyrif-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nis", "full_name", "gender", "birth_date", "address", "status", "wali_id", "halaqah_id", "created_at", "updated_at", "halaqah_name", "wali_name"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("musyrif-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	santri, total, err := repo.List(context.Background(), models.SantriFilter{MusyrifID: "musyrif-1"})
	require.NoError(t, err)
	assert.Empty(t, santri)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSantriRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSantriRepository(db)

	mock.ExpectExec("INSERT INTO santri").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Santri{NIS: "001", FullName: "Ahmad", Gender: "M", BirthDate: time.Now(), Status: models.SantriStatusActive, WaliID: "wali-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSantriRepositoryExistsByNIS(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSantriRepository(db)

	mock.ExpectQuery("SELECT 1 FROM santri WHERE nis").
		WithArgs("001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByNIS(context.Background(), "001", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
