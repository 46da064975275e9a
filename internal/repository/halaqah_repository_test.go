package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

func TestHalaqahRepositoryCreateWithSchedules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHalaqahRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO halaqah ").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO halaqah_schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO halaqah_schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	halaqah := &models.Halaqah{Name: "Al-Fatih", Level: "TAHSIN", Capacity: 15, MusyrifID: "mus-1"}
	schedules := []models.HalaqahSchedule{
		{DayOfWeek: 1, StartTime: "05:30", EndTime: "06:30", Room: "A1"},
		{DayOfWeek: 4, StartTime: "16:00", EndTime: "17:00", Room: "A1"},
	}
	err := repo.Create(context.Background(), halaqah, schedules)
	require.NoError(t, err)
	assert.NotEmpty(t, halaqah.ID)
	assert.Equal(t, halaqah.ID, schedules[0].HalaqahID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHalaqahRepositoryCreateRollsBackOnScheduleError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHalaqahRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO halaqah ").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO halaqah_schedules").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	halaqah := &models.Halaqah{Name: "Al-Fatih", MusyrifID: "mus-1"}
	err := repo.Create(context.Background(), halaqah, []models.HalaqahSchedule{{DayOfWeek: 1}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHalaqahRepositoryListSearchesNameAndDescription(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHalaqahRepository(db)

	mock.ExpectQuery(`\(LOWER\(h\.name\) LIKE \$1 OR LOWER\(h\.description\) LIKE \$1\)`).
		WithArgs("%tahsin%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%tahsin%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.HalaqahFilter{Search: "Tahsin"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHalaqahRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHalaqahRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM halaqah WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Al-Fatih").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "Al-Fatih", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
