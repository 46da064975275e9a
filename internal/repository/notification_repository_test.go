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

func TestNotificationRepositoryMarkAsReadOnlyUnread(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	readAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $2, read_at = $3, updated_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("not-1", models.NotificationStatusRead, readAt, models.NotificationStatusUnread).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkAsRead(context.Background(), "not-1", readAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListForRecipientIncludesBroadcast(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "message", "type", "priority", "channels", "recipient_id", "status", "scheduled_at", "read_at", "created_by", "created_at", "updated_at"}).
		AddRow("1", "Pengumuman", "Libur besok", "ANNOUNCEMENT", "NORMAL", "IN_APP", nil, "unread", nil, nil, "admin-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("(recipient_id = $1 OR recipient_id IS NULL)")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	notifications, total, err := repo.List(context.Background(), models.NotificationFilter{RecipientID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT\\s+COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread", "read"}).AddRow(5, 2, 3))
	mock.ExpectQuery("SELECT type, COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("ANNOUNCEMENT", 3).
			AddRow("PAYMENT_REMINDER", 2))

	stats, err := repo.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, 3, stats.Read)
	assert.Equal(t, 3, stats.ByType[models.NotificationTypeAnnouncement])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		Title:     "Tagihan",
		Message:   "Tagihan jatuh tempo",
		Type:      models.NotificationTypePaymentReminder,
		Priority:  models.NotificationPriorityHigh,
		Channels:  models.JoinChannels([]models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelEmail}),
		CreatedBy: "admin-1",
	}
	err := repo.Create(context.Background(), notification)
	require.NoError(t, err)
	assert.NotEmpty(t, notification.ID)
	assert.Equal(t, models.NotificationStatusUnread, notification.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
