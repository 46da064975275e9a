package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/middleware"
	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
)

type notifRepoStub struct {
	lastFilter models.NotificationFilter
}

func (s *notifRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *notifRepoStub) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	return nil, sql.ErrNoRows
}

func (s *notifRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	return nil
}

func (s *notifRepoStub) MarkAsRead(ctx context.Context, id string, readAt time.Time) error {
	return nil
}

func (s *notifRepoStub) MarkAllAsRead(ctx context.Context, recipientID string, readAt time.Time) (int, error) {
	return 0, nil
}

func (s *notifRepoStub) Delete(ctx context.Context, id string) error { return nil }

func (s *notifRepoStub) Stats(ctx context.Context, recipientID string) (*models.NotificationStats, error) {
	return &models.NotificationStats{}, nil
}

func (s *notifRepoStub) ListTemplates(ctx context.Context, activeOnly bool) ([]models.NotificationTemplate, error) {
	return nil, nil
}

func (s *notifRepoStub) FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	return nil, sql.ErrNoRows
}

func (s *notifRepoStub) CreateTemplate(ctx context.Context, template *models.NotificationTemplate) error {
	return nil
}

type notifUserStub struct{}

func (notifUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func TestNotificationHandlerListParsesChannelFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &notifRepoStub{}
	svc := service.NewNotificationService(stub, notifUserStub{}, nil, nil, time.Minute, nil, nil)
	handler := NewNotificationHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/notifications?channel=WHATSAPP&priority=HIGH", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.lastFilter.Channel)
	assert.Equal(t, models.NotificationChannelWhatsApp, *stub.lastFilter.Channel)
	require.NotNil(t, stub.lastFilter.Priority)
	assert.Equal(t, models.NotificationPriorityHigh, *stub.lastFilter.Priority)
}
