package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]models.Notification
	templates     map[string]models.NotificationTemplate
	lastFilter    models.NotificationFilter
	stats         models.NotificationStats
	statsCalls    int
	markedAll     string
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	m.lastFilter = filter
	list := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		list = append(list, n)
	}
	return list, len(list), nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.notifications == nil {
		m.notifications = make(map[string]models.Notification)
	}
	if notification.ID == "" {
		notification.ID = "generated"
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id string, readAt time.Time) error {
	n, ok := m.notifications[id]
	if !ok {
		return nil
	}
	// Only the first transition records read_at.
	if n.Status == models.NotificationStatusUnread {
		n.Status = models.NotificationStatusRead
		n.ReadAt = &readAt
		m.notifications[id] = n
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID string, readAt time.Time) (int, error) {
	m.markedAll = recipientID
	updated := 0
	for id, n := range m.notifications {
		if n.Status == models.NotificationStatusUnread {
			n.Status = models.NotificationStatusRead
			n.ReadAt = &readAt
			m.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id string) error {
	delete(m.notifications, id)
	return nil
}

func (m *mockNotificationRepo) Stats(ctx context.Context, recipientID string) (*models.NotificationStats, error) {
	m.statsCalls++
	stats := m.stats
	return &stats, nil
}

func (m *mockNotificationRepo) ListTemplates(ctx context.Context, activeOnly bool) ([]models.NotificationTemplate, error) {
	list := make([]models.NotificationTemplate, 0, len(m.templates))
	for _, tpl := range m.templates {
		if activeOnly && !tpl.IsActive {
			continue
		}
		list = append(list, tpl)
	}
	return list, nil
}

func (m *mockNotificationRepo) FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	if tpl, ok := m.templates[name]; ok {
		return &tpl, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) CreateTemplate(ctx context.Context, template *models.NotificationTemplate) error {
	if m.templates == nil {
		m.templates = make(map[string]models.NotificationTemplate)
	}
	if template.ID == "" {
		template.ID = "generated"
	}
	m.templates[template.Name] = *template
	return nil
}

type mockNotifCache struct {
	stats       map[string]models.NotificationStats
	invalidated []string
}

func (m *mockNotifCache) Get(ctx context.Context, key string, dest interface{}) error {
	stats, ok := m.stats[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if target, ok := dest.(*models.NotificationStats); ok {
		*target = stats
	}
	return nil
}

func (m *mockNotifCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.stats == nil {
		m.stats = make(map[string]models.NotificationStats)
	}
	if stats, ok := value.(*models.NotificationStats); ok {
		m.stats[key] = *stats
	}
	return nil
}

func (m *mockNotifCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.stats = nil
	return nil
}

type mockNotifDispatcher struct {
	dispatched []models.Notification
}

func (m *mockNotifDispatcher) Dispatch(notification *models.Notification) {
	m.dispatched = append(m.dispatched, *notification)
}

func newNotificationService(repo *mockNotificationRepo, users *mockUserLookup, cache *mockNotifCache, dispatcher *mockNotifDispatcher) *NotificationService {
	return NewNotificationService(repo, users, cache, dispatcher, time.Minute, nil, nil)
}

func TestNotificationServiceCreateDispatches(t *testing.T) {
	repo := &mockNotificationRepo{}
	cache := &mockNotifCache{}
	dispatcher := &mockNotifDispatcher{}
	recipient := "user-1"
	users := &mockUserLookup{users: map[string]models.User{"user-1": {ID: "user-1", Role: models.RoleWali}}}
	svc := newNotificationService(repo, users, cache, dispatcher)

	notification, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:       "Pengumuman",
		Message:     "Libur besok",
		Type:        models.NotificationTypeAnnouncement,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelEmail},
		RecipientID: &recipient,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusUnread, notification.Status)
	assert.Equal(t, models.NotificationPriorityNormal, notification.Priority)
	assert.Equal(t, "IN_APP,EMAIL", notification.Channels)
	require.Len(t, dispatcher.dispatched, 1)
	assert.NotEmpty(t, cache.invalidated)
}

func TestNotificationServiceCreateDefaultsToInApp(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	notification, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:   "Pengumuman",
		Message: "Libur besok",
		Type:    models.NotificationTypeAnnouncement,
	})
	require.NoError(t, err)
	assert.Equal(t, "IN_APP", notification.Channels)
}

func TestNotificationServiceCreateScheduledNotDispatched(t *testing.T) {
	dispatcher := &mockNotifDispatcher{}
	svc := newNotificationService(&mockNotificationRepo{}, &mockUserLookup{}, &mockNotifCache{}, dispatcher)

	scheduledAt := time.Now().Add(time.Hour)
	_, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:       "Pengumuman",
		Message:     "Libur besok",
		Type:        models.NotificationTypeAnnouncement,
		Channels:    []models.NotificationChannel{models.NotificationChannelEmail},
		ScheduledAt: &scheduledAt,
	})
	require.NoError(t, err)
	assert.Empty(t, dispatcher.dispatched)
}

func TestNotificationServiceCreateUnknownRecipient(t *testing.T) {
	recipient := "missing"
	svc := newNotificationService(&mockNotificationRepo{}, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:       "Pengumuman",
		Message:     "Libur besok",
		Type:        models.NotificationTypeAnnouncement,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp},
		RecipientID: &recipient,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Penerima tidak ditemukan")
}

func TestNotificationServiceCreateInvalidType(t *testing.T) {
	repo := &mockNotificationRepo{}
	dispatcher := &mockNotifDispatcher{}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, dispatcher)

	_, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:   "Pengumuman",
		Message: "Libur besok",
		Type:    "SMOKE_SIGNAL",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	// Nothing stored, nothing dispatched.
	assert.Empty(t, repo.notifications)
	assert.Empty(t, dispatcher.dispatched)
}

func TestNotificationServiceCreateInvalidChannel(t *testing.T) {
	svc := newNotificationService(&mockNotificationRepo{}, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, err := svc.Create(context.Background(), "admin-1", CreateNotificationRequest{
		Title:    "Pengumuman",
		Message:  "Libur besok",
		Type:     models.NotificationTypeAnnouncement,
		Channels: []models.NotificationChannel{"CARRIER_PIGEON"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestNotificationServiceCreateFromPredefinedTemplate(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	notification, err := svc.CreateFromTemplate(context.Background(), "mus-1", CreateFromTemplateRequest{
		TemplateID: "hafalan-progress",
		Variables: map[string]string{
			"nama_santri": "Ahmad",
			"surah":       "Al-Baqarah",
			"ayat":        "1-5",
			"nilai":       "88",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeHafalanProgress, notification.Type)
	assert.Contains(t, notification.Message, "Ahmad")
	assert.Contains(t, notification.Message, "88")
	assert.NotContains(t, notification.Message, "{{")
}

func TestNotificationServiceCreateFromStoredTemplate(t *testing.T) {
	repo := &mockNotificationRepo{templates: map[string]models.NotificationTemplate{
		"rapat-wali": {
			ID: "tpl-1", Name: "rapat-wali", Title: "Undangan",
			Message:  "Rapat wali santri pada {{tanggal}}",
			Type:     models.NotificationTypeAnnouncement,
			Channels: "IN_APP",
			IsActive: true,
		},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	notification, err := svc.CreateFromTemplate(context.Background(), "admin-1", CreateFromTemplateRequest{
		TemplateID: "rapat-wali",
		Variables:  map[string]string{"tanggal": "1 September"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rapat wali santri pada 1 September", notification.Message)
}

func TestNotificationServiceCreateFromUnknownTemplate(t *testing.T) {
	svc := newNotificationService(&mockNotificationRepo{}, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, err := svc.CreateFromTemplate(context.Background(), "admin-1", CreateFromTemplateRequest{
		TemplateID: "does-not-exist",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template tidak ditemukan")
}

func TestNotificationServiceCreateFromInactiveTemplate(t *testing.T) {
	repo := &mockNotificationRepo{templates: map[string]models.NotificationTemplate{
		"lama": {ID: "tpl-1", Name: "lama", Title: "t", Message: "m", Type: models.NotificationTypeInfo, Channels: "IN_APP"},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, err := svc.CreateFromTemplate(context.Background(), "admin-1", CreateFromTemplateRequest{TemplateID: "lama"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template tidak aktif")
}

func TestNotificationServiceListScopesNonAdmin(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, _, err := svc.List(context.Background(), musyrifClaims("mus-1"), models.NotificationFilter{RecipientID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "mus-1", repo.lastFilter.RecipientID)

	_, _, err = svc.List(context.Background(), adminClaims(), models.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.RecipientID)
}

func TestNotificationServiceStatsCached(t *testing.T) {
	repo := &mockNotificationRepo{stats: models.NotificationStats{Total: 5, Unread: 2, Read: 3}}
	cache := &mockNotifCache{}
	svc := newNotificationService(repo, &mockUserLookup{}, cache, &mockNotifDispatcher{})

	first, err := svc.Stats(context.Background(), musyrifClaims("mus-1"))
	require.NoError(t, err)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 1, repo.statsCalls)

	// Second call is served from cache.
	second, err := svc.Stats(context.Background(), musyrifClaims("mus-1"))
	require.NoError(t, err)
	assert.Equal(t, first.Unread, second.Unread)
	assert.Equal(t, 1, repo.statsCalls)
}

func TestNotificationServiceMarkAsReadIdempotent(t *testing.T) {
	owner := "mus-1"
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"not-1": {ID: "not-1", RecipientID: &owner, Status: models.NotificationStatusUnread},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	require.NoError(t, svc.MarkAsRead(context.Background(), musyrifClaims("mus-1"), "not-1"))
	firstReadAt := repo.notifications["not-1"].ReadAt
	require.NotNil(t, firstReadAt)

	// Repeating the call succeeds and keeps the original timestamp.
	require.NoError(t, svc.MarkAsRead(context.Background(), musyrifClaims("mus-1"), "not-1"))
	assert.Equal(t, firstReadAt, repo.notifications["not-1"].ReadAt)
}

func TestNotificationServiceMarkAsReadForeignRecipient(t *testing.T) {
	owner := "mus-owner"
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"not-1": {ID: "not-1", RecipientID: &owner, Status: models.NotificationStatusUnread},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	err := svc.MarkAsRead(context.Background(), musyrifClaims("mus-other"), "not-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestNotificationServiceMarkAllAsRead(t *testing.T) {
	owner := "mus-1"
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"not-1": {ID: "not-1", RecipientID: &owner, Status: models.NotificationStatusUnread},
		"not-2": {ID: "not-2", RecipientID: &owner, Status: models.NotificationStatusUnread},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	updated, err := svc.MarkAllAsRead(context.Background(), musyrifClaims("mus-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, "mus-1", repo.markedAll)
}

func TestNotificationServiceCreateTemplateDuplicateName(t *testing.T) {
	repo := &mockNotificationRepo{templates: map[string]models.NotificationTemplate{
		"rapat-wali": {ID: "tpl-1", Name: "rapat-wali", IsActive: true},
	}}
	svc := newNotificationService(repo, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	_, err := svc.CreateTemplate(context.Background(), "admin-1", CreateTemplateRequest{
		Name: "rapat-wali", Title: "t", Message: "m",
		Type:     models.NotificationTypeInfo,
		Channels: []models.NotificationChannel{models.NotificationChannelInApp},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nama template sudah digunakan")
}

func TestNotificationServiceTemplatesIncludeCatalog(t *testing.T) {
	svc := newNotificationService(&mockNotificationRepo{}, &mockUserLookup{}, &mockNotifCache{}, &mockNotifDispatcher{})

	predefined, stored, err := svc.Templates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	require.NotEmpty(t, predefined)

	ids := make([]string, 0, len(predefined))
	for _, tpl := range predefined {
		ids = append(ids, tpl.ID)
	}
	assert.Contains(t, ids, "hafalan-progress")
	assert.Contains(t, ids, "payment-reminder")
}
