package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkAsRead(ctx context.Context, id string, readAt time.Time) error
	MarkAllAsRead(ctx context.Context, recipientID string, readAt time.Time) (int, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, recipientID string) (*models.NotificationStats, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]models.NotificationTemplate, error)
	FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error)
	CreateTemplate(ctx context.Context, template *models.NotificationTemplate) error
}

type notificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type notificationDispatcher interface {
	Dispatch(notification *models.Notification)
}

// CreateNotificationRequest holds payload for composing a notification.
type CreateNotificationRequest struct {
	Title       string                       `json:"title" validate:"required"`
	Message     string                       `json:"message" validate:"required"`
	Type        models.NotificationType      `json:"type" validate:"required"`
	Priority    models.NotificationPriority  `json:"priority"`
	Channels    []models.NotificationChannel `json:"channels"`
	RecipientID *string                      `json:"recipient_id"`
	ScheduledAt *time.Time                   `json:"scheduled_at"`
}

// CreateFromTemplateRequest composes a notification from a catalog or
// stored template with variable substitution.
type CreateFromTemplateRequest struct {
	TemplateID  string            `json:"template_id" validate:"required"`
	Variables   map[string]string `json:"variables"`
	RecipientID *string           `json:"recipient_id"`
}

// CreateTemplateRequest holds payload for storing a reusable template.
type CreateTemplateRequest struct {
	Name      string                       `json:"name" validate:"required"`
	Title     string                       `json:"title" validate:"required"`
	Message   string                       `json:"message" validate:"required"`
	Type      models.NotificationType      `json:"type" validate:"required"`
	Channels  []models.NotificationChannel `json:"channels" validate:"min=1"`
	Variables []string                     `json:"variables"`
}

const statsCacheKeyPrefix = "notifications:stats:"

// NotificationService handles composing, listing and delivering
// notifications.
type NotificationService struct {
	repo       notificationRepository
	userRepo   notificationUserRepository
	cache      notificationCache
	dispatcher notificationDispatcher
	statsTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, userRepo notificationUserRepository, cache notificationCache, dispatcher notificationDispatcher, statsTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &NotificationService{
		repo:       repo,
		userRepo:   userRepo,
		cache:      cache,
		dispatcher: dispatcher,
		statsTTL:   statsTTL,
		validator:  validate,
		logger:     logger,
	}
}

// Create stores a notification and fans it out to its channels.
func (s *NotificationService) Create(ctx context.Context, createdBy string, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	if !models.ValidNotificationType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid notification type")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.NotificationPriorityNormal
	}
	if !models.ValidNotificationPriority(priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid notification priority")
	}
	if len(req.Channels) == 0 {
		req.Channels = []models.NotificationChannel{models.NotificationChannelInApp}
	}
	for _, channel := range req.Channels {
		if !models.ValidNotificationChannel(channel) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid channel %q", channel))
		}
	}
	if req.RecipientID != nil && *req.RecipientID != "" {
		if _, err := s.userRepo.FindByID(ctx, *req.RecipientID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrBadReference, "Penerima tidak ditemukan")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
		}
	}

	notification := &models.Notification{
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		Priority:    priority,
		Channels:    models.JoinChannels(req.Channels),
		RecipientID: req.RecipientID,
		Status:      models.NotificationStatusUnread,
		ScheduledAt: req.ScheduledAt,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	s.invalidateStats(ctx, notification.RecipientID)
	// Scheduled notifications wait for their slot; everything else fans
	// out immediately.
	if s.dispatcher != nil && notification.ScheduledAt == nil {
		s.dispatcher.Dispatch(notification)
	}
	return notification, nil
}

// CreateFromTemplate renders a template and stores the result. The
// catalog of predefined templates is consulted first, then stored
// templates by name.
func (s *NotificationService) CreateFromTemplate(ctx context.Context, createdBy string, req CreateFromTemplateRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	for _, tpl := range predefinedTemplates {
		if tpl.ID == req.TemplateID {
			return s.Create(ctx, createdBy, CreateNotificationRequest{
				Title:       renderTemplate(tpl.Title, req.Variables),
				Message:     renderTemplate(tpl.Message, req.Variables),
				Type:        tpl.Type,
				Channels:    tpl.Channels,
				RecipientID: req.RecipientID,
			})
		}
	}

	stored, err := s.repo.FindTemplateByName(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Template tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	if !stored.IsActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Template tidak aktif")
	}
	return s.Create(ctx, createdBy, CreateNotificationRequest{
		Title:       renderTemplate(stored.Title, req.Variables),
		Message:     renderTemplate(stored.Message, req.Variables),
		Type:        stored.Type,
		Channels:    models.SplitChannels(stored.Channels),
		RecipientID: req.RecipientID,
	})
}

// List returns notifications for the caller. Admins may inspect the
// full stream, other users see only their own and broadcast rows.
func (s *NotificationService) List(ctx context.Context, claims *models.JWTClaims, filter models.NotificationFilter) ([]models.Notification, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	if claims.Role != models.RoleAdmin {
		filter.RecipientID = claims.UserID
	}
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, total, nil
}

// Stats returns read/unread counters, served from cache when warm.
func (s *NotificationService) Stats(ctx context.Context, claims *models.JWTClaims) (*models.NotificationStats, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	recipientID := claims.UserID
	if claims.Role == models.RoleAdmin {
		recipientID = ""
	}

	cacheKey := statsCacheKeyPrefix + recipientID
	if s.cache != nil {
		var cached models.NotificationStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("notification stats cache read failed", zap.Error(err))
		}
	}

	stats, err := s.repo.Stats(ctx, recipientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification stats")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("notification stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// MarkAsRead flips a notification to read. Repeat calls are accepted
// and leave the first read_at timestamp intact.
func (s *NotificationService) MarkAsRead(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if claims.Role != models.RoleAdmin && notification.RecipientID != nil && *notification.RecipientID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	if err := s.repo.MarkAsRead(ctx, id, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	s.invalidateStats(ctx, notification.RecipientID)
	return nil
}

// MarkAllAsRead flips every unread notification visible to the caller.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, claims *models.JWTClaims) (int, error) {
	if claims == nil {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	updated, err := s.repo.MarkAllAsRead(ctx, claims.UserID, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateStats(ctx, &claims.UserID)
	return updated, nil
}

// Delete removes a notification. Admin only; the handler enforces the
// role, the service re-checks defensively through the repo lookup.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	s.invalidateStats(ctx, nil)
	return nil
}

// Templates returns the predefined catalog plus stored templates.
func (s *NotificationService) Templates(ctx context.Context) ([]models.PredefinedTemplate, []models.NotificationTemplate, error) {
	stored, err := s.repo.ListTemplates(ctx, true)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return predefinedTemplates, stored, nil
}

// CreateTemplate stores a reusable template.
func (s *NotificationService) CreateTemplate(ctx context.Context, createdBy string, req CreateTemplateRequest) (*models.NotificationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if !models.ValidNotificationType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid notification type")
	}
	for _, channel := range req.Channels {
		if !models.ValidNotificationChannel(channel) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid channel %q", channel))
		}
	}
	if existing, err := s.repo.FindTemplateByName(ctx, req.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Nama template sudah digunakan")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate template name")
	}

	variables, err := json.Marshal(req.Variables)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode template variables")
	}
	template := &models.NotificationTemplate{
		Name:      req.Name,
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		Channels:  models.JoinChannels(req.Channels),
		Variables: variables,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return template, nil
}

// NotifyHafalanReviewed pushes a progress notification to the santri's
// wali after a review lands. Failures are logged, the review itself has
// already committed.
func (s *NotificationService) NotifyHafalanReviewed(ctx context.Context, hafalan *models.HafalanDetail, outcome models.HafalanStatus) {
	santriName := hafalan.SantriID
	if hafalan.SantriName != nil {
		santriName = *hafalan.SantriName
	}
	grade := "-"
	if hafalan.Grade != nil {
		grade = fmt.Sprintf("%d", *hafalan.Grade)
	}
	variables := map[string]string{
		"nama_santri": santriName,
		"surah":       fmt.Sprintf("surah %d", hafalan.SurahID),
		"ayat":        fmt.Sprintf("%d-%d", hafalan.AyahStart, hafalan.AyahEnd),
		"nilai":       grade,
	}
	if _, err := s.CreateFromTemplate(ctx, hafalan.MusyrifID, CreateFromTemplateRequest{
		TemplateID: "hafalan-progress",
		Variables:  variables,
	}); err != nil {
		s.logger.Warn("failed to send hafalan review notification",
			zap.String("hafalan_id", hafalan.ID),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}

func (s *NotificationService) invalidateStats(ctx context.Context, recipientID *string) {
	if s.cache == nil {
		return
	}
	// Broadcast rows change every user's counters, so clear the prefix.
	pattern := statsCacheKeyPrefix + "*"
	if recipientID != nil && *recipientID != "" {
		pattern = statsCacheKeyPrefix + *recipientID
	}
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate notification stats cache", zap.Error(err))
	}
	// The admin aggregate always changes.
	if err := s.cache.DeleteByPattern(ctx, statsCacheKeyPrefix); err != nil {
		s.logger.Warn("failed to invalidate admin notification stats cache", zap.Error(err))
	}
}
