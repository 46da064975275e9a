package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

// NotificationRepository manages persistence for notifications and templates.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns notifications matching the filter. An empty RecipientID
// selects across all recipients (admin view), otherwise the query binds
// to the recipient or broadcast rows.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	base := "FROM notifications WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RecipientID != "" {
		conditions = append(conditions, fmt.Sprintf("(recipient_id = $%d OR recipient_id IS NULL)", len(args)+1))
		args = append(args, filter.RecipientID)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, *filter.Priority)
	}
	if filter.Channel != nil {
		conditions = append(conditions, fmt.Sprintf("channels LIKE $%d", len(args)+1))
		args = append(args, "%"+string(*filter.Channel)+"%")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(message) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf("SELECT id, title, message, type, priority, channels, recipient_id, status, scheduled_at, read_at, created_by, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, limit, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// FindByID returns a notification by identifier.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, title, message, type, priority, channels, recipient_id, status, scheduled_at, read_at, created_by, created_at, updated_at FROM notifications WHERE id = $1 LIMIT 1`
	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}

// Create inserts a notification in the unread state.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = now
	}
	notification.UpdatedAt = now
	if notification.Status == "" {
		notification.Status = models.NotificationStatusUnread
	}
	const query = `INSERT INTO notifications (id, title, message, type, priority, channels, recipient_id, status, scheduled_at, read_at, created_by, created_at, updated_at)
        VALUES (:id, :title, :message, :type, :priority, :channels, :recipient_id, :status, :scheduled_at, :read_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkAsRead flips a notification to read. Already-read rows are left
// untouched so the first read_at timestamp survives repeat calls.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE notifications SET status = $2, read_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationStatusRead, readAt, models.NotificationStatusUnread); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllAsRead flips every unread notification visible to the recipient.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string, readAt time.Time) (int, error) {
	const query = `UPDATE notifications SET status = $2, read_at = $3, updated_at = $3 WHERE (recipient_id = $1 OR recipient_id IS NULL) AND status = $4`
	res, err := r.db.ExecContext(ctx, query, recipientID, models.NotificationStatusRead, readAt, models.NotificationStatusUnread)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications rows: %w", err)
	}
	return int(affected), nil
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notifications WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// Stats aggregates counts for the recipient. Empty recipientID covers
// the whole table.
func (r *NotificationRepository) Stats(ctx context.Context, recipientID string) (*models.NotificationStats, error) {
	base := "FROM notifications"
	var args []interface{}
	if recipientID != "" {
		base += " WHERE (recipient_id = $1 OR recipient_id IS NULL)"
		args = append(args, recipientID)
	}

	countQuery := fmt.Sprintf(`SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'unread') AS unread,
        COUNT(*) FILTER (WHERE status = 'read') AS read
        %s`, base)

	var row struct {
		Total  int `db:"total"`
		Unread int `db:"unread"`
		Read   int `db:"read"`
	}
	if err := r.db.GetContext(ctx, &row, countQuery, args...); err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}

	typeQuery := fmt.Sprintf("SELECT type, COUNT(*) AS count %s GROUP BY type", base)
	var typeRows []struct {
		Type  models.NotificationType `db:"type"`
		Count int                     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &typeRows, typeQuery, args...); err != nil {
		return nil, fmt.Errorf("notification stats by type: %w", err)
	}

	stats := &models.NotificationStats{
		Total:  row.Total,
		Unread: row.Unread,
		Read:   row.Read,
		ByType: make(map[models.NotificationType]int, len(typeRows)),
	}
	for _, tr := range typeRows {
		stats.ByType[tr.Type] = tr.Count
	}
	return stats, nil
}

// ListTemplates returns stored notification templates.
func (r *NotificationRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]models.NotificationTemplate, error) {
	query := `SELECT id, name, title, message, type, channels, variables, is_active, created_by, created_at, updated_at FROM notification_templates`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name ASC"
	var templates []models.NotificationTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list notification templates: %w", err)
	}
	return templates, nil
}

// FindTemplateByName returns a template by its unique name.
func (r *NotificationRepository) FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	const query = `SELECT id, name, title, message, type, channels, variables, is_active, created_by, created_at, updated_at FROM notification_templates WHERE name = $1 LIMIT 1`
	var template models.NotificationTemplate
	if err := r.db.GetContext(ctx, &template, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification template: %w", err)
	}
	return &template, nil
}

// CreateTemplate inserts a notification template.
func (r *NotificationRepository) CreateTemplate(ctx context.Context, template *models.NotificationTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now
	const query = `INSERT INTO notification_templates (id, name, title, message, type, channels, variables, is_active, created_by, created_at, updated_at)
        VALUES (:id, :name, :title, :message, :type, :channels, :variables, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create notification template: %w", err)
	}
	return nil
}
