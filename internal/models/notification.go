package models

import (
	"strings"
	"time"
)

// NotificationType enumerates the allowed notification categories.
type NotificationType string

const (
	NotificationTypeInfo                NotificationType = "INFO"
	NotificationTypePaymentReminder     NotificationType = "PAYMENT_REMINDER"
	NotificationTypePaymentConfirmation NotificationType = "PAYMENT_CONFIRMATION"
	NotificationTypeHafalanProgress     NotificationType = "HAFALAN_PROGRESS"
	NotificationTypeAttendanceAlert     NotificationType = "ATTENDANCE_ALERT"
	NotificationTypeAnnouncement        NotificationType = "ANNOUNCEMENT"
	NotificationTypeSystemAlert         NotificationType = "SYSTEM_ALERT"
)

// ValidNotificationType reports whether the value is enumerated.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationTypeInfo, NotificationTypePaymentReminder, NotificationTypePaymentConfirmation,
		NotificationTypeHafalanProgress, NotificationTypeAttendanceAlert,
		NotificationTypeAnnouncement, NotificationTypeSystemAlert:
		return true
	}
	return false
}

// NotificationPriority orders notifications for display.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
	NotificationPriorityUrgent NotificationPriority = "URGENT"
)

// ValidNotificationPriority reports whether the value is enumerated.
func ValidNotificationPriority(p NotificationPriority) bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityNormal, NotificationPriorityHigh, NotificationPriorityUrgent:
		return true
	}
	return false
}

// NotificationChannel is a delivery medium.
type NotificationChannel string

const (
	NotificationChannelInApp    NotificationChannel = "IN_APP"
	NotificationChannelEmail    NotificationChannel = "EMAIL"
	NotificationChannelWhatsApp NotificationChannel = "WHATSAPP"
	NotificationChannelSMS      NotificationChannel = "SMS"
)

// ValidNotificationChannel reports whether the value is enumerated.
func ValidNotificationChannel(ch NotificationChannel) bool {
	switch ch {
	case NotificationChannelInApp, NotificationChannelEmail, NotificationChannelWhatsApp, NotificationChannelSMS:
		return true
	}
	return false
}

// NotificationStatus is the read state of an in-app notification.
type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// Notification is a persisted message addressed to one user or broadcast.
// Channels are stored as a comma-delimited column, mirroring the
// upstream schema.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Type        NotificationType     `db:"type" json:"type"`
	Priority    NotificationPriority `db:"priority" json:"priority"`
	Channels    string               `db:"channels" json:"-"`
	RecipientID *string              `db:"recipient_id" json:"recipient_id,omitempty"`
	Status      NotificationStatus   `db:"status" json:"status"`
	ScheduledAt *time.Time           `db:"scheduled_at" json:"scheduled_at,omitempty"`
	ReadAt      *time.Time           `db:"read_at" json:"read_at,omitempty"`
	CreatedBy   string               `db:"created_by" json:"created_by"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// ChannelList splits the stored channel column into typed values.
func (n Notification) ChannelList() []NotificationChannel {
	return SplitChannels(n.Channels)
}

// JoinChannels serialises channels for storage.
func JoinChannels(channels []NotificationChannel) string {
	parts := make([]string, 0, len(channels))
	for _, ch := range channels {
		parts = append(parts, string(ch))
	}
	return strings.Join(parts, ",")
}

// SplitChannels parses a comma-delimited channel column.
func SplitChannels(raw string) []NotificationChannel {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	channels := make([]NotificationChannel, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			channels = append(channels, NotificationChannel(trimmed))
		}
	}
	return channels
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	// RecipientID empty means the admin view over all notifications.
	RecipientID string
	Search      string
	Type        *NotificationType
	Status      *NotificationStatus
	Priority    *NotificationPriority
	Channel     *NotificationChannel
	Limit       int
	Offset      int
}

// NotificationStats aggregates read/unread counts.
type NotificationStats struct {
	Total  int                      `json:"total"`
	Unread int                      `json:"unread"`
	Read   int                      `json:"read"`
	ByType map[NotificationType]int `json:"by_type,omitempty"`
}

// NotificationTemplate is a reusable message blueprint. Channels are a
// delimited string and variables a serialized JSON array, as upstream.
type NotificationTemplate struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Channels  string           `db:"channels" json:"channels"`
	Variables []byte           `db:"variables" json:"variables,omitempty"`
	IsActive  bool             `db:"is_active" json:"is_active"`
	CreatedBy string           `db:"created_by" json:"created_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// PredefinedTemplate is a built-in catalog entry shipped with the app.
type PredefinedTemplate struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Title       string                `json:"title"`
	Message     string                `json:"message"`
	Type        NotificationType      `json:"type"`
	Channels    []NotificationChannel `json:"channels"`
	Variables   []string              `json:"variables"`
}
