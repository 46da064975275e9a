package models

import "time"

// Halaqah is a study circle taught by one musyrif.
type Halaqah struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Level       string    `db:"level" json:"level"`
	Capacity    int       `db:"capacity" json:"capacity"`
	MusyrifID   string    `db:"musyrif_id" json:"musyrif_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// HalaqahSchedule is a weekly meeting slot belonging to a halaqah.
type HalaqahSchedule struct {
	ID        string `db:"id" json:"id"`
	HalaqahID string `db:"halaqah_id" json:"halaqah_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Room      string `db:"room" json:"room"`
}

// HalaqahDetail combines the circle with its musyrif and schedules.
type HalaqahDetail struct {
	Halaqah
	MusyrifName *string           `db:"musyrif_name" json:"musyrif_name,omitempty"`
	SantriCount int               `db:"santri_count" json:"santri_count"`
	Schedules   []HalaqahSchedule `db:"-" json:"schedules,omitempty"`
}

// HalaqahFilter is the fully resolved query scope for listing halaqah.
// It is built by the role scope function, never directly from client input.
type HalaqahFilter struct {
	MusyrifID string
	Level     string
	Search    string
	Page      int
	PageSize  int
}
