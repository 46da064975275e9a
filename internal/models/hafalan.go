package models

import "time"

// HafalanType classifies a memorization submission.
type HafalanType string

const (
	HafalanTypeSetoran  HafalanType = "SETORAN"
	HafalanTypeMurajaah HafalanType = "MURAJAAH"
	HafalanTypeTasmi    HafalanType = "TASMI"
)

// ValidHafalanType reports whether the value is one of the enumerated types.
func ValidHafalanType(t HafalanType) bool {
	switch t {
	case HafalanTypeSetoran, HafalanTypeMurajaah, HafalanTypeTasmi:
		return true
	}
	return false
}

// HafalanStatus tracks a submission through the review workflow.
// PENDING is the only non-terminal state: a review moves the record to
// one of the other three and a resubmission creates a new record.
type HafalanStatus string

const (
	HafalanStatusPending          HafalanStatus = "PENDING"
	HafalanStatusApproved         HafalanStatus = "APPROVED"
	HafalanStatusNeedsImprovement HafalanStatus = "NEEDS_IMPROVEMENT"
	HafalanStatusRejected         HafalanStatus = "REJECTED"
)

// ValidReviewStatus reports whether the value is a terminal review outcome.
func ValidReviewStatus(s HafalanStatus) bool {
	switch s {
	case HafalanStatusApproved, HafalanStatusNeedsImprovement, HafalanStatusRejected:
		return true
	}
	return false
}

// Hafalan is a memorization submission awaiting or holding a review.
type Hafalan struct {
	ID         string        `db:"id" json:"id"`
	SantriID   string        `db:"santri_id" json:"santri_id"`
	MusyrifID  string        `db:"musyrif_id" json:"musyrif_id"`
	SurahID    int           `db:"surah_id" json:"surah_id"`
	AyahStart  int           `db:"ayah_start" json:"ayah_start"`
	AyahEnd    int           `db:"ayah_end" json:"ayah_end"`
	Type       HafalanType   `db:"type" json:"type"`
	Status     HafalanStatus `db:"status" json:"status"`
	Grade      *int          `db:"grade" json:"grade,omitempty"`
	Notes      string        `db:"notes" json:"notes"`
	AudioPath  *string       `db:"audio_path" json:"audio_path,omitempty"`
	ReviewedAt *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// HafalanDetail enriches a submission with santri context.
type HafalanDetail struct {
	Hafalan
	SantriName  *string `db:"santri_name" json:"santri_name,omitempty"`
	MusyrifName *string `db:"musyrif_name" json:"musyrif_name,omitempty"`
}

// HafalanProgress summarises a santri's memorization record.
type HafalanProgress struct {
	SantriID         string  `db:"-" json:"santri_id"`
	TotalSubmissions int     `db:"total_submissions" json:"total_submissions"`
	Approved         int     `db:"approved" json:"approved"`
	Pending          int     `db:"pending" json:"pending"`
	SurahCovered     int     `db:"surah_covered" json:"surah_covered"`
	AverageGrade     float64 `db:"average_grade" json:"average_grade"`
}

// HafalanFilter is the resolved query scope for listing submissions.
type HafalanFilter struct {
	SantriID  string
	MusyrifID string
	Status    *HafalanStatus
	Type      *HafalanType
	Page      int
	PageSize  int
}
