package models

import "time"

// SantriStatus enumerates the mutually exclusive enrollment states.
type SantriStatus string

const (
	SantriStatusActive     SantriStatus = "ACTIVE"
	SantriStatusInactive   SantriStatus = "INACTIVE"
	SantriStatusGraduated  SantriStatus = "GRADUATED"
	SantriStatusDroppedOut SantriStatus = "DROPPED_OUT"
)

// ValidSantriStatus reports whether the value is one of the enumerated states.
func ValidSantriStatus(s SantriStatus) bool {
	switch s {
	case SantriStatusActive, SantriStatusInactive, SantriStatusGraduated, SantriStatusDroppedOut:
		return true
	}
	return false
}

// Santri represents a student enrolled in the memorization program.
type Santri struct {
	ID        string       `db:"id" json:"id"`
	NIS       string       `db:"nis" json:"nis"`
	FullName  string       `db:"full_name" json:"full_name"`
	Gender    string       `db:"gender" json:"gender"`
	BirthDate time.Time    `db:"birth_date" json:"birth_date"`
	Address   string       `db:"address" json:"address"`
	Status    SantriStatus `db:"status" json:"status"`
	WaliID    string       `db:"wali_id" json:"wali_id"`
	HalaqahID *string      `db:"halaqah_id" json:"halaqah_id,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// SantriFilter encapsulates allowed search parameters for listing santri.
type SantriFilter struct {
	Search    string
	Status    *SantriStatus
	HalaqahID string
	// MusyrifID scopes results to santri whose halaqah belongs to the
	// musyrif. Populated by the role scope, never by the client.
	MusyrifID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SantriDetail contains santri information with halaqah and wali context.
type SantriDetail struct {
	Santri
	HalaqahName *string `db:"halaqah_name" json:"halaqah_name,omitempty"`
	WaliName    *string `db:"wali_name" json:"wali_name,omitempty"`
}
