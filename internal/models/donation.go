package models

import "time"

// DonationStatus tracks payment progress of a donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusPaid      DonationStatus = "PAID"
	DonationStatusCancelled DonationStatus = "CANCELLED"
)

// ValidDonationStatus reports whether the value is enumerated.
func ValidDonationStatus(s DonationStatus) bool {
	switch s {
	case DonationStatusPending, DonationStatusPaid, DonationStatusCancelled:
		return true
	}
	return false
}

// DonationMethod describes how the donor pays.
type DonationMethod string

const (
	DonationMethodCash     DonationMethod = "CASH"
	DonationMethodTransfer DonationMethod = "TRANSFER"
	DonationMethodOnline   DonationMethod = "ONLINE"
)

// Donation is a pledge made via the public form or entered by an admin.
type Donation struct {
	ID          string         `db:"id" json:"id"`
	DonorName   string         `db:"donor_name" json:"donor_name"`
	DonorEmail  string         `db:"donor_email" json:"donor_email"`
	Amount      int64          `db:"amount" json:"amount"`
	Type        string         `db:"type" json:"type"`
	Method      DonationMethod `db:"method" json:"method"`
	Status      DonationStatus `db:"status" json:"status"`
	Reference   string         `db:"reference" json:"reference"`
	IsAnonymous bool           `db:"is_anonymous" json:"is_anonymous"`
	PaidAt      *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DonationFilter captures admin listing criteria.
type DonationFilter struct {
	Search   string
	Status   *DonationStatus
	Type     string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// DonationSummary aggregates totals for the admin dashboard and exports.
type DonationSummary struct {
	TotalCount   int   `db:"total_count" json:"total_count"`
	TotalPaid    int64 `db:"total_paid" json:"total_paid"`
	TotalPending int64 `db:"total_pending" json:"total_pending"`
	PaidCount    int   `db:"paid_count" json:"paid_count"`
	PendingCount int   `db:"pending_count" json:"pending_count"`
}

// DonationCheckout is returned when an online donation is created.
type DonationCheckout struct {
	Donation    Donation `json:"donation"`
	SnapToken   string   `json:"snap_token,omitempty"`
	RedirectURL string   `json:"redirect_url,omitempty"`
}
