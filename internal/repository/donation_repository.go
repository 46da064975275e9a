package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

// DonationRepository manages persistence for donations.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs a DonationRepository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// List returns donations matching the filter with total count.
func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	base := "FROM donations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(donor_name) LIKE $%d OR LOWER(donor_email) LIKE $%d OR LOWER(reference) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf("SELECT id, donor_name, donor_email, amount, type, method, status, reference, is_anonymous, paid_at, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var donations []models.Donation
	if err := r.db.SelectContext(ctx, &donations, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}
	return donations, total, nil
}

// FindByID returns a donation by identifier.
func (r *DonationRepository) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	const query = `SELECT id, donor_name, donor_email, amount, type, method, status, reference, is_anonymous, paid_at, created_at, updated_at FROM donations WHERE id = $1 LIMIT 1`
	var donation models.Donation
	if err := r.db.GetContext(ctx, &donation, query, id); err != nil {
		return nil, err
	}
	return &donation, nil
}

// FindByReference returns a donation by its payment reference.
func (r *DonationRepository) FindByReference(ctx context.Context, reference string) (*models.Donation, error) {
	const query = `SELECT id, donor_name, donor_email, amount, type, method, status, reference, is_anonymous, paid_at, created_at, updated_at FROM donations WHERE reference = $1 LIMIT 1`
	var donation models.Donation
	if err := r.db.GetContext(ctx, &donation, query, reference); err != nil {
		return nil, err
	}
	return &donation, nil
}

// Create inserts a new donation.
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = now
	}
	donation.UpdatedAt = now
	const query = `INSERT INTO donations (id, donor_name, donor_email, amount, type, method, status, reference, is_anonymous, paid_at, created_at, updated_at)
        VALUES (:id, :donor_name, :donor_email, :amount, :type, :method, :status, :reference, :is_anonymous, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, donation); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// UpdateStatus transitions a donation, recording paid_at on PAID.
func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, status models.DonationStatus, paidAt *time.Time) error {
	const query = `UPDATE donations SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, paidAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	return nil
}

// Summary aggregates donation totals grouped by status.
func (r *DonationRepository) Summary(ctx context.Context) (*models.DonationSummary, error) {
	const query = `SELECT
        COUNT(*) AS total_count,
        COALESCE(SUM(amount) FILTER (WHERE status = 'PAID'), 0) AS total_paid,
        COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0) AS total_pending,
        COUNT(*) FILTER (WHERE status = 'PAID') AS paid_count,
        COUNT(*) FILTER (WHERE status = 'PENDING') AS pending_count
        FROM donations`
	var summary models.DonationSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("donation summary: %w", err)
	}
	return &summary, nil
}
