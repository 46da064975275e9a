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

// SantriRepository manages persistence for santri records.
type SantriRepository struct {
	db *sqlx.DB
}

// NewSantriRepository constructs a SantriRepository.
func NewSantriRepository(db *sqlx.DB) *SantriRepository {
	return &SantriRepository{db: db}
}

// List returns santri matching the resolved filter. When MusyrifID is
// set the join restricts rows to halaqah owned by that musyrif.
func (r *SantriRepository) List(ctx context.Context, filter models.SantriFilter) ([]models.SantriDetail, int, error) {
	base := "FROM santri s LEFT JOIN halaqah h ON h.id = s.halaqah_id LEFT JOIN users w ON w.id = s.wali_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.MusyrifID != "" {
		conditions = append(conditions, fmt.Sprintf("h.musyrif_id = $%d", len(args)+1))
		args = append(args, filter.MusyrifID)
	}
	if filter.HalaqahID != "" {
		conditions = append(conditions, fmt.Sprintf("s.halaqah_id = $%d", len(args)+1))
		args = append(args, filter.HalaqahID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.nis) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"nis":        "s.nis",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT s.id, s.nis, s.full_name, s.gender, s.birth_date, s.address, s.status, s.wali_id, s.halaqah_id, s.created_at, s.updated_at,
        h.name AS halaqah_name, w.full_name AS wali_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var santri []models.SantriDetail
	if err := r.db.SelectContext(ctx, &santri, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list santri: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count santri: %w", err)
	}
	return santri, total, nil
}

// FindByID fetches a santri detail by ID.
func (r *SantriRepository) FindByID(ctx context.Context, id string) (*models.SantriDetail, error) {
	const query = `SELECT s.id, s.nis, s.full_name, s.gender, s.birth_date, s.address, s.status, s.wali_id, s.halaqah_id, s.created_at, s.updated_at,
        h.name AS halaqah_name, w.full_name AS wali_name
        FROM santri s
        LEFT JOIN halaqah h ON h.id = s.halaqah_id
        LEFT JOIN users w ON w.id = s.wali_id
        WHERE s.id = $1`
	var detail models.SantriDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByNIS checks if a santri with the given NIS exists optionally excluding an ID.
func (r *SantriRepository) ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM santri WHERE nis = $1"
	args := []interface{}{nis}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check nis: %w", err)
	}
	return true, nil
}

// Create inserts a new santri record.
func (r *SantriRepository) Create(ctx context.Context, santri *models.Santri) error {
	if santri.ID == "" {
		santri.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if santri.CreatedAt.IsZero() {
		santri.CreatedAt = now
	}
	santri.UpdatedAt = now
	const query = `INSERT INTO santri (id, nis, full_name, gender, birth_date, address, status, wali_id, halaqah_id, created_at, updated_at)
        VALUES (:id, :nis, :full_name, :gender, :birth_date, :address, :status, :wali_id, :halaqah_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, santri); err != nil {
		return fmt.Errorf("create santri: %w", err)
	}
	return nil
}

// Update modifies an existing santri.
func (r *SantriRepository) Update(ctx context.Context, santri *models.Santri) error {
	santri.UpdatedAt = time.Now().UTC()
	const query = `UPDATE santri SET nis = :nis, full_name = :full_name, gender = :gender, birth_date = :birth_date, address = :address, status = :status, wali_id = :wali_id, halaqah_id = :halaqah_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, santri); err != nil {
		return fmt.Errorf("update santri: %w", err)
	}
	return nil
}

// UpdateStatus transitions a santri to a new enrollment state.
func (r *SantriRepository) UpdateStatus(ctx context.Context, id string, status models.SantriStatus) error {
	const query = `UPDATE santri SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update santri status: %w", err)
	}
	return nil
}

// CountByHalaqah returns the number of active santri in a halaqah.
func (r *SantriRepository) CountByHalaqah(ctx context.Context, halaqahID string) (int, error) {
	const query = `SELECT COUNT(*) FROM santri WHERE halaqah_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, halaqahID, models.SantriStatusActive); err != nil {
		return 0, fmt.Errorf("count santri by halaqah: %w", err)
	}
	return count, nil
}
