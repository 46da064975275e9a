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

// HalaqahRepository manages persistence for halaqah and their schedules.
type HalaqahRepository struct {
	db *sqlx.DB
}

// NewHalaqahRepository constructs a HalaqahRepository.
func NewHalaqahRepository(db *sqlx.DB) *HalaqahRepository {
	return &HalaqahRepository{db: db}
}

// List returns halaqah matching the resolved filter with santri counts.
func (r *HalaqahRepository) List(ctx context.Context, filter models.HalaqahFilter) ([]models.HalaqahDetail, int, error) {
	base := "FROM halaqah h LEFT JOIN users m ON m.id = h.musyrif_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.MusyrifID != "" {
		conditions = append(conditions, fmt.Sprintf("h.musyrif_id = $%d", len(args)+1))
		args = append(args, filter.MusyrifID)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("h.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(h.name) LIKE $%d OR LOWER(h.description) LIKE $%d)", n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT h.id, h.name, h.description, h.level, h.capacity, h.musyrif_id, h.created_at, h.updated_at,
        m.full_name AS musyrif_name,
        (SELECT COUNT(*) FROM santri s WHERE s.halaqah_id = h.id AND s.status = 'ACTIVE') AS santri_count
        %s ORDER BY h.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var halaqah []models.HalaqahDetail
	if err := r.db.SelectContext(ctx, &halaqah, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list halaqah: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count halaqah: %w", err)
	}
	return halaqah, total, nil
}

// FindByID fetches a halaqah detail with its schedules.
func (r *HalaqahRepository) FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error) {
	const query = `SELECT h.id, h.name, h.description, h.level, h.capacity, h.musyrif_id, h.created_at, h.updated_at,
        m.full_name AS musyrif_name,
        (SELECT COUNT(*) FROM santri s WHERE s.halaqah_id = h.id AND s.status = 'ACTIVE') AS santri_count
        FROM halaqah h
        LEFT JOIN users m ON m.id = h.musyrif_id
        WHERE h.id = $1`
	var detail models.HalaqahDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	schedules, err := r.ListSchedules(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Schedules = schedules
	return &detail, nil
}

// ExistsByName checks if a halaqah with the given name exists optionally excluding an ID.
func (r *HalaqahRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM halaqah WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check halaqah name: %w", err)
	}
	return true, nil
}

// ListSchedules returns the weekly slots of a halaqah ordered by day.
func (r *HalaqahRepository) ListSchedules(ctx context.Context, halaqahID string) ([]models.HalaqahSchedule, error) {
	const query = `SELECT id, halaqah_id, day_of_week, start_time, end_time, room FROM halaqah_schedules WHERE halaqah_id = $1 ORDER BY day_of_week, start_time`
	var schedules []models.HalaqahSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, halaqahID); err != nil {
		return nil, fmt.Errorf("list halaqah schedules: %w", err)
	}
	return schedules, nil
}

// Create inserts a halaqah and its schedules in one transaction.
func (r *HalaqahRepository) Create(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) (err error) {
	if halaqah.ID == "" {
		halaqah.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if halaqah.CreatedAt.IsZero() {
		halaqah.CreatedAt = now
	}
	halaqah.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create halaqah: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertHalaqah = `INSERT INTO halaqah (id, name, description, level, capacity, musyrif_id, created_at, updated_at)
        VALUES (:id, :name, :description, :level, :capacity, :musyrif_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertHalaqah, halaqah); err != nil {
		return fmt.Errorf("create halaqah: %w", err)
	}

	const insertSchedule = `INSERT INTO halaqah_schedules (id, halaqah_id, day_of_week, start_time, end_time, room)
        VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range schedules {
		if schedules[i].ID == "" {
			schedules[i].ID = uuid.NewString()
		}
		schedules[i].HalaqahID = halaqah.ID
		if _, err = tx.ExecContext(ctx, insertSchedule, schedules[i].ID, schedules[i].HalaqahID, schedules[i].DayOfWeek, schedules[i].StartTime, schedules[i].EndTime, schedules[i].Room); err != nil {
			return fmt.Errorf("create halaqah schedule: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create halaqah: %w", err)
	}
	return nil
}

// Update modifies a halaqah and replaces its schedules in one transaction.
func (r *HalaqahRepository) Update(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) (err error) {
	halaqah.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update halaqah: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateHalaqah = `UPDATE halaqah SET name = :name, description = :description, level = :level, capacity = :capacity, musyrif_id = :musyrif_id, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateHalaqah, halaqah); err != nil {
		return fmt.Errorf("update halaqah: %w", err)
	}

	if schedules != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM halaqah_schedules WHERE halaqah_id = $1`, halaqah.ID); err != nil {
			return fmt.Errorf("clear halaqah schedules: %w", err)
		}
		const insertSchedule = `INSERT INTO halaqah_schedules (id, halaqah_id, day_of_week, start_time, end_time, room)
            VALUES ($1, $2, $3, $4, $5, $6)`
		for i := range schedules {
			if schedules[i].ID == "" {
				schedules[i].ID = uuid.NewString()
			}
			schedules[i].HalaqahID = halaqah.ID
			if _, err = tx.ExecContext(ctx, insertSchedule, schedules[i].ID, schedules[i].HalaqahID, schedules[i].DayOfWeek, schedules[i].StartTime, schedules[i].EndTime, schedules[i].Room); err != nil {
				return fmt.Errorf("replace halaqah schedule: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update halaqah: %w", err)
	}
	return nil
}

// Delete removes a halaqah after detaching its santri.
func (r *HalaqahRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete halaqah: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE santri SET halaqah_id = NULL, updated_at = $2 WHERE halaqah_id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("detach santri: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM halaqah_schedules WHERE halaqah_id = $1`, id); err != nil {
		return fmt.Errorf("delete halaqah schedules: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM halaqah WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete halaqah: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete halaqah: %w", err)
	}
	return nil
}
