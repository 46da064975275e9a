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

// HafalanRepository manages persistence for memorization submissions.
type HafalanRepository struct {
	db *sqlx.DB
}

// NewHafalanRepository constructs a HafalanRepository.
func NewHafalanRepository(db *sqlx.DB) *HafalanRepository {
	return &HafalanRepository{db: db}
}

// List returns submissions matching the resolved filter.
func (r *HafalanRepository) List(ctx context.Context, filter models.HafalanFilter) ([]models.HafalanDetail, int, error) {
	base := "FROM hafalan hf LEFT JOIN santri s ON s.id = hf.santri_id LEFT JOIN users m ON m.id = hf.musyrif_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.MusyrifID != "" {
		conditions = append(conditions, fmt.Sprintf("hf.musyrif_id = $%d", len(args)+1))
		args = append(args, filter.MusyrifID)
	}
	if filter.SantriID != "" {
		conditions = append(conditions, fmt.Sprintf("hf.santri_id = $%d", len(args)+1))
		args = append(args, filter.SantriID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("hf.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("hf.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
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

	query := fmt.Sprintf(`SELECT hf.id, hf.santri_id, hf.musyrif_id, hf.surah_id, hf.ayah_start, hf.ayah_end, hf.type, hf.status, hf.grade, hf.notes, hf.audio_path, hf.reviewed_at, hf.created_at, hf.updated_at,
        s.full_name AS santri_name, m.full_name AS musyrif_name
        %s ORDER BY hf.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var submissions []models.HafalanDetail
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list hafalan: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count hafalan: %w", err)
	}
	return submissions, total, nil
}

// FindByID fetches a submission detail by ID.
func (r *HafalanRepository) FindByID(ctx context.Context, id string) (*models.HafalanDetail, error) {
	const query = `SELECT hf.id, hf.santri_id, hf.musyrif_id, hf.surah_id, hf.ayah_start, hf.ayah_end, hf.type, hf.status, hf.grade, hf.notes, hf.audio_path, hf.reviewed_at, hf.created_at, hf.updated_at,
        s.full_name AS santri_name, m.full_name AS musyrif_name
        FROM hafalan hf
        LEFT JOIN santri s ON s.id = hf.santri_id
        LEFT JOIN users m ON m.id = hf.musyrif_id
        WHERE hf.id = $1`
	var detail models.HafalanDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new submission in the PENDING state.
func (r *HafalanRepository) Create(ctx context.Context, hafalan *models.Hafalan) error {
	if hafalan.ID == "" {
		hafalan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hafalan.CreatedAt.IsZero() {
		hafalan.CreatedAt = now
	}
	hafalan.UpdatedAt = now
	const query = `INSERT INTO hafalan (id, santri_id, musyrif_id, surah_id, ayah_start, ayah_end, type, status, grade, notes, audio_path, reviewed_at, created_at, updated_at)
        VALUES (:id, :santri_id, :musyrif_id, :surah_id, :ayah_start, :ayah_end, :type, :status, :grade, :notes, :audio_path, :reviewed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hafalan); err != nil {
		return fmt.Errorf("create hafalan: %w", err)
	}
	return nil
}

// Review moves a PENDING submission to a terminal outcome. The status
// guard in the WHERE clause makes concurrent reviews lose cleanly: the
// second reviewer matches zero rows.
func (r *HafalanRepository) Review(ctx context.Context, id string, status models.HafalanStatus, grade *int, notes string, reviewedAt time.Time) (bool, error) {
	const query = `UPDATE hafalan SET status = $2, grade = $3, notes = $4, reviewed_at = $5, updated_at = $5 WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, status, grade, notes, reviewedAt, models.HafalanStatusPending)
	if err != nil {
		return false, fmt.Errorf("review hafalan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("review hafalan rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateAudioPath stores the relative path of an uploaded recitation.
func (r *HafalanRepository) UpdateAudioPath(ctx context.Context, id, path string) error {
	const query = `UPDATE hafalan SET audio_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("update hafalan audio: %w", err)
	}
	return nil
}

// ProgressBySantri aggregates approved submissions per santri.
func (r *HafalanRepository) ProgressBySantri(ctx context.Context, santriID string) (*models.HafalanProgress, error) {
	const query = `SELECT
        COUNT(*) AS total_submissions,
        COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
        COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
        COUNT(DISTINCT surah_id) FILTER (WHERE status = 'APPROVED') AS surah_covered,
        COALESCE(AVG(grade) FILTER (WHERE grade IS NOT NULL), 0) AS average_grade
        FROM hafalan WHERE santri_id = $1`
	var progress models.HafalanProgress
	if err := r.db.GetContext(ctx, &progress, query, santriID); err != nil {
		return nil, fmt.Errorf("hafalan progress: %w", err)
	}
	progress.SantriID = santriID
	return &progress, nil
}
