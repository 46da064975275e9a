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

// BehaviorRepository manages persistence for behavior notes.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a BehaviorRepository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// List returns behavior notes matching the filter.
func (r *BehaviorRepository) List(ctx context.Context, filter models.BehaviorNoteFilter) ([]models.BehaviorNote, int, error) {
	base := "FROM behavior_notes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SantriID != "" {
		conditions = append(conditions, fmt.Sprintf("santri_id = $%d", len(args)+1))
		args = append(args, filter.SantriID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(filter.NoteTypes) > 0 {
		placeholders := make([]string, 0, len(filter.NoteTypes))
		for _, nt := range filter.NoteTypes {
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
			args = append(args, nt)
		}
		conditions = append(conditions, fmt.Sprintf("note_type IN (%s)", strings.Join(placeholders, ", ")))
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

	listQuery := fmt.Sprintf("SELECT id, santri_id, date, note_type, points, description, created_by, created_at, updated_at %s ORDER BY date DESC LIMIT %d OFFSET %d", base, size, offset)

	var notes []models.BehaviorNote
	if err := r.db.SelectContext(ctx, &notes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list behavior notes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count behavior notes: %w", err)
	}
	return notes, total, nil
}

// FindByID returns a behavior note by identifier.
func (r *BehaviorRepository) FindByID(ctx context.Context, id string) (*models.BehaviorNote, error) {
	const query = `SELECT id, santri_id, date, note_type, points, description, created_by, created_at, updated_at FROM behavior_notes WHERE id = $1 LIMIT 1`
	var note models.BehaviorNote
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a behavior note.
func (r *BehaviorRepository) Create(ctx context.Context, note *models.BehaviorNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	const query = `INSERT INTO behavior_notes (id, santri_id, date, note_type, points, description, created_by, created_at, updated_at)
        VALUES (:id, :santri_id, :date, :note_type, :points, :description, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create behavior note: %w", err)
	}
	return nil
}

// Update modifies a behavior note.
func (r *BehaviorRepository) Update(ctx context.Context, note *models.BehaviorNote) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE behavior_notes SET date = :date, note_type = :note_type, points = :points, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update behavior note: %w", err)
	}
	return nil
}

// Delete removes a behavior note.
func (r *BehaviorRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM behavior_notes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete behavior note: %w", err)
	}
	return nil
}

// Summary aggregates behavior points for one santri.
func (r *BehaviorRepository) Summary(ctx context.Context, santriID string) (*models.BehaviorSummary, error) {
	const query = `SELECT
        COALESCE(SUM(points), 0) AS total_points,
        COUNT(*) FILTER (WHERE note_type = '+') AS positive_count,
        COUNT(*) FILTER (WHERE note_type = '-') AS negative_count,
        COUNT(*) FILTER (WHERE note_type = '0') AS neutral_count,
        MAX(updated_at) AS last_updated_at
        FROM behavior_notes WHERE santri_id = $1`
	var row struct {
		TotalPoints   int        `db:"total_points"`
		PositiveCount int        `db:"positive_count"`
		NegativeCount int        `db:"negative_count"`
		NeutralCount  int        `db:"neutral_count"`
		LastUpdatedAt *time.Time `db:"last_updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, santriID); err != nil {
		return nil, fmt.Errorf("behavior summary: %w", err)
	}
	return &models.BehaviorSummary{
		SantriID:      santriID,
		TotalPoints:   row.TotalPoints,
		PositiveCount: row.PositiveCount,
		NegativeCount: row.NegativeCount,
		NeutralCount:  row.NeutralCount,
		LastUpdatedAt: row.LastUpdatedAt,
	}, nil
}
