package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type behaviorRepository interface {
	List(ctx context.Context, filter models.BehaviorNoteFilter) ([]models.BehaviorNote, int, error)
	FindByID(ctx context.Context, id string) (*models.BehaviorNote, error)
	Create(ctx context.Context, note *models.BehaviorNote) error
	Update(ctx context.Context, note *models.BehaviorNote) error
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, santriID string) (*models.BehaviorSummary, error)
}

type behaviorSantriRepository interface {
	FindByID(ctx context.Context, id string) (*models.SantriDetail, error)
}

// CreateBehaviorNoteRequest holds payload for recording a note.
type CreateBehaviorNoteRequest struct {
	SantriID    string                  `json:"santri_id" validate:"required"`
	NoteDate    time.Time               `json:"date" validate:"required"`
	NoteType    models.BehaviorNoteType `json:"note_type" validate:"required,oneof=+ - 0"`
	Points      int                     `json:"points"`
	Description string                  `json:"description" validate:"required"`
}

// UpdateBehaviorNoteRequest holds payload for editing a note.
type UpdateBehaviorNoteRequest struct {
	NoteDate    time.Time               `json:"date" validate:"required"`
	NoteType    models.BehaviorNoteType `json:"note_type" validate:"required,oneof=+ - 0"`
	Points      int                     `json:"points"`
	Description string                  `json:"description" validate:"required"`
}

// BehaviorService handles behaviour assessment use-cases.
type BehaviorService struct {
	repo       behaviorRepository
	santriRepo behaviorSantriRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBehaviorService constructs the behavior service.
func NewBehaviorService(repo behaviorRepository, santriRepo behaviorSantriRepository, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorService{repo: repo, santriRepo: santriRepo, validator: validate, logger: logger}
}

// List returns behavior notes matching the filter.
func (s *BehaviorService) List(ctx context.Context, filter models.BehaviorNoteFilter) ([]models.BehaviorNote, *models.Pagination, error) {
	notes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behavior notes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return notes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create records a behavior note for a santri.
func (s *BehaviorService) Create(ctx context.Context, createdBy string, req CreateBehaviorNoteRequest) (*models.BehaviorNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid behavior note payload")
	}
	if _, err := s.santriRepo.FindByID(ctx, req.SantriID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadReference, "Santri tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}

	note := &models.BehaviorNote{
		SantriID:    req.SantriID,
		NoteDate:    req.NoteDate,
		NoteType:    req.NoteType,
		Points:      req.Points,
		Description: req.Description,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create behavior note")
	}
	return note, nil
}

// Update edits an existing behavior note.
func (s *BehaviorService) Update(ctx context.Context, id string, req UpdateBehaviorNoteRequest) (*models.BehaviorNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid behavior note payload")
	}
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior note")
	}
	note.NoteDate = req.NoteDate
	note.NoteType = req.NoteType
	note.Points = req.Points
	note.Description = req.Description
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update behavior note")
	}
	return note, nil
}

// Delete removes a behavior note.
func (s *BehaviorService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "behavior note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior note")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete behavior note")
	}
	return nil
}

// Summary aggregates points for one santri.
func (s *BehaviorService) Summary(ctx context.Context, santriID string) (*models.BehaviorSummary, error) {
	if _, err := s.santriRepo.FindByID(ctx, santriID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "santri not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	summary, err := s.repo.Summary(ctx, santriID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior summary")
	}
	return summary, nil
}
