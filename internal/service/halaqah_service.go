package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type halaqahRepository interface {
	List(ctx context.Context, filter models.HalaqahFilter) ([]models.HalaqahDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error
	Update(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error
	Delete(ctx context.Context, id string) error
}

type halaqahUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ScheduleRequest is one weekly meeting slot in a halaqah payload.
type ScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Room      string `json:"room"`
}

// CreateHalaqahRequest holds payload for creating a halaqah.
type CreateHalaqahRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Level       string            `json:"level" validate:"required"`
	Capacity    int               `json:"capacity" validate:"min=1"`
	MusyrifID   string            `json:"musyrif_id" validate:"required"`
	Schedules   []ScheduleRequest `json:"schedules" validate:"dive"`
}

// UpdateHalaqahRequest holds payload for updating a halaqah.
type UpdateHalaqahRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Level       string            `json:"level" validate:"required"`
	Capacity    int               `json:"capacity" validate:"min=1"`
	MusyrifID   string            `json:"musyrif_id" validate:"required"`
	Schedules   []ScheduleRequest `json:"schedules" validate:"dive"`
}

// HalaqahService handles study-circle use-cases.
type HalaqahService struct {
	repo      halaqahRepository
	userRepo  halaqahUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHalaqahService constructs the halaqah service.
func NewHalaqahService(repo halaqahRepository, userRepo halaqahUserRepository, validate *validator.Validate, logger *zap.Logger) *HalaqahService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HalaqahService{repo: repo, userRepo: userRepo, validator: validate, logger: logger}
}

// List returns halaqah visible to the caller with pagination metadata.
func (s *HalaqahService) List(ctx context.Context, claims *models.JWTClaims, filter models.HalaqahFilter) ([]models.HalaqahDetail, *models.Pagination, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, nil, err
	}
	// MUSYRIF callers are pinned to their own halaqah; ADMIN may pass a
	// musyrifId filter through.
	if scope.MusyrifID != "" {
		filter.MusyrifID = scope.MusyrifID
	}

	halaqah, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list halaqah")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return halaqah, pagination, nil
}

// Get returns a halaqah with schedules, scoped to the caller.
func (s *HalaqahService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.HalaqahDetail, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	halaqah, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "halaqah not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
	}
	if scope.MusyrifID != "" && halaqah.MusyrifID != scope.MusyrifID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "halaqah is outside your scope")
	}
	return halaqah, nil
}

// Create registers a halaqah and its schedules atomically.
func (s *HalaqahService) Create(ctx context.Context, req CreateHalaqahRequest) (*models.HalaqahDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid halaqah payload")
	}
	if err := s.verifyMusyrif(ctx, req.MusyrifID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Nama halaqah sudah digunakan")
	}

	halaqah := &models.Halaqah{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Capacity:    req.Capacity,
		MusyrifID:   req.MusyrifID,
	}
	schedules := buildSchedules(req.Schedules)
	if err := s.repo.Create(ctx, halaqah, schedules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create halaqah")
	}
	return &models.HalaqahDetail{Halaqah: *halaqah, Schedules: schedules}, nil
}

// Update modifies a halaqah and replaces its schedules.
func (s *HalaqahService) Update(ctx context.Context, id string, req UpdateHalaqahRequest) (*models.HalaqahDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid halaqah payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "halaqah not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
	}
	if err := s.verifyMusyrif(ctx, req.MusyrifID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Nama halaqah sudah digunakan")
	}

	halaqah := detail.Halaqah
	halaqah.Name = req.Name
	halaqah.Description = req.Description
	halaqah.Level = req.Level
	halaqah.Capacity = req.Capacity
	halaqah.MusyrifID = req.MusyrifID
	schedules := buildSchedules(req.Schedules)
	if err := s.repo.Update(ctx, &halaqah, schedules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update halaqah")
	}
	return &models.HalaqahDetail{Halaqah: halaqah, Schedules: schedules}, nil
}

// Delete removes a halaqah, detaching its santri first.
func (s *HalaqahService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "halaqah not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete halaqah")
	}
	return nil
}

func (s *HalaqahService) verifyMusyrif(ctx context.Context, musyrifID string) error {
	user, err := s.userRepo.FindByID(ctx, musyrifID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrBadReference, "Musyrif tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load musyrif")
	}
	if user.Role != models.RoleMusyrif {
		return appErrors.Clone(appErrors.ErrBadReference, "Musyrif tidak ditemukan")
	}
	return nil
}

func buildSchedules(reqs []ScheduleRequest) []models.HalaqahSchedule {
	schedules := make([]models.HalaqahSchedule, 0, len(reqs))
	for _, r := range reqs {
		schedules = append(schedules, models.HalaqahSchedule{
			DayOfWeek: r.DayOfWeek,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Room:      r.Room,
		})
	}
	return schedules
}
