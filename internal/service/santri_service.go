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

type santriRepository interface {
	List(ctx context.Context, filter models.SantriFilter) ([]models.SantriDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SantriDetail, error)
	ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error)
	Create(ctx context.Context, santri *models.Santri) error
	Update(ctx context.Context, santri *models.Santri) error
	UpdateStatus(ctx context.Context, id string, status models.SantriStatus) error
	CountByHalaqah(ctx context.Context, halaqahID string) (int, error)
}

type santriHalaqahRepository interface {
	FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error)
}

type santriUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateSantriRequest holds payload for registering santri.
type CreateSantriRequest struct {
	NIS       string    `json:"nis" validate:"required"`
	FullName  string    `json:"full_name" validate:"required"`
	Gender    string    `json:"gender" validate:"required,oneof=M F"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Address   string    `json:"address"`
	WaliID    string    `json:"wali_id" validate:"required"`
	HalaqahID *string   `json:"halaqah_id"`
}

// UpdateSantriRequest holds payload for updating santri.
type UpdateSantriRequest struct {
	NIS       string              `json:"nis" validate:"required"`
	FullName  string              `json:"full_name" validate:"required"`
	Gender    string              `json:"gender" validate:"required,oneof=M F"`
	BirthDate time.Time           `json:"birth_date" validate:"required"`
	Address   string              `json:"address"`
	Status    models.SantriStatus `json:"status" validate:"required"`
	WaliID    string              `json:"wali_id" validate:"required"`
	HalaqahID *string             `json:"halaqah_id"`
}

// SantriService handles santri use-cases.
type SantriService struct {
	repo        santriRepository
	halaqahRepo santriHalaqahRepository
	userRepo    santriUserRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSantriService constructs the santri service.
func NewSantriService(repo santriRepository, halaqahRepo santriHalaqahRepository, userRepo santriUserRepository, validate *validator.Validate, logger *zap.Logger) *SantriService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SantriService{repo: repo, halaqahRepo: halaqahRepo, userRepo: userRepo, validator: validate, logger: logger}
}

// List returns santri visible to the caller with pagination metadata.
func (s *SantriService) List(ctx context.Context, claims *models.JWTClaims, filter models.SantriFilter) ([]models.SantriDetail, *models.Pagination, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, nil, err
	}
	filter.MusyrifID = scope.MusyrifID

	santri, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list santri")
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
	return santri, pagination, nil
}

// Get returns detailed santri information within the caller's scope.
func (s *SantriService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.SantriDetail, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	santri, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "santri not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	if scope.MusyrifID != "" {
		if err := s.verifyHalaqahOwnership(ctx, santri.HalaqahID, scope.MusyrifID); err != nil {
			return nil, err
		}
	}
	return santri, nil
}

// Create registers a new santri.
func (s *SantriService) Create(ctx context.Context, req CreateSantriRequest) (*models.Santri, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid santri payload")
	}
	exists, err := s.repo.ExistsByNIS(ctx, req.NIS, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nis")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "NIS sudah digunakan")
	}
	if err := s.verifyReferences(ctx, req.WaliID, req.HalaqahID); err != nil {
		return nil, err
	}

	santri := &models.Santri{
		NIS:       req.NIS,
		FullName:  req.FullName,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
		Address:   req.Address,
		Status:    models.SantriStatusActive,
		WaliID:    req.WaliID,
		HalaqahID: req.HalaqahID,
	}
	if err := s.repo.Create(ctx, santri); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create santri")
	}
	return santri, nil
}

// Update modifies an existing santri record.
func (s *SantriService) Update(ctx context.Context, id string, req UpdateSantriRequest) (*models.Santri, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid santri payload")
	}
	if !models.ValidSantriStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid santri status")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "santri not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	exists, err := s.repo.ExistsByNIS(ctx, req.NIS, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nis")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "NIS sudah digunakan")
	}
	if err := s.verifyReferences(ctx, req.WaliID, req.HalaqahID); err != nil {
		return nil, err
	}

	santri := detail.Santri
	santri.NIS = req.NIS
	santri.FullName = req.FullName
	santri.Gender = req.Gender
	santri.BirthDate = req.BirthDate
	santri.Address = req.Address
	santri.Status = req.Status
	santri.WaliID = req.WaliID
	santri.HalaqahID = req.HalaqahID
	if err := s.repo.Update(ctx, &santri); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update santri")
	}
	return &santri, nil
}

// Deactivate marks a santri inactive instead of removing the record.
func (s *SantriService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "santri not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.SantriStatusInactive); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate santri")
	}
	return nil
}

func (s *SantriService) verifyReferences(ctx context.Context, waliID string, halaqahID *string) error {
	wali, err := s.userRepo.FindByID(ctx, waliID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrBadReference, "Wali tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wali")
	}
	if wali.Role != models.RoleWali {
		return appErrors.Clone(appErrors.ErrBadReference, "Wali tidak ditemukan")
	}
	if halaqahID != nil && *halaqahID != "" {
		halaqah, err := s.halaqahRepo.FindByID(ctx, *halaqahID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrBadReference, "Halaqah tidak ditemukan")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
		}
		if halaqah.Capacity > 0 && halaqah.SantriCount >= halaqah.Capacity {
			return appErrors.Clone(appErrors.ErrConflict, "Halaqah sudah penuh")
		}
	}
	return nil
}

func (s *SantriService) verifyHalaqahOwnership(ctx context.Context, halaqahID *string, musyrifID string) error {
	if halaqahID == nil || *halaqahID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
	}
	halaqah, err := s.halaqahRepo.FindByID(ctx, *halaqahID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
	}
	if halaqah.MusyrifID != musyrifID {
		return appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
	}
	return nil
}
