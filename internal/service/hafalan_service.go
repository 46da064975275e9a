package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type hafalanRepository interface {
	List(ctx context.Context, filter models.HafalanFilter) ([]models.HafalanDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.HafalanDetail, error)
	Create(ctx context.Context, hafalan *models.Hafalan) error
	Review(ctx context.Context, id string, status models.HafalanStatus, grade *int, notes string, reviewedAt time.Time) (bool, error)
	UpdateAudioPath(ctx context.Context, id, path string) error
	ProgressBySantri(ctx context.Context, santriID string) (*models.HafalanProgress, error)
}

type hafalanSantriRepository interface {
	FindByID(ctx context.Context, id string) (*models.SantriDetail, error)
}

type hafalanHalaqahRepository interface {
	FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error)
}

type hafalanAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type audioStore interface {
	SaveStream(relPath string, r io.Reader, maxSize int64) (int64, error)
}

type audioSigner interface {
	Generate(recordID, relPath string) (string, error)
}

type hafalanNotifier interface {
	NotifyHafalanReviewed(ctx context.Context, hafalan *models.HafalanDetail, outcome models.HafalanStatus)
}

// SubmitHafalanRequest holds payload for recording a submission.
type SubmitHafalanRequest struct {
	SantriID  string             `json:"santri_id" validate:"required"`
	SurahID   int                `json:"surah_id" validate:"required,min=1,max=114"`
	AyahStart int                `json:"ayah_start" validate:"required,min=1"`
	AyahEnd   int                `json:"ayah_end" validate:"required,min=1"`
	Type      models.HafalanType `json:"type" validate:"required"`
	Notes     string             `json:"notes"`
}

// ReviewHafalanRequest holds payload for the review decision.
type ReviewHafalanRequest struct {
	Status models.HafalanStatus `json:"status" validate:"required"`
	Grade  *int                 `json:"grade"`
	Notes  string               `json:"notes"`
}

// HafalanService handles the memorization submission workflow.
type HafalanService struct {
	repo        hafalanRepository
	santriRepo  hafalanSantriRepository
	halaqahRepo hafalanHalaqahRepository
	auditRepo   hafalanAuditRepository
	store       audioStore
	signer      audioSigner
	notifier    hafalanNotifier
	maxAudio    int64
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewHafalanService constructs the hafalan service.
func NewHafalanService(repo hafalanRepository, santriRepo hafalanSantriRepository, halaqahRepo hafalanHalaqahRepository, auditRepo hafalanAuditRepository, store audioStore, signer audioSigner, notifier hafalanNotifier, maxAudio int64, validate *validator.Validate, logger *zap.Logger) *HafalanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HafalanService{
		repo:        repo,
		santriRepo:  santriRepo,
		halaqahRepo: halaqahRepo,
		auditRepo:   auditRepo,
		store:       store,
		signer:      signer,
		notifier:    notifier,
		maxAudio:    maxAudio,
		validator:   validate,
		logger:      logger,
	}
}

// List returns submissions visible to the caller.
func (s *HafalanService) List(ctx context.Context, claims *models.JWTClaims, filter models.HafalanFilter) ([]models.HafalanDetail, *models.Pagination, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, nil, err
	}
	filter.MusyrifID = scope.MusyrifID

	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hafalan")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return submissions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one submission within the caller's scope.
func (s *HafalanService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.HafalanDetail, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hafalan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hafalan")
	}
	if scope.MusyrifID != "" && detail.MusyrifID != scope.MusyrifID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "hafalan is outside your halaqah")
	}
	return detail, nil
}

// Submit records a new submission in the PENDING state. The musyrif is
// derived from the santri's halaqah, never taken from the payload.
func (s *HafalanService) Submit(ctx context.Context, claims *models.JWTClaims, req SubmitHafalanRequest) (*models.Hafalan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hafalan payload")
	}
	if !models.ValidHafalanType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid hafalan type")
	}
	if req.AyahEnd < req.AyahStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ayah_end must not precede ayah_start")
	}

	santri, err := s.santriRepo.FindByID(ctx, req.SantriID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadReference, "Santri tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	if santri.HalaqahID == nil || *santri.HalaqahID == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "santri has no halaqah")
	}
	halaqah, err := s.halaqahRepo.FindByID(ctx, *santri.HalaqahID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadReference, "Halaqah tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halaqah")
	}

	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	if scope.MusyrifID != "" && halaqah.MusyrifID != scope.MusyrifID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
	}

	hafalan := &models.Hafalan{
		SantriID:  req.SantriID,
		MusyrifID: halaqah.MusyrifID,
		SurahID:   req.SurahID,
		AyahStart: req.AyahStart,
		AyahEnd:   req.AyahEnd,
		Type:      req.Type,
		Status:    models.HafalanStatusPending,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, hafalan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hafalan")
	}
	return hafalan, nil
}

// Review applies a terminal outcome to a PENDING submission. Reviews of
// non-pending submissions are refused, not overwritten.
func (s *HafalanService) Review(ctx context.Context, claims *models.JWTClaims, id string, req ReviewHafalanRequest) (*models.HafalanDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if !models.ValidReviewStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid review status")
	}
	// Every review outcome carries a grade, not just approvals.
	if req.Grade == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade is required for review")
	}
	if *req.Grade < 0 || *req.Grade > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be between 0 and 100")
	}

	detail, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.HafalanStatusPending {
		return nil, appErrors.Clone(appErrors.ErrReviewed, "hafalan sudah direview")
	}

	reviewedAt := time.Now().UTC()
	applied, err := s.repo.Review(ctx, id, req.Status, req.Grade, req.Notes, reviewedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review hafalan")
	}
	if !applied {
		// A concurrent reviewer won the status guard.
		return nil, appErrors.Clone(appErrors.ErrReviewed, "hafalan sudah direview")
	}

	if s.auditRepo != nil {
		reviewerID := claims.UserID
		if err := s.auditRepo.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &reviewerID,
			Action:     models.AuditActionReview,
			Resource:   "hafalan",
			ResourceID: &id,
			NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, req.Status)),
		}); err != nil {
			s.logger.Warn("failed to record review audit log", zap.Error(err))
		}
	}

	detail.Status = req.Status
	detail.Grade = req.Grade
	detail.Notes = req.Notes
	detail.ReviewedAt = &reviewedAt

	if s.notifier != nil {
		s.notifier.NotifyHafalanReviewed(ctx, detail, req.Status)
	}
	return detail, nil
}

// AttachAudio stores a recitation recording for a submission and keeps
// the relative path on the record.
func (s *HafalanService) AttachAudio(ctx context.Context, claims *models.JWTClaims, id string, r io.Reader) (string, error) {
	detail, err := s.Get(ctx, claims, id)
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "audio storage is not configured")
	}

	relPath := fmt.Sprintf("hafalan/%s/%s.ogg", detail.SantriID, detail.ID)
	if _, err := s.store.SaveStream(relPath, r, s.maxAudio); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store audio")
	}
	if err := s.repo.UpdateAudioPath(ctx, id, relPath); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audio path")
	}
	return relPath, nil
}

// AudioURL returns a signed, expiring URL for the stored recording.
func (s *HafalanService) AudioURL(ctx context.Context, claims *models.JWTClaims, id string) (string, error) {
	detail, err := s.Get(ctx, claims, id)
	if err != nil {
		return "", err
	}
	if detail.AudioPath == nil || *detail.AudioPath == "" {
		return "", appErrors.Clone(appErrors.ErrNotFound, "no audio attached")
	}
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "audio signing is not configured")
	}
	token, err := s.signer.Generate(detail.ID, *detail.AudioPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign audio url")
	}
	return token, nil
}

// Progress aggregates the memorization record of one santri.
func (s *HafalanService) Progress(ctx context.Context, claims *models.JWTClaims, santriID string) (*models.HafalanProgress, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	santri, err := s.santriRepo.FindByID(ctx, santriID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "santri not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load santri")
	}
	if scope.MusyrifID != "" {
		if santri.HalaqahID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
		}
		halaqah, err := s.halaqahRepo.FindByID(ctx, *santri.HalaqahID)
		if err != nil || halaqah.MusyrifID != scope.MusyrifID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "santri is outside your halaqah")
		}
	}
	progress, err := s.repo.ProgressBySantri(ctx, santriID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	return progress, nil
}
