package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

type mockSantriRepo struct {
	santri      map[string]models.Santri
	existsByNIS map[string]string
	lastFilter  models.SantriFilter
	listTotal   int
	counts      map[string]int
}

func (m *mockSantriRepo) List(ctx context.Context, filter models.SantriFilter) ([]models.SantriDetail, int, error) {
	m.lastFilter = filter
	details := make([]models.SantriDetail, 0, len(m.santri))
	for _, s := range m.santri {
		details = append(details, models.SantriDetail{Santri: s})
	}
	return details, m.listTotal, nil
}

func (m *mockSantriRepo) FindByID(ctx context.Context, id string) (*models.SantriDetail, error) {
	if s, ok := m.santri[id]; ok {
		return &models.SantriDetail{Santri: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSantriRepo) ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error) {
	if id, ok := m.existsByNIS[nis]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSantriRepo) Create(ctx context.Context, santri *models.Santri) error {
	if m.santri == nil {
		m.santri = make(map[string]models.Santri)
	}
	if santri.ID == "" {
		santri.ID = "generated"
	}
	m.santri[santri.ID] = *santri
	return nil
}

func (m *mockSantriRepo) Update(ctx context.Context, santri *models.Santri) error {
	m.santri[santri.ID] = *santri
	return nil
}

func (m *mockSantriRepo) UpdateStatus(ctx context.Context, id string, status models.SantriStatus) error {
	if s, ok := m.santri[id]; ok {
		s.Status = status
		m.santri[id] = s
	}
	return nil
}

func (m *mockSantriRepo) CountByHalaqah(ctx context.Context, halaqahID string) (int, error) {
	return m.counts[halaqahID], nil
}

type mockHalaqahLookup struct {
	halaqah map[string]models.HalaqahDetail
}

func (m *mockHalaqahLookup) FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error) {
	if h, ok := m.halaqah[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserLookup struct {
	users map[string]models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func musyrifClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleMusyrif}
}

func newSantriService(repo *mockSantriRepo, halaqah *mockHalaqahLookup, users *mockUserLookup) *SantriService {
	return NewSantriService(repo, halaqah, users, validator.New(), zap.NewNop())
}

func TestSantriServiceListScopesMusyrif(t *testing.T) {
	repo := &mockSantriRepo{}
	svc := newSantriService(repo, &mockHalaqahLookup{}, &mockUserLookup{})

	_, _, err := svc.List(context.Background(), musyrifClaims("mus-1"), models.SantriFilter{})
	require.NoError(t, err)
	assert.Equal(t, "mus-1", repo.lastFilter.MusyrifID)
}

func TestSantriServiceListAdminUnscoped(t *testing.T) {
	repo := &mockSantriRepo{}
	svc := newSantriService(repo, &mockHalaqahLookup{}, &mockUserLookup{})

	_, _, err := svc.List(context.Background(), adminClaims(), models.SantriFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.MusyrifID)
}

func TestSantriServiceListIgnoresClientScope(t *testing.T) {
	repo := &mockSantriRepo{}
	svc := newSantriService(repo, &mockHalaqahLookup{}, &mockUserLookup{})

	// A musyrif attempting to widen the filter still gets their own scope.
	_, _, err := svc.List(context.Background(), musyrifClaims("mus-1"), models.SantriFilter{MusyrifID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "mus-1", repo.lastFilter.MusyrifID)
}

func TestSantriServiceListWaliForbidden(t *testing.T) {
	svc := newSantriService(&mockSantriRepo{}, &mockHalaqahLookup{}, &mockUserLookup{})

	_, _, err := svc.List(context.Background(), &models.JWTClaims{UserID: "w-1", Role: models.RoleWali}, models.SantriFilter{})
	require.Error(t, err)
}

func TestSantriServiceGetOutsideHalaqahForbidden(t *testing.T) {
	hid := "hal-1"
	repo := &mockSantriRepo{santri: map[string]models.Santri{"san-1": {ID: "san-1", HalaqahID: &hid}}}
	halaqah := &mockHalaqahLookup{halaqah: map[string]models.HalaqahDetail{
		"hal-1": {Halaqah: models.Halaqah{ID: "hal-1", MusyrifID: "mus-owner"}},
	}}
	svc := newSantriService(repo, halaqah, &mockUserLookup{})

	_, err := svc.Get(context.Background(), musyrifClaims("mus-other"), "san-1")
	require.Error(t, err)

	detail, err := svc.Get(context.Background(), musyrifClaims("mus-owner"), "san-1")
	require.NoError(t, err)
	assert.Equal(t, "san-1", detail.ID)
}

func TestSantriServiceCreate(t *testing.T) {
	users := &mockUserLookup{users: map[string]models.User{"wali-1": {ID: "wali-1", Role: models.RoleWali}}}
	repo := &mockSantriRepo{existsByNIS: make(map[string]string)}
	svc := newSantriService(repo, &mockHalaqahLookup{}, users)

	santri, err := svc.Create(context.Background(), CreateSantriRequest{
		NIS:       "2024001",
		FullName:  "Ahmad Fauzi",
		Gender:    "M",
		BirthDate: time.Now(),
		WaliID:    "wali-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SantriStatusActive, santri.Status)
	assert.NotEmpty(t, santri.ID)
}

func TestSantriServiceCreateDuplicateNIS(t *testing.T) {
	users := &mockUserLookup{users: map[string]models.User{"wali-1": {ID: "wali-1", Role: models.RoleWali}}}
	repo := &mockSantriRepo{existsByNIS: map[string]string{"2024001": "other"}}
	svc := newSantriService(repo, &mockHalaqahLookup{}, users)

	_, err := svc.Create(context.Background(), CreateSantriRequest{
		NIS: "2024001", FullName: "A", Gender: "M", BirthDate: time.Now(), WaliID: "wali-1",
	})
	require.Error(t, err)
}

func TestSantriServiceCreateUnknownWali(t *testing.T) {
	repo := &mockSantriRepo{existsByNIS: make(map[string]string)}
	svc := newSantriService(repo, &mockHalaqahLookup{}, &mockUserLookup{})

	_, err := svc.Create(context.Background(), CreateSantriRequest{
		NIS: "2024001", FullName: "A", Gender: "M", BirthDate: time.Now(), WaliID: "missing",
	})
	require.Error(t, err)
}

func TestSantriServiceCreateFullHalaqah(t *testing.T) {
	hid := "hal-1"
	users := &mockUserLookup{users: map[string]models.User{"wali-1": {ID: "wali-1", Role: models.RoleWali}}}
	halaqah := &mockHalaqahLookup{halaqah: map[string]models.HalaqahDetail{
		"hal-1": {Halaqah: models.Halaqah{ID: "hal-1", Capacity: 2}, SantriCount: 2},
	}}
	svc := newSantriService(&mockSantriRepo{existsByNIS: make(map[string]string)}, halaqah, users)

	_, err := svc.Create(context.Background(), CreateSantriRequest{
		NIS: "2024001", FullName: "A", Gender: "M", BirthDate: time.Now(), WaliID: "wali-1", HalaqahID: &hid,
	})
	require.Error(t, err)
}
