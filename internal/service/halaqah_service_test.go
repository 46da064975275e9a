package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

type mockHalaqahRepo struct {
	halaqah      map[string]models.HalaqahDetail
	existsByName map[string]string
	lastFilter   models.HalaqahFilter
	created      []models.Halaqah
	createdScheds [][]models.HalaqahSchedule
	deleted      []string
}

func (m *mockHalaqahRepo) List(ctx context.Context, filter models.HalaqahFilter) ([]models.HalaqahDetail, int, error) {
	m.lastFilter = filter
	details := make([]models.HalaqahDetail, 0, len(m.halaqah))
	for _, h := range m.halaqah {
		details = append(details, h)
	}
	return details, len(details), nil
}

func (m *mockHalaqahRepo) FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error) {
	if h, ok := m.halaqah[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHalaqahRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	if id, ok := m.existsByName[name]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHalaqahRepo) Create(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error {
	if halaqah.ID == "" {
		halaqah.ID = "generated"
	}
	m.created = append(m.created, *halaqah)
	m.createdScheds = append(m.createdScheds, schedules)
	if m.halaqah == nil {
		m.halaqah = make(map[string]models.HalaqahDetail)
	}
	m.halaqah[halaqah.ID] = models.HalaqahDetail{Halaqah: *halaqah, Schedules: schedules}
	return nil
}

func (m *mockHalaqahRepo) Update(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error {
	m.halaqah[halaqah.ID] = models.HalaqahDetail{Halaqah: *halaqah, Schedules: schedules}
	return nil
}

func (m *mockHalaqahRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.halaqah, id)
	return nil
}

func newHalaqahService(repo *mockHalaqahRepo, users *mockUserLookup) *HalaqahService {
	return NewHalaqahService(repo, users, validator.New(), zap.NewNop())
}

func musyrifUsers() *mockUserLookup {
	return &mockUserLookup{users: map[string]models.User{
		"mus-1": {ID: "mus-1", Role: models.RoleMusyrif},
	}}
}

func TestHalaqahServiceCreateWithSchedules(t *testing.T) {
	repo := &mockHalaqahRepo{existsByName: make(map[string]string)}
	svc := newHalaqahService(repo, musyrifUsers())

	detail, err := svc.Create(context.Background(), CreateHalaqahRequest{
		Name: "Al-Fatih", Level: "TAHSIN", Capacity: 15, MusyrifID: "mus-1",
		Schedules: []ScheduleRequest{{DayOfWeek: 1, StartTime: "05:30", EndTime: "06:30", Room: "A1"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Len(t, repo.createdScheds[0], 1)
}

func TestHalaqahServiceCreateUnknownMusyrif(t *testing.T) {
	repo := &mockHalaqahRepo{existsByName: make(map[string]string)}
	svc := newHalaqahService(repo, &mockUserLookup{})

	_, err := svc.Create(context.Background(), CreateHalaqahRequest{
		Name: "Al-Fatih", Level: "TAHSIN", Capacity: 15, MusyrifID: "missing",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Musyrif tidak ditemukan")
}

func TestHalaqahServiceCreateMusyrifRoleMismatch(t *testing.T) {
	users := &mockUserLookup{users: map[string]models.User{"adm-1": {ID: "adm-1", Role: models.RoleAdmin}}}
	svc := newHalaqahService(&mockHalaqahRepo{existsByName: make(map[string]string)}, users)

	_, err := svc.Create(context.Background(), CreateHalaqahRequest{
		Name: "Al-Fatih", Level: "TAHSIN", Capacity: 15, MusyrifID: "adm-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Musyrif tidak ditemukan")
}

func TestHalaqahServiceCreateDuplicateName(t *testing.T) {
	repo := &mockHalaqahRepo{existsByName: map[string]string{"Al-Fatih": "existing"}}
	svc := newHalaqahService(repo, musyrifUsers())

	_, err := svc.Create(context.Background(), CreateHalaqahRequest{
		Name: "Al-Fatih", Level: "TAHSIN", Capacity: 15, MusyrifID: "mus-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nama halaqah sudah digunakan")
}

func TestHalaqahServiceListScopesMusyrif(t *testing.T) {
	repo := &mockHalaqahRepo{}
	svc := newHalaqahService(repo, musyrifUsers())

	// A client-supplied musyrifId never widens a MUSYRIF's scope.
	_, _, err := svc.List(context.Background(), musyrifClaims("mus-1"), models.HalaqahFilter{MusyrifID: "mus-9"})
	require.NoError(t, err)
	assert.Equal(t, "mus-1", repo.lastFilter.MusyrifID)
}

func TestHalaqahServiceListAdminKeepsMusyrifFilter(t *testing.T) {
	repo := &mockHalaqahRepo{}
	svc := newHalaqahService(repo, musyrifUsers())

	_, _, err := svc.List(context.Background(), adminClaims(), models.HalaqahFilter{MusyrifID: "mus-9"})
	require.NoError(t, err)
	assert.Equal(t, "mus-9", repo.lastFilter.MusyrifID)
}

func TestHalaqahServiceGetForbiddenOutsideScope(t *testing.T) {
	repo := &mockHalaqahRepo{halaqah: map[string]models.HalaqahDetail{
		"hal-1": {Halaqah: models.Halaqah{ID: "hal-1", MusyrifID: "mus-owner"}},
	}}
	svc := newHalaqahService(repo, musyrifUsers())

	_, err := svc.Get(context.Background(), musyrifClaims("mus-other"), "hal-1")
	require.Error(t, err)
}

func TestHalaqahServiceDelete(t *testing.T) {
	repo := &mockHalaqahRepo{halaqah: map[string]models.HalaqahDetail{
		"hal-1": {Halaqah: models.Halaqah{ID: "hal-1"}},
	}}
	svc := newHalaqahService(repo, musyrifUsers())

	err := svc.Delete(context.Background(), "hal-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "hal-1")
}
