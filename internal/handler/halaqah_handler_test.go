package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/middleware"
	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
)

type halaqahRepoStub struct {
	lastFilter models.HalaqahFilter
}

func (s *halaqahRepoStub) List(ctx context.Context, filter models.HalaqahFilter) ([]models.HalaqahDetail, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *halaqahRepoStub) FindByID(ctx context.Context, id string) (*models.HalaqahDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *halaqahRepoStub) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	return false, nil
}

func (s *halaqahRepoStub) Create(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error {
	return nil
}

func (s *halaqahRepoStub) Update(ctx context.Context, halaqah *models.Halaqah, schedules []models.HalaqahSchedule) error {
	return nil
}

func (s *halaqahRepoStub) Delete(ctx context.Context, id string) error { return nil }

type halaqahUserStub struct{}

func (halaqahUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func halaqahListRequest(t *testing.T, stub *halaqahRepoStub, target string, claims *models.JWTClaims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewHalaqahHandler(service.NewHalaqahService(stub, halaqahUserStub{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, claims)

	handler.List(c)
	return w
}

func TestHalaqahHandlerListAllSentinelsDropFilters(t *testing.T) {
	stub := &halaqahRepoStub{}
	w := halaqahListRequest(t, stub, "/halaqah?level=ALL&musyrifId=ALL",
		&models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, stub.lastFilter.Level)
	assert.Empty(t, stub.lastFilter.MusyrifID)
}

func TestHalaqahHandlerListAdminMusyrifFilter(t *testing.T) {
	stub := &halaqahRepoStub{}
	w := halaqahListRequest(t, stub, "/halaqah?level=TAHFIDZ&musyrifId=mus-9",
		&models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TAHFIDZ", stub.lastFilter.Level)
	assert.Equal(t, "mus-9", stub.lastFilter.MusyrifID)
}
