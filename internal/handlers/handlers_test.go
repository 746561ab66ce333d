package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"excentrica/internal/auth"
	"excentrica/internal/middleware"
	"excentrica/internal/models"
	"excentrica/internal/repository"
	"excentrica/internal/repository/memstore"
	"excentrica/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardPublisher struct{}

func (discardPublisher) Publish(string, interface{}) error { return nil }

type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func (m *memoryIdempotency) GetResponse(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if ok {
		m.hits++
	}
	return v, ok, nil
}

func (m *memoryIdempotency) PutResponse(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		m.data[key] = data
	}
	return nil
}

type fixture struct {
	router *gin.Engine
	repos  *repository.Repositories
	auth   *auth.Authenticator
	idem   *memoryIdempotency
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		repos: memstore.New().Repositories(),
		auth:  auth.NewAuthenticator(auth.Config{JWTSecret: "test-secret", Issuer: "excentrica", TokenTTL: time.Hour}),
		idem:  &memoryIdempotency{data: map[string][]byte{}},
	}
	h := NewHandlers(service.NewServices(f.repos, discardPublisher{}, nil), f.idem)

	r := gin.New()
	api := r.Group("/api", middleware.JWTAuth(f.auth))
	api.POST("/events/:id/register", h.Register)
	api.DELETE("/events/:id/register", h.Unregister)
	api.GET("/user/events", h.ListMyRegistrations)
	api.POST("/sorteos/:id/participate", h.JoinSorteo)

	admin := api.Group("/admin", middleware.RequireStaff())
	admin.GET("/event-registrations", h.ListRegistrations)
	admin.GET("/event-registrations/verify/:code", h.VerifyCode)
	admin.PUT("/event-registrations/:id", h.UpdateRegistrationStatus)
	admin.GET("/events/:id/registrations/stats", h.RegistrationStats)
	admin.POST("/sorteos/:id/select-winners", h.SelectWinners)
	admin.PUT("/sorteos/participants/:id/claim", h.ClaimPrize)
	admin.GET("/activity", h.ListActivity)

	f.router = r
	return f
}

func (f *fixture) token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := f.auth.Issue(auth.Principal{UserID: userID, Role: role})
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) event(t *testing.T, capacity *int) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:           "Noche de museos",
		StartAt:         time.Now().Add(48 * time.Hour),
		Status:          models.EventApproved,
		EventType:       models.EventTypeNormal,
		MaxParticipants: capacity,
		AuthorID:        1,
	}
	require.NoError(t, f.repos.Events.Create(context.Background(), e))
	return e
}

func (f *fixture) sorteo(t *testing.T, winners int) *models.Sorteo {
	t.Helper()
	s := &models.Sorteo{
		Title:        "Sorteo de bienvenida",
		EventType:    models.EventTypeSorteo,
		WinnersCount: winners,
		Status:       models.SorteoActive,
		CreatedBy:    1,
	}
	require.NoError(t, f.repos.Sorteos.Create(context.Background(), s))
	return s
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegister_StatusCodes(t *testing.T) {
	f := newFixture(t)
	one := 1
	e := f.event(t, &one)
	path := "/api/events/" + itoa(e.ID) + "/register"

	w := f.do(t, http.MethodPost, path, f.token(t, 10, auth.RoleUser), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.RegisterResponse](t, w)
	assert.True(t, created.Success)
	assert.Equal(t, models.RegistrationPending, created.Status)
	assert.NotEmpty(t, created.RegistrationCode)

	w = f.do(t, http.MethodPost, path, f.token(t, 10, auth.RoleUser), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// capacity exhausted for a second user
	w = f.do(t, http.MethodPost, path, f.token(t, 11, auth.RoleUser), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	failed := decode[models.ErrorResponse](t, w)
	assert.False(t, failed.Success)
	assert.NotEmpty(t, failed.Error)

	w = f.do(t, http.MethodPost, "/api/events/999/register", f.token(t, 10, auth.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/events/abc/register", f.token(t, 10, auth.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, nil)
	path := "/api/events/" + itoa(e.ID) + "/register"
	tok := f.token(t, 20, auth.RoleUser)

	first := f.do(t, http.MethodPost, path, tok, nil, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.do(t, http.MethodPost, path, tok, nil, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, f.idem.hits)

	// without the key the duplicate is rejected
	third := f.do(t, http.MethodPost, path, tok, nil)
	assert.Equal(t, http.StatusConflict, third.Code)
}

func TestRegister_IdempotencyKeyScopedToEvent(t *testing.T) {
	f := newFixture(t)
	first := f.event(t, nil)
	second := f.event(t, nil)
	tok := f.token(t, 21, auth.RoleUser)

	w := f.do(t, http.MethodPost, "/api/events/"+itoa(first.ID)+"/register", tok, nil, IdempotencyKeyHeader, "shared")
	require.Equal(t, http.StatusCreated, w.Code)
	firstReg := decode[models.RegisterResponse](t, w)

	w = f.do(t, http.MethodPost, "/api/events/"+itoa(second.ID)+"/register", tok, nil, IdempotencyKeyHeader, "shared")
	require.Equal(t, http.StatusCreated, w.Code)
	secondReg := decode[models.RegisterResponse](t, w)

	assert.NotEqual(t, firstReg.ID, secondReg.ID)
	assert.NotEqual(t, firstReg.RegistrationCode, secondReg.RegistrationCode)
	assert.Equal(t, 0, f.idem.hits)

	w = f.do(t, http.MethodGet, "/api/user/events", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.MyRegistrationsResponse](t, w).Items, 2)
}

func TestUnregisterAndListMine(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, nil)
	path := "/api/events/" + itoa(e.ID) + "/register"
	tok := f.token(t, 30, auth.RoleUser)

	w := f.do(t, http.MethodDelete, path, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, path, tok, nil).Code)

	w = f.do(t, http.MethodGet, "/api/user/events", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[models.MyRegistrationsResponse](t, w)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, e.Title, mine.Items[0].EventTitle)

	w = f.do(t, http.MethodDelete, path, tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateRegistrationStatus_Mapping(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, nil)
	w := f.do(t, http.MethodPost, "/api/events/"+itoa(e.ID)+"/register", f.token(t, 40, auth.RoleUser), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	regID := decode[models.RegisterResponse](t, w).ID
	path := "/api/admin/event-registrations/" + itoa(regID)
	staff := f.token(t, 1, auth.RoleEditor)

	w = f.do(t, http.MethodPut, path, staff, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, path, staff, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// staff cannot cancel on behalf of the user
	w = f.do(t, http.MethodPut, path, staff, map[string]string{"status": "cancelado"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, path, staff, map[string]string{"status": "confirmado", "notes": "ok"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, "/api/admin/event-registrations/999", staff, map[string]string{"status": "confirmado"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/events/"+itoa(e.ID)+"/registrations/stats", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"confirmado":1`)
}

func TestAdminRoutes_RequireStaff(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/admin/event-registrations", f.token(t, 50, auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/event-registrations", f.token(t, 1, auth.RolePublicista), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/event-registrations?event_id=x", f.token(t, 1, auth.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCode_Unknown(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/admin/event-registrations/verify/EVT-1-NOPE0000", f.token(t, 1, auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.VerifyCodeResponse](t, w)
	assert.True(t, resp.Success)
	assert.False(t, resp.Valid)
	assert.False(t, resp.CanEnter)
	assert.Nil(t, resp.Registration)
}

func TestSorteoFlow(t *testing.T) {
	f := newFixture(t)
	s := f.sorteo(t, 1)
	staff := f.token(t, 1, auth.RoleAdmin)
	drawPath := "/api/admin/sorteos/" + itoa(s.ID) + "/select-winners"

	w := f.do(t, http.MethodPost, drawPath, staff, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/api/sorteos/"+itoa(s.ID)+"/participate", f.token(t, 60, auth.RoleUser),
		map[string]string{"name": "Ana", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/sorteos/"+itoa(s.ID)+"/participate", f.token(t, 60, auth.RoleUser),
		map[string]string{"name": "Ana", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, drawPath, staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	drawn := decode[models.SelectWinnersResponse](t, w)
	require.Equal(t, 1, drawn.WinnersSelected)
	winner := drawn.Winners[0]
	assert.True(t, winner.IsWinner)

	w = f.do(t, http.MethodPost, drawPath, staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	claimPath := "/api/admin/sorteos/participants/" + itoa(winner.ID) + "/claim"
	w = f.do(t, http.MethodPut, claimPath, staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, claimPath, staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListActivity_DatabaseSource(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/admin/activity?actor_id=1", f.token(t, 1, auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ListActivityResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, service.ActivitySourceDatabase, resp.Source)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
