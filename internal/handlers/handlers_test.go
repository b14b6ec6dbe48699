package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"depo-backend/internal/activity"
	"depo-backend/internal/auth"
	"depo-backend/internal/codegen"
	"depo-backend/internal/handlers"
	"depo-backend/internal/health"
	apphttp "depo-backend/internal/http"
	"depo-backend/internal/logger"
	"depo-backend/internal/middleware"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/services"
	"depo-backend/internal/store"
	"depo-backend/internal/store/local"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://depo.example"

type testServer struct {
	router  *mux.Router
	tokens  map[string]string
	boxes   *repositories.BoxRepository
	pallets *repositories.PalletRepository
	tracker *activity.Tracker
}

func openLocal(t *testing.T) *local.Backend {
	t.Helper()
	b, err := local.Open(local.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	return newServerOver(t, openLocal(t))
}

// newServerOver wires the full router over b and logs in admin and ayse.
func newServerOver(t *testing.T, b store.Backend) *testServer {
	t.Helper()
	ctx := context.Background()

	log := logger.WithComponent("test")
	jwtManager := auth.NewJWTManager("handler-test-secret", "depo-test", 1)
	codes := codegen.New(b)
	boxes := repositories.NewBoxRepository(b, codes)
	pallets := repositories.NewPalletRepository(b, codes)
	shipments := repositories.NewShipmentRepository(b, codes)
	users := repositories.NewUserRepository(b)
	settings := repositories.NewSettingsRepository(b)
	tracker := activity.NewTracker(b, nil, log)
	userService := services.NewUserService(users, jwtManager, tracker, log)

	srv := &testServer{tokens: map[string]string{}, boxes: boxes, pallets: pallets, tracker: tracker}
	for _, u := range []struct{ username, role string }{{"admin", models.RoleAdmin}, {"ayse", models.RoleUser}} {
		_, err := userService.CreateUser(ctx, &models.CreateUserRequest{
			Username: u.username, Name: u.username, Password: "secret123", Role: u.role,
		})
		require.NoError(t, err)
		resp, err := userService.Login(ctx, &models.LoginRequest{Username: u.username, Password: "secret123"}, services.ClientInfo{IPAddress: "127.0.0.1"})
		require.NoError(t, err)
		srv.tokens[u.username] = resp.Token
	}

	srv.router = apphttp.NewRouter(apphttp.Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Users:     handlers.NewUserHandler(userService, repositories.NewDepartmentRepository(b)),
		Boxes:     handlers.NewBoxHandler(boxes, pallets),
		Pallets:   handlers.NewPalletHandler(pallets, shipments),
		Shipments: handlers.NewShipmentHandler(shipments, services.NewExportService(shipments, boxes)),
		Media:     handlers.NewMediaHandler(services.NewPhotoService(nil, boxes, pallets, shipments), boxes, pallets, shipments, baseURL),
		Public:    handlers.NewPublicHandler(boxes, pallets, shipments, baseURL),
		Activity:  handlers.NewActivityHandler(repositories.NewLoginLogRepository(b), tracker),
		Live:      handlers.NewLiveHandler(tracker, time.Minute),
		Settings:  handlers.NewSettingsHandler(settings),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(health.Check{Name: "local", Pinger: b})),
	},
		middleware.NewAuthMiddleware(jwtManager, users),
		middleware.NewSiteGuard(settings),
		middleware.NewRateLimiter(100, time.Minute),
	)
	return srv
}

func (s *testServer) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, path, rd)
	if user != "" {
		r.Header.Set("Authorization", "Bearer "+s.tokens[user])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLoginEndpoint(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "ayse", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "ayse", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[models.AuthResponse](t, rec).Token)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ayse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoxLifecycleAndPublicPage(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/boxes", "ayse", models.CreateBoxRequest{
		Name:  "Koli-A",
		Lines: []models.BoxLineInput{{ProductName: "Vida", Qty: 100}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	box := decode[models.Box](t, rec)
	assert.Regexp(t, `^BOX-\d{6}$`, box.Code)

	rec = s.do(http.MethodPost, "/api/pallets", "ayse", models.CreatePalletRequest{Name: "Palet-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	pallet := decode[models.Pallet](t, rec)

	rec = s.do(http.MethodPut, "/api/boxes/"+box.Code+"/parent", "ayse", models.AssignParentRequest{ParentCode: pallet.Code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/q/box/"+box.Code, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "Koli-A", page["name"])
	assert.Equal(t, pallet.Code, page["pallet"].(map[string]interface{})["code"])
	assert.EqualValues(t, 100, page["total_qty"])

	rec = s.do(http.MethodDelete, "/api/pallets/"+pallet.Code, "ayse", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/boxes/"+box.Code, "ayse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.Box](t, rec).PalletID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/q/box/BOX-999999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/q/crate/X-1", "", nil).Code)
}

func TestOwnershipIsEnforced(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	admin := models.Actor{UserID: 1, Username: "admin", Role: models.RoleAdmin}

	box, err := s.boxes.Create(ctx, admin, models.CreateBoxRequest{Name: "Admin kolisi"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/boxes/"+box.Code, "ayse", nil).Code)

	rec := s.do(http.MethodGet, "/api/boxes", "ayse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Box](t, rec))

	rec = s.do(http.MethodGet, "/api/boxes", "admin", nil)
	assert.Len(t, decode[[]models.Box](t, rec), 1)
}

func TestAdminRoutesAndLockdown(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/boxes", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", "ayse", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/users", "admin", nil).Code)

	missing := int64(99)
	rec := s.do(http.MethodPost, "/api/admin/users", "admin", models.CreateUserRequest{
		Username: "mehmet", Name: "Mehmet", Password: "secret123", DepartmentID: &missing,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/admin/settings/lockdown", "admin", models.SiteLockdown{IsLocked: true, Message: "Yillik sayim"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/boxes", "ayse", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Yillik sayim")
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/boxes", "admin", nil).Code)
}

func TestActivityEndpoints(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/admin/stats", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.LoginStats](t, rec)
	assert.Equal(t, 2, stats.TotalLogins24h)
	assert.Equal(t, 2, stats.ActiveNow)

	rec = s.do(http.MethodGet, "/api/admin/login-logs?action=login&limit=1", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LoginLog](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/api/auth/heartbeat", "ayse", models.HeartbeatRequest{}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", "ayse", nil).Code)

	rec = s.do(http.MethodGet, "/api/admin/login-logs/ayse", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]models.LoginLog](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionLogout, history[0].Action)
	assert.Equal(t, models.ActionLogin, history[1].Action)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/login-logs?since=last-week", "admin", nil).Code)
	rec = s.do(http.MethodGet, "/api/admin/login-logs?since=2000-01-01", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LoginLog](t, rec), 3)

	rec = s.do(http.MethodGet, "/api/admin/sessions", "admin", nil)
	sessions := decode[[]models.ActiveSession](t, rec)
	require.Len(t, sessions, 1)
	assert.Equal(t, "admin", sessions[0].Username)
}

func TestMediaEndpoints(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/shipments", "ayse", models.CreateShipmentRequest{NameOrPlate: "34 ABC 123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	shipment := decode[models.Shipment](t, rec)

	rec = s.do(http.MethodGet, "/q/shipment/"+shipment.Code+"/qr.png", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(http.MethodGet, "/api/media/shipment/"+shipment.Code+"/label.pdf", "ayse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(http.MethodGet, "/api/shipments/"+shipment.Code+"/manifest.xlsx", "ayse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = s.do(http.MethodPost, "/api/media/shipment/"+shipment.Code+"/print", "ayse", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Upload without a multipart body.
	rec = s.do(http.MethodPost, "/api/media/shipment/"+shipment.Code+"/photo", "ayse", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)

	rec := s.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, health.StatusHealthy, decode[health.HealthStatus](t, rec).Status)
}
