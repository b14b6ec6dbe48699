package http

import (
	"net/http"

	"depo-backend/internal/handlers"
	"depo-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Boxes     *handlers.BoxHandler
	Pallets   *handlers.PalletHandler
	Shipments *handlers.ShipmentHandler
	Media     *handlers.MediaHandler
	Public    *handlers.PublicHandler
	Activity  *handlers.ActivityHandler
	Live      *handlers.LiveHandler
	Settings  *handlers.SettingsHandler
	Health    *handlers.HealthHandler
}

func NewRouter(
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	siteGuard *middleware.SiteGuard,
	loginLimiter *middleware.RateLimiter,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery, middleware.RequestLogger, middleware.MetricsMiddleware)

	// Health and metrics (no auth)
	r.HandleFunc("/health", h.Health.Live).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.Detailed).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public QR pages (no auth)
	r.HandleFunc("/q/{kind}/{code}", h.Public.Detail).Methods("GET")
	r.HandleFunc("/q/{kind}/{code}/qr.png", h.Public.QRCode).Methods("GET")
	r.HandleFunc("/api/public/announcement", h.Settings.GetAnnouncement).Methods("GET")
	r.HandleFunc("/api/public/popup", h.Settings.GetPopup).Methods("GET")

	// Authentication
	r.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(h.Auth.Login))).Methods("POST")
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/resume", h.Auth.Resume).Methods("POST")
	authAPI.HandleFunc("/logout", h.Auth.Logout).Methods("POST")
	authAPI.HandleFunc("/heartbeat", h.Auth.Heartbeat).Methods("POST")

	// Admin only
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware.RequireAdmin)

	adminAPI.HandleFunc("/users", h.Users.ListUsers).Methods("GET")
	adminAPI.HandleFunc("/users", h.Users.CreateUser).Methods("POST")
	adminAPI.HandleFunc("/users/{id}", h.Users.GetUser).Methods("GET")
	adminAPI.HandleFunc("/users/{id}", h.Users.UpdateUser).Methods("PUT")
	adminAPI.HandleFunc("/users/{id}", h.Users.DeleteUser).Methods("DELETE")
	adminAPI.HandleFunc("/departments", h.Users.ListDepartments).Methods("GET")
	adminAPI.HandleFunc("/departments", h.Users.CreateDepartment).Methods("POST")

	adminAPI.HandleFunc("/login-logs", h.Activity.ListLoginLogs).Methods("GET")
	adminAPI.HandleFunc("/login-logs/{username}", h.Activity.UserHistory).Methods("GET")
	adminAPI.HandleFunc("/sessions", h.Activity.ActiveSessions).Methods("GET")
	adminAPI.HandleFunc("/stats", h.Activity.Stats).Methods("GET")
	adminAPI.HandleFunc("/live", h.Live.Serve).Methods("GET")

	adminAPI.HandleFunc("/settings/announcement", h.Settings.UpdateAnnouncement).Methods("PUT")
	adminAPI.HandleFunc("/settings/popup", h.Settings.UpdatePopup).Methods("PUT")
	adminAPI.HandleFunc("/settings/ban", h.Settings.GetBanSettings).Methods("GET")
	adminAPI.HandleFunc("/settings/ban", h.Settings.UpdateBanSettings).Methods("PUT")
	adminAPI.HandleFunc("/settings/lockdown", h.Settings.GetSiteLockdown).Methods("GET")
	adminAPI.HandleFunc("/settings/lockdown", h.Settings.UpdateSiteLockdown).Methods("PUT")

	// Warehouse entities: authenticated, behind the lockdown and ban checks
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate, siteGuard.Handler)

	api.HandleFunc("/boxes", h.Boxes.ListBoxes).Methods("GET")
	api.HandleFunc("/boxes", h.Boxes.CreateBox).Methods("POST")
	api.HandleFunc("/boxes/{code}", h.Boxes.GetBox).Methods("GET")
	api.HandleFunc("/boxes/{code}", h.Boxes.UpdateBox).Methods("PUT")
	api.HandleFunc("/boxes/{code}", h.Boxes.DeleteBox).Methods("DELETE")
	api.HandleFunc("/boxes/{code}/lines", h.Boxes.AddLine).Methods("POST")
	api.HandleFunc("/boxes/{code}/lines/{lineID}", h.Boxes.RemoveLine).Methods("DELETE")
	api.HandleFunc("/boxes/{code}/seal", h.Boxes.SealBox).Methods("POST")
	api.HandleFunc("/boxes/{code}/parent", h.Boxes.AssignParent).Methods("PUT")
	api.HandleFunc("/boxes/{code}/parent", h.Boxes.ClearParent).Methods("DELETE")

	api.HandleFunc("/pallets", h.Pallets.ListPallets).Methods("GET")
	api.HandleFunc("/pallets", h.Pallets.CreatePallet).Methods("POST")
	api.HandleFunc("/pallets/{code}", h.Pallets.GetPallet).Methods("GET")
	api.HandleFunc("/pallets/{code}", h.Pallets.UpdatePallet).Methods("PUT")
	api.HandleFunc("/pallets/{code}", h.Pallets.DeletePallet).Methods("DELETE")
	api.HandleFunc("/pallets/{code}/shipment", h.Pallets.AssignShipment).Methods("PUT")
	api.HandleFunc("/pallets/{code}/shipment", h.Pallets.ClearShipment).Methods("DELETE")

	api.HandleFunc("/shipments", h.Shipments.ListShipments).Methods("GET")
	api.HandleFunc("/shipments", h.Shipments.CreateShipment).Methods("POST")
	api.HandleFunc("/shipments/{code}", h.Shipments.GetShipment).Methods("GET")
	api.HandleFunc("/shipments/{code}", h.Shipments.UpdateShipment).Methods("PUT")
	api.HandleFunc("/shipments/{code}", h.Shipments.DeleteShipment).Methods("DELETE")
	api.HandleFunc("/shipments/{code}/manifest.xlsx", h.Shipments.ExportManifest).Methods("GET")

	api.HandleFunc("/media/{kind}/{code}/photo", h.Media.UploadPhoto).Methods("POST")
	api.HandleFunc("/media/{kind}/{code}/label.pdf", h.Media.Label).Methods("GET")
	api.HandleFunc("/media/{kind}/{code}/print", h.Media.Print).Methods("POST")

	return r
}
