package middleware

import (
	"context"
	"net/http"
	"strings"

	"depo-backend/internal/auth"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"
)

type contextKey string

const actorKey contextKey = "actor"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// WithActor stores the authenticated caller in ctx.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext extracts the caller placed by Authenticate.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey).(models.Actor)
	return a, ok
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients cannot
// set headers, so a token query parameter is accepted as well.
func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}

// Authenticate validates the JWT and reloads the user so that role changes and
// deactivation apply immediately.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user, err := m.userRepo.Get(r.Context(), claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "User not found")
			return
		}
		if !user.IsActive {
			utils.RespondError(w, http.StatusForbidden, "Account suspended. Please contact administrator.")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), user.Actor())))
	})
}

// RequireAdmin authenticates and then rejects every non-admin caller.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		if !actor.IsAdmin() {
			utils.RespondError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
