package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"depo-backend/internal/logger"
	"depo-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500. http.ErrAbortHandler is
// re-raised so net/http can drop the connection quietly.
func PanicRecovery(next http.Handler) http.Handler {
	log := logger.WithComponent("Recovery")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": w.Header().Get(requestIDHeader),
				"stack":      string(debug.Stack()),
			}).Errorf("panic: %v", rec)
			utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
