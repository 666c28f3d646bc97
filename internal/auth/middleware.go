package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/userctx"
)

const logModule = "auth"

// Middleware: кладёт личность вызывающего в контекст
type Middleware struct {
	config  *config.Config
	service *Service
	log     logger.Logger
}

func NewMiddleware(cfg *config.Config, service *Service, log logger.Logger) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
		log:     log,
	}
}

// Handler выбирает режим по конфигу
func (m *Middleware) Handler(next http.Handler) http.Handler {
	switch {
	case !m.config.AuthEnabled:
		return m.DefaultIdentity(next)
	case m.config.AuthRequired:
		return m.RequireAuth(next)
	default:
		return m.OptionalAuth(next)
	}
}

// DefaultIdentity (AUTH_MODE=none): все запросы от DEFAULT_USER_ID
func (m *Middleware) DefaultIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), m.config.DefaultUserID)))
	})
}

// RequireAuth: без валидного Bearer токена 401 (кроме публичных путей)
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticateHeader(r.Header.Get("Authorization"))

		if isPublicPath(r.URL.Path) {
			if err == nil {
				r = r.WithContext(userctx.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
			return
		}

		if err != nil {
			m.log.Debug(logModule, "token rejected", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"error":  err.Error(),
			})
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth проверяет токен только если он передан, иначе DEFAULT_USER_ID
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), m.config.DefaultUserID)))
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), m.config.DefaultUserID)))
				return
			}
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		m.log.Debug(logModule, "token accepted", map[string]any{
			"sub":    userID,
			"method": r.Method,
			"path":   r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}

	return m.service.VerifyJWT(strings.TrimSpace(parts[1]))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
