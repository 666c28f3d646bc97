package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fdg312/lifeos/internal/userctx"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleDevAuth handles POST /v1/auth/dev; пустое тело допустимо
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	var req DevAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid user_id")
		return
	}

	resp, err := h.service.SignInDev(req.UserID)
	if err != nil {
		if errors.Is(err, ErrDevAuthClosed) {
			writeError(w, http.StatusNotFound, "not_found", "Dev auth is disabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleMe handles GET /v1/auth/me
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MeResponse{UserID: userID, AuthMode: h.service.config.AuthMode})
}
