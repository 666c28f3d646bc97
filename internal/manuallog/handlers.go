package manuallog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/lifeos/internal/userctx"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleLog handles POST /v1/meals/manual
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req ManualLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.service.Log(r.Context(), userID, req)
	if err != nil {
		var ferr *FieldError
		if errors.As(err, &ferr) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
				Code:    "invalid_amount",
				Message: ferr.Err.Message,
				Field:   ferr.Field,
				Reason:  ferr.Err.Kind.Error(),
			}})
			return
		}
		if resp != nil {
			// журнал записан, упал только шаблон
			writeJSON(w, http.StatusMultiStatus, struct {
				*ManualLogResponse
				Error ErrorDetail `json:"error"`
			}{resp, ErrorDetail{Code: "persistence_error", Message: err.Error()}})
			return
		}
		writeError(w, http.StatusBadGateway, "persistence_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
