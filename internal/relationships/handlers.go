package relationships

import (
	"encoding/json"
	"errors"
	"mime"
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

// HandleList handles GET /v1/relationships
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, h.service.List(r.Context(), userID))
}

// HandlePlan handles POST /v1/relationships/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req PlanRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
			return
		}
		req = PlanRequest{
			CommitmentID: r.PostForm.Get("commitment_id"),
			PlannedFor:   r.PostForm.Get("planned_for"),
			Notes:        r.PostForm.Get("notes"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.service.Plan(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleLog handles POST /v1/relationships/log
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req LogRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
			return
		}
		req = LogRequest{
			CommitmentID: r.PostForm.Get("commitment_id"),
			OccurredAt:   r.PostForm.Get("occurred_at"),
			Notes:        r.PostForm.Get("notes"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.service.Log(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var missing *MissingFieldError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, "missing_field", missing.Error())
	case errors.Is(err, ErrInvalidDateTime):
		writeError(w, http.StatusBadRequest, "invalid_datetime", "Use YYYY-MM-DDTHH:mm or RFC 3339")
	case errors.Is(err, ErrCommitmentNotFound):
		writeError(w, http.StatusNotFound, "commitment_not_found", "Commitment not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
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
