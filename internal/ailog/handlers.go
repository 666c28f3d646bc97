package ailog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
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

// HandleGetSession handles GET /v1/ailog/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Session(userID))
}

// HandleResetSession handles DELETE /v1/ailog/session
func (h *Handler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Reset(userID))
}

// HandleUpdateDraft handles PUT /v1/ailog/draft
func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	view, err := h.service.UpdateDraft(userID, req.draft())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAttachImage handles POST /v1/ailog/draft/image (multipart, field "image")
func (h *Handler) HandleAttachImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		h.handleError(w, err)
		return
	}
	img, err := readImage(r)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if img == nil {
		writeError(w, http.StatusBadRequest, "missing_image", "image is required")
		return
	}

	view, err := h.service.AttachImage(userID, *img)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDetachImage handles DELETE /v1/ailog/draft/image
func (h *Handler) HandleDetachImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.DetachImage(userID))
}

// HandleSend handles POST /v1/ailog/send (JSON или multipart)
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var (
		draft *Draft
		img   *Image
	)

	if isMultipart(r) {
		if err := h.parseMultipart(w, r); err != nil {
			h.handleError(w, err)
			return
		}
		d := Draft{}
		if vals, ok := r.MultipartForm.Value["text"]; ok && len(vals) > 0 {
			d.Text = &vals[0]
		}
		if vals, ok := r.MultipartForm.Value["meal_type"]; ok && len(vals) > 0 {
			d.MealType = &vals[0]
		}
		if vals, ok := r.MultipartForm.Value["meal_date"]; ok && len(vals) > 0 {
			d.MealDate = &vals[0]
		}
		draft = &d

		var err error
		img, err = readImage(r)
		if err != nil {
			h.handleError(w, err)
			return
		}
	} else if r.Body != nil && r.ContentLength != 0 {
		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		d := req.draft()
		draft = &d
	}

	result, err := h.service.Send(r.Context(), userID, draft, img)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if !result.Accepted {
		writeJSON(w, http.StatusAccepted, SendResponse{Accepted: false, Session: result.Session})
		return
	}

	resp := SendResponse{Accepted: true, Session: result.Session}
	if result.Err != nil {
		resp.Error = &ErrorDetail{Code: "transport_error", Message: result.Err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleConfirm handles POST /v1/ailog/confirm
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, view, err := h.service.Confirm(r.Context(), userID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmResponse{MealLogID: id, Session: view})
}

// HandleSaveTemplate handles POST /v1/ailog/save-template
func (h *Handler) HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req SaveTemplateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	view, err := h.service.SaveTemplate(r.Context(), userID, req.Name)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDiscard handles POST /v1/ailog/discard
func (h *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.service.Discard(userID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var perr *PersistenceError
	switch {
	case errors.Is(err, ErrNothingToSend):
		writeError(w, http.StatusUnprocessableEntity, "nothing_to_send", "Type something or attach a photo first")
	case errors.Is(err, ErrInvalidMealDate):
		writeError(w, http.StatusBadRequest, "invalid_meal_date", "meal_date must be YYYY-MM-DD")
	case errors.Is(err, ErrImageTooLarge):
		writeError(w, http.StatusBadRequest, "file_too_large", fmt.Sprintf("Image exceeds maximum size of %d bytes", h.service.opts.MaxImageBytes))
	case errors.Is(err, ErrUnsupportedImage):
		writeError(w, http.StatusBadRequest, "unsupported_mime", "Image type not supported")
	case errors.Is(err, ErrNoProposal):
		writeError(w, http.StatusConflict, "no_proposal", "There is no proposal to act on")
	case errors.Is(err, ErrConfirmInFlight):
		writeError(w, http.StatusConflict, "confirm_in_flight", "A confirm is already in progress")
	case errors.Is(err, ErrSaveInFlight):
		writeError(w, http.StatusConflict, "save_in_flight", "A save is already in progress")
	case errors.Is(err, ErrSendInFlight):
		writeError(w, http.StatusConflict, "send_in_flight", "Still waiting for the proposal")
	case errors.As(err, &perr):
		writeError(w, http.StatusBadGateway, "persistence_error", perr.Error())
	case errors.Is(err, errBadMultipart):
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

var errBadMultipart = errors.New("bad multipart form")

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	limit := h.service.opts.MaxImageBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	// запас на остальные поля формы
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit + 1<<20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrImageTooLarge
		}
		return errBadMultipart
	}
	return nil
}

// readImage возвращает nil, если поля image нет
func readImage(r *http.Request) (*Image, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errBadMultipart
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errBadMultipart
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	return &Image{Data: data, ContentType: strings.ToLower(contentType), Filename: header.Filename}, nil
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return "", false
	}
	return userID, true
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
