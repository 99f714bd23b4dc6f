package worksessions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/worktrack/worktrack/internal/authz"
	"github.com/worktrack/worktrack/internal/platform/httpx"
)

// Handler wires HTTP endpoints for work sessions. Every route expects an
// authenticated principal in context.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	engine   *authz.Engine
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, engine *authz.Engine) *Handler {
	return &Handler{logger: logger, service: service, engine: engine, validate: validator.New()}
}

// MountRoutes registers work session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	policies := authz.Middleware{Engine: h.engine, Logger: h.logger}

	r.Group(func(r chi.Router) {
		r.Use(policies.Require(authz.PolicyStudentOnly))
		r.Post("/", h.create)
	})
	r.Get("/student/{studentID}", h.listForStudent)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Group(func(r chi.Router) {
		r.Use(policies.Require(authz.PolicyCompanyOnly))
		r.Post("/verify/{id}", h.verify)
	})
}

type sessionRequest struct {
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	Description string    `json:"description" validate:"max=2000"`
}

type sessionResponse struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"studentId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Verified    bool      `json:"verified"`
	Description string    `json:"description"`
}

func toSessionResponse(ws WorkSession) sessionResponse {
	return sessionResponse{
		ID:          ws.ID,
		StudentID:   ws.StudentID,
		StartTime:   ws.StartTime,
		EndTime:     ws.EndTime,
		Verified:    ws.Verified,
		Description: ws.Description,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req sessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ws, err := h.service.Create(r.Context(), principal.ID, CreateParams{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	})
	if err != nil {
		h.respondServiceError(w, err, "create work session")
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(ws))
}

func (h *Handler) listForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid student id")
		return
	}
	if !h.authorize(w, r, authz.PolicyCanAccessStudentData, authz.StudentIDResource{StudentID: studentID}) {
		return
	}

	sessions, err := h.service.ListForStudent(r.Context(), studentID)
	if err != nil {
		h.respondServiceError(w, err, "list work sessions")
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, ws := range sessions {
		out = append(out, toSessionResponse(ws))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyIsWorkSessionOwner, ws.Resource()) {
		return
	}

	var req sessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), ws, UpdateParams{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	})
	if err != nil {
		h.respondServiceError(w, err, "update work session")
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyIsWorkSessionOwner, ws.Resource()) {
		return
	}
	if err := h.service.Delete(r.Context(), ws); err != nil {
		h.respondServiceError(w, err, "delete work session")
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyCanVerifyWorkSession, ws.Resource()) {
		return
	}
	verified, err := h.service.Verify(r.Context(), ws)
	if err != nil {
		h.respondServiceError(w, err, "verify work session")
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(verified))
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (WorkSession, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid work session id")
		return WorkSession{}, false
	}
	ws, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "work session not found")
			return WorkSession{}, false
		}
		h.respondServiceError(w, err, "load work session")
		return WorkSession{}, false
	}
	return ws, true
}

// authorize runs one policy evaluation and writes the failure response when
// the caller may not proceed. Deny maps to 403; engine errors are defects or
// authentication problems, never denials.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, policy authz.Policy, res authz.Resource) bool {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return false
	}
	decision, err := h.engine.Authorize(r.Context(), principal, policy, res)
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrInvalidPrincipal):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		case errors.Is(err, authz.ErrMalformedResource):
			h.logger.Error("authorization contract violation", slog.String("policy", string(policy)), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		default:
			h.logger.Error("authorize", slog.String("policy", string(policy)), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return false
	}
	if !decision.Allowed() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you are not authorized for this operation")
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "work session not found")
	case errors.Is(err, ErrInvalidTimeRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
