package comments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/worktrack/worktrack/internal/authz"
	"github.com/worktrack/worktrack/internal/platform/httpx"
	"github.com/worktrack/worktrack/internal/worksessions"
)

// WorkSessionLoader fetches the work session a new comment targets.
type WorkSessionLoader interface {
	GetByID(ctx context.Context, id int64) (worksessions.WorkSession, error)
}

// Handler wires HTTP endpoints for comments. Every route expects an
// authenticated principal in context.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions WorkSessionLoader
	engine   *authz.Engine
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions WorkSessionLoader, engine *authz.Engine) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		engine:   engine,
		validate: validator.New(),
	}
}

// MountRoutes registers comment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	policies := authz.Middleware{Engine: h.engine, Logger: h.logger}

	r.Group(func(r chi.Router) {
		r.Use(policies.Require(authz.PolicyCompanyOnly))
		r.Post("/", h.create)
	})
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createCommentRequest struct {
	WorkSessionID int64  `json:"workSessionId" validate:"required,gt=0"`
	Content       string `json:"content" validate:"required,max=2000"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type commentResponse struct {
	ID            int64     `json:"id"`
	WorkSessionID int64     `json:"workSessionId"`
	CompanyID     int64     `json:"companyId"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toCommentResponse(c Comment) commentResponse {
	return commentResponse{
		ID:            c.ID,
		WorkSessionID: c.WorkSessionID,
		CompanyID:     c.CompanyID,
		Content:       c.Content,
		CreatedAt:     c.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req createCommentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ws, err := h.sessions.GetByID(r.Context(), req.WorkSessionID)
	if err != nil {
		if errors.Is(err, worksessions.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "work session not found")
			return
		}
		h.logger.Error("load work session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if !h.authorize(w, r, authz.PolicyCanCommentOnWorkSession, ws.Resource()) {
		return
	}

	comment, err := h.service.Create(r.Context(), ws.ID, principal.ID, req.Content)
	if err != nil {
		if errors.Is(err, ErrAlreadyCommented) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "work session already has a comment")
			return
		}
		h.logger.Error("create comment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCommentResponse(comment))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyCanViewComment, comment.Resource()) {
		return
	}
	httpx.JSON(w, http.StatusOK, toCommentResponse(comment))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyIsCommentOwner, comment.Resource()) {
		return
	}

	var req updateCommentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), comment, req.Content)
	if err != nil {
		h.logger.Error("update comment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCommentResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, authz.PolicyIsCommentOwner, comment.Resource()) {
		return
	}
	if err := h.service.Delete(r.Context(), comment); err != nil {
		h.logger.Error("delete comment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) loadComment(w http.ResponseWriter, r *http.Request) (Comment, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid comment id")
		return Comment{}, false
	}
	comment, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "comment not found")
			return Comment{}, false
		}
		h.logger.Error("load comment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return Comment{}, false
	}
	return comment, true
}

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
