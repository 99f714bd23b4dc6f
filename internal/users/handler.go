package users

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
)

// Handler wires HTTP endpoints for account flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountPublicRoutes registers the unauthenticated account routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/register/student", h.registerStudent)
	r.Post("/register/company", h.registerCompany)
	r.Get("/verify-email", h.verifyEmailLink)
	r.Post("/verify-email", h.verifyEmail)
	r.Post("/resend-verification/{userID}", h.resendVerification)
}

// MountProtectedRoutes registers routes that require an authenticated
// principal in the request context.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/company/{companyID}/totp-setup", h.totpSetup)
	r.Get("/company/{companyID}/students", h.companyStudents)
	r.Post("/connect-to-company", h.connectToCompany)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CompanyID     *int64    `json:"companyId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role.String(),
		EmailVerified: u.EmailVerified,
		CompanyID:     u.CompanyID,
		CreatedAt:     u.CreatedAt,
	}
}

func (h *Handler) registerStudent(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterStudent)
}

func (h *Handler) registerCompany(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterCompany)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, create func(context.Context, RegisterParams) (User, error)) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := create(r.Context(), RegisterParams{Email: req.Email, Name: req.Name, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	h.completeVerification(w, r, req.Token)
}

// verifyEmailLink handles the link delivered in the verification email.
func (h *Handler) verifyEmailLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing token")
		return
	}
	h.completeVerification(w, r, token)
}

func (h *Handler) completeVerification(w http.ResponseWriter, r *http.Request, token string) {
	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrAlreadyVerified):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		default:
			h.logger.Error("verify email", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.ResendVerification(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		case errors.Is(err, ErrAlreadyVerified):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("resend verification", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *Handler) totpSetup(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.selfScopedID(w, r, "companyID")
	if !ok {
		return
	}
	code, err := h.service.TOTPCode(r.Context(), companyID)
	if err != nil {
		h.respondServiceError(w, err, "totp setup")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"totpCode": code})
}

type connectRequest struct {
	StudentID int64  `json:"studentId" validate:"required,gt=0"`
	CompanyID int64  `json:"companyId" validate:"required,gt=0"`
	TotpCode  string `json:"totpCode" validate:"required,len=6"`
}

func (h *Handler) connectToCompany(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req connectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// Only the student themself may establish the affiliation.
	if principal.ID != req.StudentID {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you can only connect your own account")
		return
	}

	if err := h.service.ConnectStudentToCompany(r.Context(), req.StudentID, req.CompanyID, req.TotpCode); err != nil {
		switch {
		case errors.Is(err, ErrInvalidTOTP), errors.Is(err, ErrWrongRole):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "student or company not found")
		default:
			h.logger.Error("connect to company", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (h *Handler) companyStudents(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.selfScopedID(w, r, "companyID")
	if !ok {
		return
	}
	roster, err := h.service.CompanyWithStudents(r.Context(), companyID)
	if err != nil {
		h.respondServiceError(w, err, "company students")
		return
	}

	students := make([]userResponse, 0, len(roster.Students))
	for _, s := range roster.Students {
		students = append(students, toUserResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"company":  toUserResponse(roster.Company),
		"students": students,
	})
}

// selfScopedID parses the path id and rejects callers targeting anyone but
// themselves. These routes mirror account-owner operations, so there is no
// engine policy behind them, only the identity check.
func (h *Handler) selfScopedID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	if principal.ID != id {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you can only access your own account")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case errors.Is(err, ErrWrongRole):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
