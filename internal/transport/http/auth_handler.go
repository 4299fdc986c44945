package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vendtune/internal/errors"
	"vendtune/internal/session"
	"vendtune/internal/validation"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	manager      *session.Manager
	validator    *validation.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(manager *session.Manager, validator *validation.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AuthHandler {
	return &AuthHandler{
		manager:      manager,
		validator:    validator,
		logger:       logger.With(slog.String("component", "auth_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the auth routes.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	return r
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	BusinessName  string `json:"business_name" validate:"required"`
	BusinessEmail string `json:"business_email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
}

// SignupResponse is the created account, without credentials.
type SignupResponse struct {
	BusinessID    string `json:"business_id"`
	BusinessName  string `json:"business_name"`
	BusinessEmail string `json:"business_email"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if fieldErrs := h.validator.Struct(req); fieldErrs != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrs))
		return
	}

	account, err := h.manager.Register(r.Context(), req.BusinessName, req.BusinessEmail, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "signup failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SignupResponse{
		BusinessID:    account.BusinessID,
		BusinessName:  account.BusinessName,
		BusinessEmail: account.BusinessEmail,
	})
}

// LoginRequest is the login payload.
type LoginRequest struct {
	BusinessEmail string `json:"business_email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
}

// LoginResponse carries the opaque session token.
type LoginResponse struct {
	Token      string    `json:"token"`
	BusinessID string    `json:"business_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if fieldErrs := h.validator.Struct(req); fieldErrs != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrs))
		return
	}

	sess, err := h.manager.Login(r.Context(), req.BusinessEmail, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			slog.String("email", req.BusinessEmail))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, LoginResponse{
		Token:      sess.Token,
		BusinessID: sess.BusinessID,
		ExpiresAt:  sess.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout. Unknown tokens are a no-op; logout
// always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		h.manager.Logout(parts[1])
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}
