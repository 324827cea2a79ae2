package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/tasknest/tasknest/internal/platform/httpx"
	"github.com/tasknest/tasknest/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: shared.NewValidator(),
	}
}

// MountRoutes registers signup and login on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
}

// MountUserRoutes registers routes for the authenticated user. The router
// must already enforce RequireBearer.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "signup", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user.Public())
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.service.TokenTTL().Seconds()),
		User:        session.User.Public(),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "current user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthenticated),
		errors.Is(err, shared.ErrDuplicateEmail), errors.Is(err, shared.ErrTooManyAttempts):
		h.logger.Info(op+" rejected", slog.String("reason", err.Error()))
	default:
		h.logger.Error(op+" failed", slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
	}
	httpx.RespondError(w, err)
}
