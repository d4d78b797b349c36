package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/property-listings/middleware"
	"github.com/upb/property-listings/services"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap"
)

// RefreshRequest is the body of POST /api/token/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProbeResponse is returned by the guard probe
type ProbeResponse struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
}

// UserHandler handles registration, login, logout and token refresh
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// HandleRegister handles POST /api/register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in services.RegisterInput
	if utils.IsJSON(r) {
		if err := utils.DecodeJSON(r, &in); err != nil {
			HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
			return
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
		in.FullName = r.PostForm.Get("full_name")
	}

	result, err := h.users.Register(ctx, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("registration completed",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("user_id", result.User.ID.String()))

	_ = utils.WriteCreated(w, result, "Successfully Registered")
}

// HandleLogin handles POST /api/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if utils.IsJSON(r) {
		if err := utils.DecodeJSON(r, &in); err != nil {
			HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
			return
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
	}

	result, err := h.users.Login(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result, "Login successful")
}

// HandleLogout handles POST /api/logout. Every token issued before now stops working.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	if err := h.users.Logout(ctx, user.ID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, nil, "Logged out successfully")
}

// HandleRefresh handles POST /api/token/refresh
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
		return
	}

	result, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result, "")
}

// HandleMe handles GET /api/me and returns the current stored user record
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := middleware.GetUserIDFromContext(ctx)
	if id == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user, "")
}

// HandleProbe handles GET /api/test, a check that the caller passes the session guard
func (h *UserHandler) HandleProbe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	resp := ProbeResponse{UserID: user.ID.String(), Role: string(user.Role)}
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		resp.SessionID = claims.ID
	}
	_ = utils.WriteOK(w, resp, "Authorized")
}
