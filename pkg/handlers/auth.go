package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/auth"
)

// AuthHandler handles account registration and login.
type AuthHandler struct {
	authService auth.Service
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
// Both endpoints are public.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, authResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	}); err != nil {
		h.logger.Error("Failed to encode register response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "User not registered")
		return
	}
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, authResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	}); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}
