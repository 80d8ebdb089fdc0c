package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sleepoutside/backend/internal/middleware"
	"github.com/sleepoutside/backend/internal/models"
)

const adminSubject = "admin"

type AuthHandler struct {
	passwordHash []byte
	tokens       *middleware.JWTVerifier
	logger       *zap.Logger
}

// NewAuthHandler takes the bcrypt hash of the admin password. An empty
// hash disables password login.
func NewAuthHandler(passwordHash string, tokens *middleware.JWTVerifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		logger:       logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if len(h.passwordHash) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Admin login is not configured"))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		h.logger.Warn("admin login rejected", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid password"))
		return
	}

	token, expiresAt, err := h.tokens.Issue(adminSubject)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to generate token"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}))
}
