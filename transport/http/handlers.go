package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// Message handles POST /auth/message: issue a single-use login message.
func (h *AuthHandlers) Message(c *gin.Context) {
	var req struct {
		PublicKey string `json:"publicKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.PublicKey)
	if err != nil {
		if errors.Is(err, core.ErrInvalidPublicKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid public key"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// Login handles POST /auth/login: exchange a signed challenge for a session
// token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		PublicKey string `json:"publicKey" binding:"required"`
		DID       string `json:"did"`
		Signature string `json:"signature" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.PublicKey, req.DID, req.Signature, req.Message)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Authentication failed"

		switch {
		case errors.Is(err, core.ErrInvalidPublicKey):
			status = http.StatusBadRequest
			msg = "Invalid public key"
		case errors.Is(err, core.ErrInvalidChallenge):
			status = http.StatusBadRequest
			msg = "Invalid challenge message"
		case errors.Is(err, core.ErrInvalidSignature):
			status = http.StatusUnauthorized
			msg = "Invalid signature"
		case errors.Is(err, core.ErrMessageExpired):
			status = http.StatusUnauthorized
			msg = "Message expired"
		case errors.Is(err, core.ErrChallengeConsumed):
			status = http.StatusUnauthorized
			msg = "Challenge already used"
		}

		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

// Verify handles GET /auth/verify. A bad or missing token is reported as
// {"valid": false} with 200, not as an error; verification is idempotent and
// side-effect free.
func (h *AuthHandlers) Verify(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusOK, core.VerifyResult{Valid: false})
		return
	}

	result, err := h.authService.VerifyToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Credentials handles GET /user/credentials: current credential status for
// the authenticated wallet.
func (h *AuthHandlers) Credentials(c *gin.Context) {
	publicKey, exists := c.Get(ContextPublicKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	status, err := h.authService.CredentialStatus(c.Request.Context(), publicKey.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"credentialStatus": status})
}

// Logout handles POST /auth/logout: revoke the presented session token.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, core.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
