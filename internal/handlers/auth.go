package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/jcastel/authbase/internal/auth"
	"github.com/jcastel/authbase/internal/middleware"
	appErrors "github.com/jcastel/authbase/pkg/errors"
	"github.com/jcastel/authbase/pkg/metrics"
	"github.com/jcastel/authbase/pkg/response"
)

// AuthHandler exposes the credential workflows over HTTP.
type AuthHandler struct {
	credentials *iauth.CredentialService
}

// NewAuthHandler wires the credential service into the HTTP layer.
func NewAuthHandler(credentials *iauth.CredentialService) (*AuthHandler, error) {
	if credentials == nil {
		return nil, errors.New("auth handler: credential service is required")
	}
	return &AuthHandler{credentials: credentials}, nil
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.credentials.SignUp(c.Request.Context(), iauth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}); err != nil {
		metrics.Signups.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.Signups.WithLabelValues("success").Inc()
	response.Message(c, http.StatusCreated, iauth.MsgSignupSuccess)
}

// GET /api/auth/verify?token=...
// The route shape matches the link embedded in verification emails.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.NewBadRequest("token query parameter is required"))
		return
	}

	if err := h.credentials.VerifyEmail(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, iauth.MsgEmailVerified)
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/signin
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.credentials.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.SigninAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.SigninAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"message": iauth.MsgSignedIn,
		"token":   result.Token,
		"user":    result.User,
	})
}

// POST /api/auth/signout
func (h *AuthHandler) Signout(c *gin.Context) {
	authz := c.GetHeader("Authorization")
	token := ""
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		token = strings.TrimSpace(authz[7:])
	}

	if err := h.credentials.SignOut(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, iauth.MsgSignedOut)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.credentials.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"message": result.Message}
	if result.Token != "" {
		payload["token"] = result.Token
	}

	response.Success(c, http.StatusOK, payload)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.credentials.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, iauth.MsgPasswordReset)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		response.Error(c, appErrors.ErrTokenMissing)
		return
	}

	tokenClaims, ok := claims.(*iauth.Claims)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":    tokenClaims.UserID,
		"email": tokenClaims.Email,
	})
}
