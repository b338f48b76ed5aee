package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"postboard/internal/logging"
	"postboard/internal/services"
)

type AuthController struct {
	responder
	identity *services.IdentityService
}

func NewAuthController(identity *services.IdentityService, log logging.Logger, exposeInternal bool) *AuthController {
	return &AuthController{
		responder: responder{log: log, exposeInternal: exposeInternal},
		identity:  identity,
	}
}

// SignUp: name + email + password
func (a *AuthController) SignUp(c *gin.Context) {
	var in services.SignUpInput
	if !a.bind(c, &in) {
		return
	}
	user, err := a.identity.SignUp(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusCreated, gin.H{"message": "User created successfully.", "user": user})
}

// Login: email + password (+ remember_me) -> bearer token
func (a *AuthController) Login(c *gin.Context) {
	var in services.LoginInput
	if !a.bind(c, &in) {
		return
	}
	issued, err := a.identity.Login(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusOK, gin.H{
		"access_token": issued.AccessToken,
		"token_type":   issued.TokenType,
		"expires_at":   issued.ExpiresAt,
	})
}

func (a *AuthController) Logout(c *gin.Context) {
	if err := a.identity.Logout(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusOK, gin.H{"message": "Successfully logged out."})
}

// User returns the authenticated user.
func (a *AuthController) User(c *gin.Context) {
	user, err := a.identity.CurrentUser(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusOK, gin.H{"data": user})
}

type verifyPayload struct {
	Code string `json:"code"`
}

func (a *AuthController) VerifyEmail(c *gin.Context) {
	var p verifyPayload
	if !a.bind(c, &p) {
		return
	}
	if err := a.identity.VerifyEmail(c.Request.Context(), p.Code); err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusOK, gin.H{"message": "Email verified."})
}

func (a *AuthController) ResendVerification(c *gin.Context) {
	if err := a.identity.ResendVerification(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	a.ok(c, http.StatusOK, gin.H{"message": "Verification code sent."})
}
