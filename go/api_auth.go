package marketserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/http/mapper"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

var timeNow = time.Now

// AuthAPI handles registration and sessions.
type AuthAPI struct {
	service userports.Service
	// secureCookie marks the access token cookie Secure; disable only for plain-HTTP development.
	secureCookie bool
}

// NewAuthAPI wires dependencies.
func NewAuthAPI(service userports.Service, secureCookie bool) AuthAPI {
	return AuthAPI{service: service, secureCookie: secureCookie}
}

// Post /api/auth/register
// Creates an account
func (api *AuthAPI) Register(c *gin.Context) {
	var payload userhttpmapper.RegisterUser
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := api.service.Register(c.Request.Context(), userhttpmapper.ToRegisterInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userhttpmapper.FromDomainUser(user))
}

// Post /api/auth/login
// Issues an access token, returned in the body and as an HTTP-only cookie
func (api *AuthAPI) Login(c *gin.Context) {
	var payload userhttpmapper.Credentials
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	result, err := api.service.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	maxAge := int(result.ExpiresAt.Sub(timeNow()).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, result.Token, maxAge, "/", "", api.secureCookie, true)
	c.JSON(http.StatusOK, userhttpmapper.FromLoginResult(result))
}

// Post /api/auth/logout
// Revokes every session of the caller
func (api *AuthAPI) Logout(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	if err := api.service.Logout(c.Request.Context(), caller.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", api.secureCookie, true)
	c.Status(http.StatusNoContent)
}
