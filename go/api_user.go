package marketserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/http/mapper"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

// UserAPI implements the user section.
type UserAPI struct {
	service userports.Service
}

// NewUserAPI wires dependencies.
func NewUserAPI(service userports.Service) UserAPI {
	return UserAPI{service: service}
}

// Get /api/users/:userId
// Returns the full account to its owner and the public profile to everyone else
func (api *UserAPI) GetUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "userId")
	if !ok {
		return
	}
	user, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if caller.UserID == user.ID || caller.IsAdmin {
		c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainProfile(user))
}

// Delete /api/users/:userId
// Deletes an account
func (api *UserAPI) DeleteUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "userId")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
