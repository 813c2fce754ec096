package marketserver

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Apurer/go-gin-marketplace/internal/shared/errors"
)

// pathParam binds a simple-style path parameter the way generated servers do.
func pathParam(c *gin.Context, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, c.Param(name), &value)
	if err == nil && strings.TrimSpace(value) == "" {
		err = fmt.Errorf("parameter %s is empty", name)
	}
	if err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter %s: %v", name, err)))
		return "", false
	}
	return strings.TrimSpace(value), true
}
