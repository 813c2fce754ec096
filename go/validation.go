package marketserver

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	orderdomain "github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

var registerValidatorsOnce sync.Once

// registerValidators installs custom binding tags on gin's validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("order_status", validateOrderStatus)
	})
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	_, err := orderdomain.ParseStatus(fl.Field().String())
	return err == nil
}
