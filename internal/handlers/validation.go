package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// registerValidations adds the custom binding tags used by the DTOs to
// gin's validator engine.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCurrencyCode(fl.Field().String())
		return err == nil
	})
}
