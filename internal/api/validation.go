package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"vyap-onboarding-go/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the onboarding tags to gin's validator engine.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("onboarding_field", validateOnboardingField); err != nil {
			return
		}
		err = v.RegisterValidation("selling_channel", validateSellingChannel)
	})
	return err
}

func validateOnboardingField(fl validator.FieldLevel) bool {
	return models.FieldKey(fl.Field().String()).IsValid()
}

func validateSellingChannel(fl validator.FieldLevel) bool {
	return models.IsSellingChannel(fl.Field().String())
}
