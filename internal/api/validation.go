package api

import (
	"errors"

	"airline-reservation/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// registerValidators adds the domain tags used in request binding
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("seatclass", func(fl validator.FieldLevel) bool {
		return models.SeatClass(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("refundreason", func(fl validator.FieldLevel) bool {
		return models.ValidRefundReason(fl.Field().String())
	})
}
