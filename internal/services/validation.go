package services

import (
	"reflect"

	"example.com/backstage/foodshare/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrValidation marks input rejected before reaching storage
var ErrValidation = errors.New("validation failed")

// newValidator returns a validator that understands Date fields
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(models.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.String()
	}, models.Date{})
	return v
}

func (s *DashboardService) validate(input interface{}) error {
	if err := s.validator.Struct(input); err != nil {
		return errors.Wrap(ErrValidation, err.Error())
	}
	return nil
}
