package handlers

import (
	"reflect"
	"sync"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/utils/taxid"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// decimals are validated through their string form
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("taxid", func(fl validator.FieldLevel) bool {
			return taxid.Validate(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && domain.HasCentPrecision(d)
		})
	})
}
