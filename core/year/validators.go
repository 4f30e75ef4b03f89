package year

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	yearNameTag  = "yearname"
	yearNameText = "must be two consecutive years formatted as YYYY-YYYY"
)

// InitValidators registers this package's custom validators.
// core.InitValidators must have been called first.
func InitValidators() {
	_ = core.Validate.RegisterValidation(yearNameTag, yearNameValidation)
	core.RegisterCustomTranslation(yearNameTag, yearNameText)
}

func yearNameValidation(fl validator.FieldLevel) bool {
	_, _, err := ParseName(fl.Field().String())
	return err == nil
}
