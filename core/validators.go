package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only letters, numbers and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	dateOnlyTag    = "dateonly"
	dateOnlyText   = "{0} must be a date in YYYY-MM-DD format"
	dateOnlyLayout = "2006-01-02"

	requiredWithTag  = "required_with"
	requiredWithText = "{0} is a required field"
)

// InitValidators wires the validator shared by all API payloads: errors are
// keyed by JSON field names and translated, custom tags added on top.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report errors under the JSON field name, not the Go struct field
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(dateOnlyTag, dateOnlyValidation)
	RegisterCustomTranslation(validate, translator, dateOnlyTag, dateOnlyText)

	// the default translation set carries no required_with message
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredWithText)
}

// RegisterCustomTranslation maps a validation tag to a fixed message; a {0}
// placeholder in the message is replaced with the (JSON) field name.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation restricts usernames and the like to letters,
// numbers and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// dateOnlyValidation accepts calendar dates without a time component, as
// carried by interview schedules and offer joining dates.
func dateOnlyValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateOnlyLayout, fl.Field().String())
	return err == nil
}
