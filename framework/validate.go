package framework

import (
	"reflect"
	"strings"

	en "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	validator "gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

// validate holds the settings and caches for validating structs.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator *ut.UniversalTranslator

func init() {
	// Instantiate validator.
	validate = validator.New()

	// Instantiate the english locale for the validator lib.
	enLocale := en.New()

	// Create a translator using english as the fallback locale (first arg).
	translator = ut.New(enLocale, enLocale)

	// Register english error messages for validation errors.
	lang, _ := translator.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, lang)

	// Use the template tag as the field name so errors name the placeholder that would be blank.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("template"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// ValidateStruct checks val against its `validate` tags and returns a *ValidationError listing every
// failing field.
func ValidateStruct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	lang, _ := translator.GetTranslator("en")

	fieldErrors := make([]FieldError, 0, len(verrors))
	for _, verror := range verrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field: verror.Field(),
			Error: verror.Translate(lang),
		})
	}
	return &ValidationError{Fields: fieldErrors}
}
