package Controllers

import (
	"math"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
}

// validateStruct returns human-readable messages for every failed field.
func validateStruct(input interface{}) []string {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(errs))
	for _, fieldError := range errs {
		messages = append(messages, fieldError.Translate(translator))
	}
	return messages
}

// Seasonality factors must describe a full year: 12 weights averaging 1.0,
// so their sum stays within [11.5, 12.5].
const (
	seasonalitySumTarget    = 12.0
	seasonalitySumTolerance = 0.5
)

func validSeasonalitySum(factors []float64) bool {
	if len(factors) == 0 {
		return true // absent means uniform
	}
	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return math.Abs(sum-seasonalitySumTarget) <= seasonalitySumTolerance
}
