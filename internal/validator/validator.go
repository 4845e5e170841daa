package validator

import (
	"reflect"
	"strings"

	"github.com/edustep/progress-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with answer payload checks.
type Validator struct {
	structValidator *validator.Validate
	answerValidator *AnswerValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		answerValidator: NewAnswerValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Answer returns the answer payload validator
func (v *Validator) Answer() *AnswerValidator {
	return v.answerValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exercise_kind", validateExerciseKind)
	validate.RegisterValidation("practice_mode", validatePracticeMode)
	validate.RegisterValidation("activity_type", validateActivityType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateExerciseKind(fl validator.FieldLevel) bool {
	validKinds := []models.ExerciseKind{
		models.KindChoice,
		models.KindFillBlank,
		models.KindMatching,
		models.KindApplication,
	}

	value := fl.Field().String()
	for _, validKind := range validKinds {
		if string(validKind) == value {
			return true
		}
	}
	return false
}

func validatePracticeMode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.ModeNormal) || value == string(models.ModeUnlockTest)
}

func validateActivityType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "study" || value == "practice"
}
