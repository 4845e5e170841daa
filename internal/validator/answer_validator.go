package validator

import (
	"encoding/json"
	"fmt"

	"github.com/edustep/progress-service/internal/models"
	"gorm.io/datatypes"
)

// AnswerValidator checks that a submitted answer body matches the shape
// required by the exercise kind before it is stored.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// ValidateBody validates a raw answer body against the exercise kind.
func (v *AnswerValidator) ValidateBody(kind models.ExerciseKind, body datatypes.JSON) error {
	if len(body) == 0 {
		return fmt.Errorf("answer body cannot be empty")
	}

	switch kind {
	case models.KindChoice:
		return v.validateChoiceBody(body)
	case models.KindFillBlank:
		return v.validateFillBlankBody(body)
	case models.KindMatching:
		return v.validateMatchingBody(body)
	case models.KindApplication:
		return v.validateApplicationBody(body)
	default:
		return fmt.Errorf("unsupported exercise kind: %s", kind)
	}
}

func (v *AnswerValidator) validateChoiceBody(body []byte) error {
	var answer models.ChoiceAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("invalid choice answer: %w", err)
	}
	if answer.SelectedOption < 0 {
		return fmt.Errorf("selected option cannot be negative")
	}
	return nil
}

func (v *AnswerValidator) validateFillBlankBody(body []byte) error {
	var answer models.FillBlankAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("invalid fill-blank answer: %w", err)
	}
	if len(answer.Texts) == 0 {
		return fmt.Errorf("must fill at least one blank")
	}
	return nil
}

func (v *AnswerValidator) validateMatchingBody(body []byte) error {
	var answer models.MatchingAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("invalid matching answer: %w", err)
	}
	if len(answer.Pairs) == 0 {
		return fmt.Errorf("must submit at least one pair")
	}
	for i, pair := range answer.Pairs {
		if pair.Left == "" || pair.Right == "" {
			return fmt.Errorf("pair %d has an empty side", i+1)
		}
	}
	return nil
}

func (v *AnswerValidator) validateApplicationBody(body []byte) error {
	var answer models.ApplicationAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("invalid application answer: %w", err)
	}
	if answer.Text == "" && len(answer.ImageRefs) == 0 {
		return fmt.Errorf("must submit text or at least one image")
	}
	return nil
}
