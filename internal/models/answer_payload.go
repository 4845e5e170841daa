package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

type ExerciseKind string

const (
	KindChoice      ExerciseKind = "choice"
	KindFillBlank   ExerciseKind = "fill_blank"
	KindMatching    ExerciseKind = "matching"
	KindApplication ExerciseKind = "application"
)

// Per-kind payload shapes. A submission (and a catalog correct-answer spec)
// carries exactly one of these, selected by the exercise kind.

type ChoiceAnswer struct {
	SelectedOption int `json:"selected_option" validate:"min=0"`
}

type FillBlankAnswer struct {
	Texts []string `json:"texts" validate:"required,min=1"`
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingAnswer struct {
	Pairs []MatchPair `json:"pairs" validate:"required,min=1"`
}

type ApplicationAnswer struct {
	Text      string   `json:"text"`
	ImageRefs []string `json:"image_refs,omitempty"`
}

// AnswerPayload is the tagged union over the per-kind shapes. Exactly one
// pointer is non-nil, matching Kind.
type AnswerPayload struct {
	Kind        ExerciseKind       `json:"kind"`
	Choice      *ChoiceAnswer      `json:"choice,omitempty"`
	FillBlank   *FillBlankAnswer   `json:"fill_blank,omitempty"`
	Matching    *MatchingAnswer    `json:"matching,omitempty"`
	Application *ApplicationAnswer `json:"application,omitempty"`
}

// ParseAnswerPayload decodes a raw JSONB payload into the shape for kind.
func ParseAnswerPayload(kind ExerciseKind, raw datatypes.JSON) (*AnswerPayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty answer payload for kind %s", kind)
	}

	p := &AnswerPayload{Kind: kind}
	switch kind {
	case KindChoice:
		p.Choice = &ChoiceAnswer{}
		if err := json.Unmarshal(raw, p.Choice); err != nil {
			return nil, fmt.Errorf("invalid choice payload: %w", err)
		}
	case KindFillBlank:
		p.FillBlank = &FillBlankAnswer{}
		if err := json.Unmarshal(raw, p.FillBlank); err != nil {
			return nil, fmt.Errorf("invalid fill_blank payload: %w", err)
		}
	case KindMatching:
		p.Matching = &MatchingAnswer{}
		if err := json.Unmarshal(raw, p.Matching); err != nil {
			return nil, fmt.Errorf("invalid matching payload: %w", err)
		}
	case KindApplication:
		p.Application = &ApplicationAnswer{}
		if err := json.Unmarshal(raw, p.Application); err != nil {
			return nil, fmt.Errorf("invalid application payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown exercise kind %q", kind)
	}

	return p, nil
}

// Matches reports whether the payload satisfies the correct-answer spec.
// Both payloads must share the same kind; comparison is kind-specific.
func (p *AnswerPayload) Matches(spec *AnswerPayload) bool {
	if p == nil || spec == nil || p.Kind != spec.Kind {
		return false
	}

	switch p.Kind {
	case KindChoice:
		return matchChoice(p.Choice, spec.Choice)
	case KindFillBlank:
		return matchFillBlank(p.FillBlank, spec.FillBlank)
	case KindMatching:
		return matchMatching(p.Matching, spec.Matching)
	case KindApplication:
		return matchApplication(p.Application, spec.Application)
	default:
		return false
	}
}

func matchChoice(got, want *ChoiceAnswer) bool {
	if got == nil || want == nil {
		return false
	}
	return got.SelectedOption == want.SelectedOption
}

// Fill-blank answers compare blank by blank, case-insensitive and
// whitespace-trimmed, in order.
func matchFillBlank(got, want *FillBlankAnswer) bool {
	if got == nil || want == nil || len(got.Texts) != len(want.Texts) {
		return false
	}
	for i := range want.Texts {
		if !strings.EqualFold(strings.TrimSpace(got.Texts[i]), strings.TrimSpace(want.Texts[i])) {
			return false
		}
	}
	return true
}

// Matching pairs compare as a set: every expected pair must be present and
// no extras allowed, regardless of order.
func matchMatching(got, want *MatchingAnswer) bool {
	if got == nil || want == nil || len(got.Pairs) != len(want.Pairs) {
		return false
	}
	expected := make(map[MatchPair]int, len(want.Pairs))
	for _, pair := range want.Pairs {
		expected[pair]++
	}
	for _, pair := range got.Pairs {
		if expected[pair] == 0 {
			return false
		}
		expected[pair]--
	}
	return true
}

// Application (free-form / image) answers cannot be auto-compared; a
// submission only matches when the spec text is non-empty and equal after
// trimming. Image-only applications are graded client-side or by review.
func matchApplication(got, want *ApplicationAnswer) bool {
	if got == nil || want == nil || want.Text == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(got.Text), strings.TrimSpace(want.Text))
}

// JSON renders the payload body (without the kind tag) for storage.
func (p *AnswerPayload) JSON() (datatypes.JSON, error) {
	var body interface{}
	switch p.Kind {
	case KindChoice:
		body = p.Choice
	case KindFillBlank:
		body = p.FillBlank
	case KindMatching:
		body = p.Matching
	case KindApplication:
		body = p.Application
	default:
		return nil, fmt.Errorf("unknown exercise kind %q", p.Kind)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
