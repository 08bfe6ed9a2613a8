package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/content"
)

const examDateLayout = "2006-01-02"

// Request is the operator's generation order. It is never persisted.
type Request struct {
	Subject           string   `json:"subject" validate:"required"`
	ClassNumber       string   `json:"class_number" validate:"required,oneof=10 12"`
	ExamDate          string   `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExamCode          string   `json:"exam_code,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
	RequestedTypes    []string `json:"requested_types" validate:"required,min=1,dive,required"`
	LengthTier        string   `json:"length_tier,omitempty" validate:"omitempty,oneof=small medium large"`
	SourceURL         string   `json:"source_url,omitempty" validate:"omitempty,url"`
}

// resolved is a validated request with defaults applied.
type resolved struct {
	Subject           string
	ClassNumber       string
	Category          content.Category
	ExamDate          time.Time
	ExamCode          string
	AdditionalContext string
	Types             []content.Type
	Tier              catalog.LengthTier
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports a ValidationError for malformed input without touching the network.
func (r Request) Validate() error {
	_, err := r.resolve(time.Now())
	return err
}

// resolve validates the request and applies defaults. now supplies the default exam date.
func (r Request) resolve(now time.Time) (*resolved, error) {
	r.Subject = strings.TrimSpace(r.Subject)
	r.ClassNumber = strings.TrimSpace(r.ClassNumber)

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, describeFieldError(fe))
			}
			return nil, content.NewValidationError(fields...)
		}
		return nil, content.NewValidationError(err.Error())
	}

	types := make([]content.Type, 0, len(r.RequestedTypes))
	seen := make(map[content.Type]bool)
	var problems []string
	for _, value := range r.RequestedTypes {
		t, err := content.ParseType(value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("requested_types: %v", err))
			continue
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if len(problems) > 0 {
		return nil, content.NewValidationError(problems...)
	}

	examDate := now
	if r.ExamDate != "" {
		// Already checked by the datetime tag.
		examDate, _ = time.ParseInLocation(examDateLayout, r.ExamDate, now.Location())
	}

	tier := catalog.LengthTier(r.LengthTier)
	if tier == "" {
		tier = catalog.TierMedium
	}

	return &resolved{
		Subject:           r.Subject,
		ClassNumber:       r.ClassNumber,
		Category:          content.CategoryForClass(r.ClassNumber),
		ExamDate:          examDate,
		ExamCode:          strings.TrimSpace(r.ExamCode),
		AdditionalContext: strings.TrimSpace(r.AdditionalContext),
		Types:             types,
		Tier:              tier,
	}, nil
}

func describeFieldError(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must not be empty"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return field + " must be a YYYY-MM-DD date"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
