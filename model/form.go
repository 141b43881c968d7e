package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/formwise/formwise/apperr"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 300
)

// FormCreate is the payload for creating a form, either directly or out of
// the generation collaborator.
type FormCreate struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Validate normalizes the definition and enforces form-wide invariants:
// title and description bounds, the field-count ceiling, per-field
// constraint schemas, and pairwise-distinct field tags.
func (fc *FormCreate) Validate(maxFields int) error {
	fc.Title = strings.TrimSpace(fc.Title)
	if fc.Title == "" || len(fc.Title) > maxTitleLength {
		return apperr.Constraintf("title must be between 1 and %d characters", maxTitleLength)
	}

	fc.Description = strings.TrimSpace(fc.Description)
	if len(fc.Description) > maxDescriptionLength {
		return apperr.Constraintf("description cannot exceed %d characters", maxDescriptionLength)
	}

	if len(fc.Fields) > maxFields {
		return apperr.LimitExceededf("Maximum number of fields (%d) exceeded.", maxFields)
	}

	var result *multierror.Error
	for i := range fc.Fields {
		if err := fc.Fields[i].Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: %w", i, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return apperr.Constraint(err.Error())
	}

	dedupeTags(fc.Fields)
	return nil
}

// dedupeTags regenerates duplicate tags in order, keeping the first
// occurrence. A regenerated tag is re-checked against the seen set, so even
// a random collision cannot produce a duplicate.
func dedupeTags(fields []Field) {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		f := &fields[i]
		for {
			if _, dup := seen[f.Tag]; !dup {
				break
			}
			f.Tag = NewTag(f.Kind)
		}
		seen[f.Tag] = struct{}{}
	}
}

// Form is a creator-owned ordered collection of fields plus metadata.
type Form struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []Field     `json:"fields"`
	IsActive    bool        `json:"is_active"`
	CreatorID   string      `json:"-"`
	Creator     *UserPublic `json:"creator,omitempty"`
	// ResponseCount is only populated on the owner's detail view.
	ResponseCount *int      `json:"response_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewForm(fc FormCreate, creatorID string) *Form {
	return &Form{
		ID:          NewID(),
		Title:       fc.Title,
		Description: fc.Description,
		Fields:      fc.Fields,
		IsActive:    true,
		CreatorID:   creatorID,
		CreatedAt:   time.Now().UTC(),
	}
}

// FormUpdate is the payload for a partial form update; nil means unchanged.
type FormUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Fields      *[]Field `json:"fields"`
	IsActive    *bool    `json:"is_active"`
}

// FieldErrors maps field tags to validation messages.
type FieldErrors map[string]string

// SubmissionPolicy controls how required-field emptiness is judged.
type SubmissionPolicy struct {
	// ZeroIsEmpty treats literal 0 and false the same as a missing answer.
	ZeroIsEmpty bool
}

// ValidateSubmission validates an answer payload field by field, in field
// order. It aggregates all failures instead of stopping at the first one;
// answers for tags not in the form are silently ignored. Optional fields
// without an answer are recorded as nil.
func (f *Form) ValidateSubmission(answers map[string]any, policy SubmissionPolicy) (map[string]any, FieldErrors) {
	validated := make(map[string]any, len(f.Fields))
	fieldErrors := FieldErrors{}

	for i := range f.Fields {
		field := &f.Fields[i]

		raw, ok := answers[field.Tag]
		if !ok || isEmptyAnswer(raw, policy) {
			if field.IsRequired() {
				fieldErrors[field.Tag] = "This field is required."
			} else {
				validated[field.Tag] = nil
			}
			continue
		}

		value, err := field.ValidateAnswer(raw)
		if err != nil {
			fieldErrors[field.Tag] = err.Error()
			continue
		}
		validated[field.Tag] = value
	}

	return validated, fieldErrors
}

func isEmptyAnswer(raw any, policy SubmissionPolicy) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case bool:
		return policy.ZeroIsEmpty && !v
	case float64:
		return policy.ZeroIsEmpty && v == 0
	case int:
		return policy.ZeroIsEmpty && v == 0
	}
	return false
}
