package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/formwise/formwise/apperr"
)

// FieldKind is the closed set of supported field types.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindParagraph   FieldKind = "paragraph"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multi_select"
	KindDropdown    FieldKind = "dropdown"
	KindDate        FieldKind = "date"
	KindEmail       FieldKind = "email"
	KindNumber      FieldKind = "number"
	KindURL         FieldKind = "url"
)

func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindParagraph, KindSelect, KindMultiSelect, KindDropdown,
		KindDate, KindEmail, KindNumber, KindURL:
		return true
	}
	return false
}

const (
	defaultTextMaxLength      = 50
	defaultParagraphMaxLength = 500
	defaultPrecision          = 2

	maxLabelLength    = 100
	maxHelpTextLength = 200
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID returns an 8-character random alphanumeric identifier.
func NewID() string {
	b := make([]byte, 8)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand is never expected to fail
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b)
}

// NewTag returns a fresh field tag of the form "{kind}-{random8}".
func NewTag(kind FieldKind) string {
	return string(kind) + "-" + NewID()
}

// Constraints holds the per-kind extra attributes of a field. Attributes
// not applicable to the field's kind are left nil and ignored.
type Constraints struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Options   []string `json:"options,omitempty"`
	MinDate   *Date    `json:"min_date,omitempty"`
	MaxDate   *Date    `json:"max_date,omitempty"`
	MinValue  *float64 `json:"min_value,omitempty"`
	MaxValue  *float64 `json:"max_value,omitempty"`
	Precision *int     `json:"precision,omitempty"`
}

// Field is one typed question within a form.
type Field struct {
	Kind     FieldKind `json:"type"`
	Tag      string    `json:"tag,omitempty"`
	Label    string    `json:"label"`
	HelpText string    `json:"help_text,omitempty"`
	Required *bool     `json:"required,omitempty"`
	Constraints
}

func (f *Field) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// Validate normalizes the field definition in place (defaults, trimming,
// option de-duplication, tag generation) and reports the first violated
// constraint as a ConstraintError.
func (f *Field) Validate() error {
	if !f.Kind.Valid() {
		return apperr.Constraintf("unknown field type %q", string(f.Kind))
	}

	f.Label = strings.TrimSpace(f.Label)
	if f.Label == "" || len(f.Label) > maxLabelLength {
		return apperr.Constraintf("label must be between 1 and %d characters", maxLabelLength)
	}

	f.HelpText = strings.TrimSpace(f.HelpText)
	if len(f.HelpText) > maxHelpTextLength {
		return apperr.Constraintf("help_text cannot exceed %d characters", maxHelpTextLength)
	}

	if f.Required == nil {
		required := true
		f.Required = &required
	}

	switch f.Kind {
	case KindText, KindParagraph:
		if err := f.validateLengthConstraints(); err != nil {
			return err
		}
	case KindSelect, KindDropdown, KindMultiSelect:
		if err := f.validateOptions(); err != nil {
			return err
		}
	case KindDate:
		if f.MinDate != nil && f.MaxDate != nil && f.MinDate.After(f.MaxDate.Time) {
			return apperr.Constraint("min_date cannot exceed max_date")
		}
	case KindNumber:
		if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
			return apperr.Constraint("min_value cannot exceed max_value")
		}
		if f.Precision == nil {
			precision := defaultPrecision
			f.Precision = &precision
		} else if *f.Precision < 0 {
			return apperr.Constraint("precision cannot be negative")
		}
	}

	if f.Tag == "" {
		f.Tag = NewTag(f.Kind)
	}
	return nil
}

func (f *Field) validateLengthConstraints() error {
	if f.MinLength == nil {
		minLength := 1
		f.MinLength = &minLength
	}
	if f.MaxLength == nil {
		maxLength := defaultTextMaxLength
		if f.Kind == KindParagraph {
			maxLength = defaultParagraphMaxLength
		}
		f.MaxLength = &maxLength
	}
	if *f.MinLength < 1 || *f.MaxLength < 1 {
		return apperr.Constraint("length constraints must be positive")
	}
	if *f.MinLength > *f.MaxLength {
		return apperr.Constraint("min_length cannot exceed max_length")
	}
	return nil
}

func (f *Field) validateOptions() error {
	seen := make(map[string]struct{}, len(f.Options))
	unique := f.Options[:0]
	for _, opt := range f.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return apperr.Constraint("options cannot be empty strings")
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		unique = append(unique, opt)
	}
	f.Options = unique
	if len(f.Options) == 0 {
		return apperr.Constraint("options cannot be empty")
	}
	return nil
}

var answerValidator = validator.New()

// ValidateAnswer checks a raw submitted value against the field's kind and
// constraints, returning the validated (possibly transformed) value. Errors
// are plain messages suitable for a per-tag error map.
func (f *Field) ValidateAnswer(raw any) (any, error) {
	switch f.Kind {
	case KindText, KindParagraph:
		return f.validateTextAnswer(raw)
	case KindSelect, KindDropdown:
		return f.validateChoiceAnswer(raw)
	case KindMultiSelect:
		return f.validateMultiChoiceAnswer(raw)
	case KindDate:
		return f.validateDateAnswer(raw)
	case KindEmail:
		return f.validateEmailAnswer(raw)
	case KindNumber:
		return f.validateNumberAnswer(raw)
	case KindURL:
		return f.validateURLAnswer(raw)
	}
	return nil, fmt.Errorf("unknown field type %q", string(f.Kind))
}

func (f *Field) validateTextAnswer(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, errors.New("Answer must be a string.")
	}
	if n := len([]rune(s)); n < *f.MinLength || n > *f.MaxLength {
		return nil, fmt.Errorf(
			"Answer length must be between %d and %d characters.",
			*f.MinLength, *f.MaxLength,
		)
	}
	return s, nil
}

func (f *Field) validateChoiceAnswer(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok || !f.hasOption(s) {
		return nil, errors.New("Answer must be one of the available options.")
	}
	return s, nil
}

func (f *Field) validateMultiChoiceAnswer(raw any) (any, error) {
	var selections []string
	switch v := raw.(type) {
	case string:
		selections = []string{v}
	case []string:
		selections = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("All selections must be from available options.")
			}
			selections = append(selections, s)
		}
	default:
		return nil, errors.New("All selections must be from available options.")
	}

	for _, s := range selections {
		if !f.hasOption(s) {
			return nil, errors.New("All selections must be from available options.")
		}
	}
	return selections, nil
}

func (f *Field) hasOption(s string) bool {
	for _, opt := range f.Options {
		if opt == s {
			return true
		}
	}
	return false
}

func (f *Field) validateDateAnswer(raw any) (any, error) {
	var answer Date
	switch v := raw.(type) {
	case Date:
		answer = v
	case time.Time:
		answer = Date{v}
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return nil, errors.New("Invalid date format. Use YYYY-MM-DD")
		}
		answer = parsed
	default:
		return nil, errors.New("Invalid date format. Use YYYY-MM-DD")
	}

	if f.MinDate != nil && answer.Before(f.MinDate.Time) {
		return nil, fmt.Errorf("Date must be on or after %s", f.MinDate)
	}
	if f.MaxDate != nil && answer.After(f.MaxDate.Time) {
		return nil, fmt.Errorf("Date must be on or before %s", f.MaxDate)
	}
	return answer, nil
}

func (f *Field) validateEmailAnswer(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, errors.New("Answer must be a valid email address.")
	}
	s = strings.TrimSpace(s)
	if err := answerValidator.Var(s, "required,email"); err != nil {
		return nil, errors.New("Answer must be a valid email address.")
	}
	// Normalized form: the domain part is case-insensitive.
	at := strings.LastIndex(s, "@")
	return s[:at+1] + strings.ToLower(s[at+1:]), nil
}

func (f *Field) validateNumberAnswer(raw any) (any, error) {
	var answer float64
	switch v := raw.(type) {
	case float64:
		answer = v
	case int:
		answer = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.New("Answer must be a valid number.")
		}
		answer = parsed
	default:
		return nil, errors.New("Answer must be a valid number.")
	}

	if f.MinValue != nil && answer < *f.MinValue {
		return nil, fmt.Errorf("Answer must be >= %v.", *f.MinValue)
	}
	if f.MaxValue != nil && answer > *f.MaxValue {
		return nil, fmt.Errorf("Answer must be <= %v.", *f.MaxValue)
	}

	// Rounding only ever affects fractional values, so integers pass
	// through unchanged.
	pow := math.Pow10(*f.Precision)
	return math.Round(answer*pow) / pow, nil
}

func (f *Field) validateURLAnswer(raw any) (any, error) {
	errInvalid := errors.New("Answer must be a valid URL. Example: https://example.com")

	s, ok := raw.(string)
	if !ok {
		return nil, errInvalid
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errInvalid
	}
	return u.String(), nil
}
