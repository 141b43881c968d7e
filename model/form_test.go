package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/apperr"
)

const testMaxFields = 25

func TestFormCreateValidate(t *testing.T) {
	t.Run("valid form", func(t *testing.T) {
		fc := FormCreate{
			Title:       "  Customer Feedback  ",
			Description: "Tell us what you think",
			Fields: []Field{
				{Kind: KindText, Label: "Name"},
				{Kind: KindEmail, Label: "Email"},
			},
		}
		require.NoError(t, fc.Validate(testMaxFields))
		assert.Equal(t, "Customer Feedback", fc.Title)
		for _, f := range fc.Fields {
			assert.NotEmpty(t, f.Tag)
		}
	})

	t.Run("empty title", func(t *testing.T) {
		fc := FormCreate{Title: "   "}
		err := fc.Validate(testMaxFields)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConstraint, err.(*apperr.Error).Kind)
	})

	t.Run("overlong description", func(t *testing.T) {
		fc := FormCreate{Title: "Feedback", Description: strings.Repeat("a", 301)}
		assert.Error(t, fc.Validate(testMaxFields))
	})

	t.Run("field ceiling", func(t *testing.T) {
		fc := FormCreate{Title: "Feedback"}
		for i := 0; i <= testMaxFields; i++ {
			fc.Fields = append(fc.Fields, Field{Kind: KindText, Label: "Name"})
		}
		err := fc.Validate(testMaxFields)
		require.Error(t, err)
		appErr := err.(*apperr.Error)
		assert.Equal(t, apperr.KindLimitExceeded, appErr.Kind)
		assert.Equal(t, "Maximum number of fields (25) exceeded.", appErr.Message)
	})

	t.Run("field errors aggregated", func(t *testing.T) {
		fc := FormCreate{
			Title: "Feedback",
			Fields: []Field{
				{Kind: KindSelect, Label: "Choice"}, // no options
				{Kind: KindText, Label: ""},         // no label
			},
		}
		err := fc.Validate(testMaxFields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fields[0]")
		assert.Contains(t, err.Error(), "fields[1]")
	})
}

func TestDedupeTags(t *testing.T) {
	fc := FormCreate{
		Title: "Feedback",
		Fields: []Field{
			{Kind: KindText, Label: "A", Tag: "x"},
			{Kind: KindText, Label: "B", Tag: "x"},
			{Kind: KindText, Label: "C", Tag: "x"},
		},
	}
	require.NoError(t, fc.Validate(testMaxFields))

	// the first occurrence keeps its tag, later ones are regenerated
	assert.Equal(t, "x", fc.Fields[0].Tag)
	assert.Equal(t, "A", fc.Fields[0].Label)

	tags := map[string]struct{}{}
	for _, f := range fc.Fields {
		tags[f.Tag] = struct{}{}
	}
	assert.Len(t, tags, 3)
}

func testForm(t *testing.T, fields ...Field) *Form {
	t.Helper()
	fc := FormCreate{Title: "Feedback", Fields: fields}
	require.NoError(t, fc.Validate(testMaxFields))
	return NewForm(fc, "creator")
}

func TestValidateSubmission(t *testing.T) {
	policy := SubmissionPolicy{ZeroIsEmpty: true}

	t.Run("missing required fields aggregated", func(t *testing.T) {
		form := testForm(t,
			Field{Kind: KindText, Label: "Name", Tag: "name"},
			Field{Kind: KindEmail, Label: "Email", Tag: "email"},
		)

		validated, fieldErrors := form.ValidateSubmission(map[string]any{}, policy)
		assert.Empty(t, validated)
		require.Len(t, fieldErrors, 2)
		assert.Equal(t, "This field is required.", fieldErrors["name"])
		assert.Equal(t, "This field is required.", fieldErrors["email"])
	})

	t.Run("valid and invalid answers aggregated", func(t *testing.T) {
		form := testForm(t,
			Field{Kind: KindText, Label: "Name", Tag: "name"},
			Field{Kind: KindNumber, Label: "Age", Tag: "age",
				Constraints: Constraints{MinValue: ptr(0.0), MaxValue: ptr(120.0)}},
		)

		validated, fieldErrors := form.ValidateSubmission(map[string]any{
			"name": "Jane",
			"age":  "not-a-number",
		}, policy)

		assert.Equal(t, map[string]any{"name": "Jane"}, validated)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "Answer must be a valid number.", fieldErrors["age"])
	})

	t.Run("optional missing recorded as nil", func(t *testing.T) {
		form := testForm(t,
			Field{Kind: KindText, Label: "Nickname", Tag: "nick", Required: ptr(false)},
		)

		validated, fieldErrors := form.ValidateSubmission(map[string]any{}, policy)
		assert.Empty(t, fieldErrors)
		value, ok := validated["nick"]
		assert.True(t, ok)
		assert.Nil(t, value)
	})

	t.Run("unknown tags ignored", func(t *testing.T) {
		form := testForm(t,
			Field{Kind: KindText, Label: "Name", Tag: "name"},
		)

		validated, fieldErrors := form.ValidateSubmission(map[string]any{
			"name":     "Jane",
			"intruder": "value",
		}, policy)
		assert.Empty(t, fieldErrors)
		assert.Equal(t, map[string]any{"name": "Jane"}, validated)
	})

	t.Run("idempotent", func(t *testing.T) {
		form := testForm(t,
			Field{Kind: KindText, Label: "Name", Tag: "name"},
			Field{Kind: KindNumber, Label: "Age", Tag: "age"},
		)
		answers := map[string]any{"name": "Jane", "age": "42.5"}

		first, errs1 := form.ValidateSubmission(answers, policy)
		second, errs2 := form.ValidateSubmission(answers, policy)
		assert.Empty(t, errs1)
		assert.Empty(t, errs2)
		assert.Equal(t, first, second)
	})
}

func TestValidateSubmissionZeroPolicy(t *testing.T) {
	form := testForm(t,
		Field{Kind: KindNumber, Label: "Count", Tag: "count"},
	)

	t.Run("zero treated as missing", func(t *testing.T) {
		_, fieldErrors := form.ValidateSubmission(
			map[string]any{"count": 0.0},
			SubmissionPolicy{ZeroIsEmpty: true},
		)
		assert.Equal(t, "This field is required.", fieldErrors["count"])
	})

	t.Run("zero accepted when configured", func(t *testing.T) {
		validated, fieldErrors := form.ValidateSubmission(
			map[string]any{"count": 0.0},
			SubmissionPolicy{ZeroIsEmpty: false},
		)
		assert.Empty(t, fieldErrors)
		assert.Equal(t, 0.0, validated["count"])
	})

	t.Run("empty string always missing", func(t *testing.T) {
		text := testForm(t, Field{Kind: KindText, Label: "Name", Tag: "name"})
		_, fieldErrors := text.ValidateSubmission(
			map[string]any{"name": ""},
			SubmissionPolicy{ZeroIsEmpty: false},
		)
		assert.Equal(t, "This field is required.", fieldErrors["name"])
	})
}
