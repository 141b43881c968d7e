package generate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/model"
)

const draftJSON = `{
	"title": "Cooking Class Signup",
	"description": "Reserve your spot",
	"fields": [
		{"type": "text", "label": "Name", "required": true},
		{"type": "number", "label": "Party size", "min_value": 1, "max_value": 6}
	]
}`

func TestParseDraft(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		draft, err := ParseDraft(draftJSON)
		require.NoError(t, err)

		assert.Equal(t, "Cooking Class Signup", draft.Title)
		require.Len(t, draft.Fields, 2)
		assert.Equal(t, model.KindText, draft.Fields[0].Kind)
		assert.Equal(t, model.KindNumber, draft.Fields[1].Kind)
		require.NotNil(t, draft.Fields[1].MaxValue)
		assert.Equal(t, 6.0, *draft.Fields[1].MaxValue)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		for _, fenced := range []string{
			"```json\n" + draftJSON + "\n```",
			"```\n" + draftJSON + "\n```",
			"\n  " + draftJSON + "  \n",
		} {
			draft, err := ParseDraft(fenced)
			require.NoError(t, err)
			assert.Equal(t, "Cooking Class Signup", draft.Title)
		}
	})

	t.Run("invalid completion", func(t *testing.T) {
		_, err := ParseDraft("Sorry, I cannot help with that.")
		assert.Error(t, err)
	})
}

func TestUserPrompt(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)
	prompt := UserPrompt("A feedback form for my bakery", now)

	assert.Contains(t, prompt, "A feedback form for my bakery")
	assert.Contains(t, prompt, "2026-03-01")
}
