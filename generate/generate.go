// Package generate turns a natural-language prompt into a form draft using
// a language model behind Groq's OpenAI-compatible API.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/model"
)

// Generator produces a form draft from a free-text description.
type Generator interface {
	GenerateForm(ctx context.Context, description string) (*model.FormCreate, error)
}

const groqBaseURL = "https://api.groq.com/openai/v1"

const systemPrompt = `You are an expert in designing intuitive, user-friendly forms.
Interpret the user's intent, infer additional requirements, and produce a precise structured form definition.

Guidelines:
- Analyze the purpose and objectives of the user's input; infer relevant details where necessary.
- If the user specifies fields, include only those fields and strictly follow the instructions given.
- If no field information is provided, create a logically consistent form aligned with the stated purpose.
- Use simple, concise language for titles, labels and help text.

Respond with a single JSON object of the shape:
{"title": string, "description": string, "fields": [{"type": string, "label": string, "help_text": string, "required": bool, ...constraints}]}

Field guidelines:
- Valid field types: "text", "paragraph", "select", "multi_select", "dropdown", "date", "email", "number", "url".
- Use "text" for short answers and "paragraph" for long-form answers.
- Use "select" for radio-button-like choices, "dropdown" for long single-select lists (more than 5 options), "multi_select" for multiple-choice options. Always provide meaningful "options"; never include "other".
- Keep labels short and free of parentheticals; add "help_text" only when extra context is genuinely needed.
- Make fields required only when the information is essential.
- Add constraints only when they improve data quality: "min_length"/"max_length" for text, "min_value"/"max_value" for numbers, "min_date"/"max_date" (YYYY-MM-DD) for dates.
- Omit field tags; they are generated automatically.`

const userPromptFormat = `Based on the user input, generate a structured form definition.

<USER_INPUT>
%s
</USER_INPUT>

Today's date: %s`

type FormGenerator struct {
	llm llms.Model
}

// New builds a generator from the configured Groq model and API key.
func New(cfg config.Config) (*FormGenerator, error) {
	llm, err := openai.New(
		openai.WithBaseURL(groqBaseURL),
		openai.WithToken(cfg.GroqAPIKey),
		openai.WithModel(cfg.GroqModel),
	)
	if err != nil {
		return nil, err
	}
	return &FormGenerator{llm: llm}, nil
}

func (g *FormGenerator) GenerateForm(ctx context.Context, description string) (*model.FormCreate, error) {
	resp, err := g.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(schema.ChatMessageTypeHuman, UserPrompt(description, time.Now())),
		},
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion")
	}
	return ParseDraft(resp.Choices[0].Content)
}

// UserPrompt renders the user message for the given description. The
// current date lets the model resolve relative date constraints.
func UserPrompt(description string, now time.Time) string {
	return fmt.Sprintf(userPromptFormat, description, now.Format("2006-01-02"))
}

// ParseDraft decodes a model completion into a form draft, tolerating
// markdown code fences around the JSON object.
func ParseDraft(completion string) (*model.FormCreate, error) {
	raw := strings.TrimSpace(completion)
	if after, found := strings.CutPrefix(raw, "```json"); found {
		raw = after
	} else if after, found := strings.CutPrefix(raw, "```"); found {
		raw = after
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")

	draft := model.FormCreate{}
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	return &draft, nil
}
