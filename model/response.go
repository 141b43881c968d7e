package model

import "time"

// Response is one validated answer set tied to a form. Answers map field
// tags to validated values; responses are immutable once created.
type Response struct {
	ID        string         `json:"id"`
	FormID    string         `json:"-"`
	Answers   map[string]any `json:"answers"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewResponse(formID string, answers map[string]any) *Response {
	return &Response{
		ID:        NewID(),
		FormID:    formID,
		Answers:   answers,
		CreatedAt: time.Now().UTC(),
	}
}
