package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/apperr"
	"github.com/formwise/formwise/httpx"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
)

func GetAppConfig(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"max_forms":     a.MaxForms,
			"max_fields":    a.MaxFields,
			"max_responses": a.MaxResponses,
		})
	}
}

func CreateForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "create_form.current_user", err)
			return
		}

		fc := model.FormCreate{}
		err = render.DecodeJSON(r.Body, &fc)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "create_form.parse_body")
			return
		}

		createForm(w, r, a, user, fc)
	}
}

// createForm runs the shared persistence path for direct creation and
// generation: ceilings, assembly validation, insert, 201 with the full form.
func createForm(w http.ResponseWriter, r *http.Request, a app.App, user *model.User, fc model.FormCreate) {
	var count int
	err := a.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM form WHERE creator_id = ?", user.ID,
	).Scan(&count)
	if err != nil {
		httpx.LogInternalError(w, "db.count_forms", err)
		return
	}
	if count >= a.MaxForms {
		httpx.WriteError(w, r, "create_form.max_forms",
			apperr.LimitExceededf("Maximum number of forms (%d) reached.", a.MaxForms))
		return
	}

	err = fc.Validate(a.MaxFields)
	if err != nil {
		httpx.WriteError(w, r, "create_form.validate", err)
		return
	}

	form := model.NewForm(fc, user.ID)
	form.Creator = user.Public()

	tx, err := a.BeginTx(r.Context(), nil)
	if err != nil {
		httpx.LogInternalError(w, "db.begin_tx", err)
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO form (id, creator_id, title, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		form.ID,
		form.CreatorID,
		form.Title,
		form.Description,
		form.IsActive,
		form.CreatedAt,
	)
	if err != nil {
		httpx.LogInternalError(w, "db.insert_form", err)
		return
	}

	err = insertFields(r.Context(), tx, form.ID, form.Fields)
	if err != nil {
		httpx.LogInternalError(w, "db.insert_form.fields", err)
		return
	}

	err = tx.Commit()
	if err != nil {
		httpx.LogInternalError(w, "db.insert_form.commit", err)
		return
	}

	log.Infof(`Created Form: "%s" for User: %s`, form.Title, user.Email)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, form)
}

func insertFields(ctx context.Context, tx *sql.Tx, formID string, fields []model.Field) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (form_id, position, kind, tag, label, help_text, required, constraints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range fields {
		constraints, err := json.Marshal(f.Constraints)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			formID, i, string(f.Kind), f.Tag, f.Label, f.HelpText, f.IsRequired(), string(constraints),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadForm(r *http.Request, a app.App, formID string) (*model.Form, error) {
	form := model.Form{ID: formID, Fields: []model.Field{}}
	creator := model.UserPublic{}
	err := a.QueryRowContext(r.Context(), `
		SELECT f.title, f.description, f.is_active, f.creator_id, f.created_at,
			u.first_name, u.last_name, u.email
		FROM form f
		INNER JOIN user u ON (u.id = f.creator_id)
		WHERE f.id = ?`,
		formID,
	).Scan(
		&form.Title,
		&form.Description,
		&form.IsActive,
		&form.CreatorID,
		&form.CreatedAt,
		&creator.FirstName,
		&creator.LastName,
		&creator.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Form not found")
	}
	if err != nil {
		return nil, err
	}
	form.Creator = &creator

	rows, err := a.QueryContext(r.Context(), `
		SELECT kind, tag, label, help_text, required, constraints
		FROM form_field
		WHERE form_id = ?
		ORDER BY position`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f := model.Field{}
		var kind, constraints string
		var required bool
		err = rows.Scan(&kind, &f.Tag, &f.Label, &f.HelpText, &required, &constraints)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal([]byte(constraints), &f.Constraints)
		if err != nil {
			return nil, err
		}
		f.Kind = model.FieldKind(kind)
		f.Required = &required
		form.Fields = append(form.Fields, f)
	}
	return &form, rows.Err()
}

func GetForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadForm(r, a, chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_form", err)
			return
		}

		// Full view only for the owning creator; everyone else gets the
		// public rendition of the form.
		user, err := currentUser(a, r)
		if err == nil && user.ID == form.CreatorID {
			var count int
			err = a.QueryRowContext(r.Context(),
				"SELECT COUNT(*) FROM response WHERE form_id = ?", form.ID,
			).Scan(&count)
			if err != nil {
				httpx.LogInternalError(w, "get_form.count_responses", err)
				return
			}
			form.ResponseCount = &count

			render.JSON(w, r, form)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":          form.ID,
			"title":       form.Title,
			"description": form.Description,
			"fields":      form.Fields,
			"is_active":   form.IsActive,
		})
	}
}

func ListForms(a app.App) http.HandlerFunc {
	type formOverview struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		IsActive    bool      `json:"is_active"`
		CreatedAt   time.Time `json:"created_at"`
		FieldCount  int       `json:"field_count"`
		Responses   int       `json:"response_count"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "list_forms.current_user", err)
			return
		}

		rows, err := a.QueryContext(r.Context(), `
			SELECT f.id, f.title, f.description, f.is_active, f.created_at,
				(SELECT COUNT(*) FROM form_field WHERE form_id = f.id),
				(SELECT COUNT(*) FROM response WHERE form_id = f.id)
			FROM form f
			WHERE f.creator_id = ?
			ORDER BY f.created_at DESC`,
			user.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []formOverview{}
		for rows.Next() {
			f := formOverview{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.IsActive, &f.CreatedAt,
				&f.FieldCount, &f.Responses)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{"forms": forms})
	}
}

func UpdateForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "update_form.current_user", err)
			return
		}

		form, err := loadForm(r, a, chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "update_form.get_form", err)
			return
		}
		if form.CreatorID != user.ID {
			httpx.WriteError(w, r, "update_form.forbidden",
				apperr.Forbidden("Not authorized to modify this form."))
			return
		}

		upd := model.FormUpdate{}
		err = render.DecodeJSON(r.Body, &upd)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "update_form.parse_body")
			return
		}

		if upd.Title != nil {
			form.Title = *upd.Title
		}
		if upd.Description != nil {
			form.Description = *upd.Description
		}
		if upd.IsActive != nil {
			form.IsActive = *upd.IsActive
		}
		if upd.Fields != nil {
			form.Fields = *upd.Fields
		}

		fc := model.FormCreate{
			Title:       form.Title,
			Description: form.Description,
			Fields:      form.Fields,
		}
		err = fc.Validate(a.MaxFields)
		if err != nil {
			httpx.WriteError(w, r, "update_form.validate", err)
			return
		}
		form.Title, form.Description, form.Fields = fc.Title, fc.Description, fc.Fields

		tx, err := a.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			UPDATE form
			SET title = ?, description = ?, is_active = ?
			WHERE id = ?`,
			form.Title,
			form.Description,
			form.IsActive,
			form.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}

		if upd.Fields != nil {
			// replace all fields, preserving the submitted order
			_, err = tx.ExecContext(r.Context(),
				"DELETE FROM form_field WHERE form_id = ?", form.ID)
			if err != nil {
				httpx.LogInternalError(w, "db.update_form.delete_fields", err)
				return
			}
			err = insertFields(r.Context(), tx, form.ID, form.Fields)
			if err != nil {
				httpx.LogInternalError(w, "db.update_form.fields", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.commit", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "delete_form.current_user", err)
			return
		}

		form, err := loadForm(r, a, chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "delete_form.get_form", err)
			return
		}
		if form.CreatorID != user.ID {
			httpx.WriteError(w, r, "delete_form.forbidden",
				apperr.Forbidden("Not authorized to delete this form."))
			return
		}

		// responses and fields cascade with the form row
		_, err = a.ExecContext(r.Context(), "DELETE FROM form WHERE id = ?", form.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}

		log.Infof(`Deleted Form: "%s" for User: %s`, form.Title, user.Email)
		w.WriteHeader(http.StatusNoContent)
	}
}

func SubmitForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadForm(r, a, chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "submit_form.get_form", err)
			return
		}
		if !form.IsActive {
			httpx.WriteError(w, r, "submit_form.inactive",
				apperr.BadRequest("Form is no longer accepting responses."))
			return
		}

		var count int
		err = a.QueryRowContext(r.Context(),
			"SELECT COUNT(*) FROM response WHERE form_id = ?", form.ID,
		).Scan(&count)
		if err != nil {
			httpx.LogInternalError(w, "db.count_responses", err)
			return
		}
		if count >= a.MaxResponses {
			// Best-effort cap: deactivate so subsequent submissions fail
			// fast. Requests racing within the same check window may still
			// slip through.
			_, err = a.ExecContext(r.Context(),
				"UPDATE form SET is_active = FALSE WHERE id = ?", form.ID)
			if err != nil {
				log.Errorf("db.deactivate_form: %s", err)
			}
			httpx.WriteError(w, r, "submit_form.max_responses",
				apperr.LimitExceededf("Maximum number of responses (%d) reached.", a.MaxResponses))
			return
		}

		body := struct {
			Answers map[string]any `json:"answers"`
		}{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "submit_form.parse_body")
			return
		}

		policy := model.SubmissionPolicy{ZeroIsEmpty: !a.AllowZeroAnswers}
		validated, fieldErrors := form.ValidateSubmission(body.Answers, policy)
		if len(fieldErrors) > 0 {
			httpx.WriteError(w, r, "submit_form.validate", apperr.Submission(fieldErrors))
			return
		}

		response := model.NewResponse(form.ID, validated)
		answers, err := json.Marshal(response.Answers)
		if err != nil {
			httpx.LogInternalError(w, "submit_form.marshal_answers", err)
			return
		}

		_, err = a.ExecContext(r.Context(), `
			INSERT INTO response (id, form_id, answers, created_at)
			VALUES (?, ?, ?, ?)`,
			response.ID,
			response.FormID,
			string(answers),
			response.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{"id": response.ID})
	}
}

func ListResponses(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "get_responses.current_user", err)
			return
		}

		form, err := loadForm(r, a, chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_responses.get_form", err)
			return
		}
		if form.CreatorID != user.ID {
			httpx.WriteError(w, r, "get_responses.forbidden",
				apperr.Forbidden("Not authorized to view responses for this form."))
			return
		}

		page := queryInt(r, "page", 1)
		perPage := queryInt(r, "per_page", 20)
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		var total int
		err = a.QueryRowContext(r.Context(),
			"SELECT COUNT(*) FROM response WHERE form_id = ?", form.ID,
		).Scan(&total)
		if err != nil {
			httpx.LogInternalError(w, "db.count_responses", err)
			return
		}

		rows, err := a.QueryContext(r.Context(), `
			SELECT id, answers, created_at
			FROM response
			WHERE form_id = ?
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?`,
			form.ID,
			perPage,
			(page-1)*perPage,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []model.Response{}
		for rows.Next() {
			resp := model.Response{FormID: form.ID}
			var answers string
			err = rows.Scan(&resp.ID, &answers, &resp.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			err = json.Unmarshal([]byte(answers), &resp.Answers)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.parse_answers", err)
				return
			}
			responses = append(responses, resp)
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
			"total":     total,
			"page":      page,
			"per_page":  perPage,
		})
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,min=50,max=1000"`
}

func GenerateForm(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "generate_form.current_user", err)
			return
		}

		req := generateRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "generate_form.parse_body")
			return
		}
		req.Prompt = strings.TrimSpace(req.Prompt)
		if err := validate.Struct(req); err != nil {
			httpx.WriteError(w, r, "generate_form.validate", apperr.Constraint(err.Error()))
			return
		}

		if a.Generator == nil {
			log.Warn("generate_form: generator not configured")
			httpx.WriteError(w, r, "generate_form.disabled",
				apperr.BadRequest("Failed to generate form."))
			return
		}

		draft, err := a.Generator.GenerateForm(r.Context(), req.Prompt)
		if err != nil {
			log.Warnf("generate_form.generate: %s", err)
			httpx.WriteError(w, r, "generate_form.generate",
				apperr.BadRequest("Failed to generate form."))
			return
		}

		createForm(w, r, a, user, *draft)
	}
}
