package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/apperr"
	"github.com/formwise/formwise/httpx"
	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/routes/middlewares"
)

func Me(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(a, r)
		if err != nil {
			httpx.WriteError(w, r, "me.current_user", err)
			return
		}

		render.JSON(w, r, user)
	}
}

// currentUser resolves the authenticated user from the request's token
// subject. Fails with an Unauthorized error for anonymous requests and for
// tokens whose subject no longer exists.
func currentUser(a app.App, r *http.Request) (*model.User, error) {
	email := middlewares.Subject(r)
	if email == "" {
		return nil, apperr.Unauthorized("Could not validate credentials.")
	}
	return getUserByEmail(r, a, email)
}

func getUserByEmail(r *http.Request, a app.App, email string) (*model.User, error) {
	user := model.User{}
	var provider string
	err := a.QueryRowContext(r.Context(), `
		SELECT id, email, first_name, last_name, picture, password_hash, auth_provider, created_at
		FROM user
		WHERE email = ?`,
		email,
	).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Picture,
		&user.PasswordHash,
		&provider,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Unauthorized("Could not validate credentials.")
	}
	if err != nil {
		return nil, err
	}

	user.AuthProvider = model.AuthProvider(provider)
	return &user, nil
}
