package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/apperr"
	"github.com/formwise/formwise/httpx"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
)

var validate = validator.New()

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=64"`
	FirstName string `json:"first_name" validate:"required,max=20"`
	LastName  string `json:"last_name" validate:"required,max=20"`
}

func Register(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := registerRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "register.parse_body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
		if err := validate.Struct(req); err != nil {
			httpx.WriteError(w, r, "register.validate", apperr.Constraint(err.Error()))
			return
		}

		var exists bool
		err = a.QueryRowContext(r.Context(),
			"SELECT 1 FROM user WHERE email = ?", req.Email,
		).Scan(&exists)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}
		if exists {
			httpx.WriteError(w, r, "register.duplicate",
				apperr.Conflict("User with this email already exists"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "register.hash_password", err)
			return
		}

		user := model.NewUser(req.Email, req.FirstName, req.LastName, string(hash), model.ProviderEmail)
		_, err = a.ExecContext(r.Context(), `
			INSERT INTO user (id, email, first_name, last_name, password_hash, auth_provider, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.PasswordHash,
			string(user.AuthProvider),
			user.CreatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		log.Infof("Registered user: %s", user.Email)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{"message": "Registration successful"})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := loginRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.parse_body")
			return
		}

		user, err := getUserByEmail(r, a, strings.TrimSpace(req.Email))
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				err = apperr.Unauthorized("Incorrect email or password")
			}
			httpx.WriteError(w, r, "login.get_user", err)
			return
		}

		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
		if err != nil {
			httpx.WriteError(w, r, "login.verify_password",
				apperr.Unauthorized("Incorrect email or password"))
			return
		}

		token, err := makeToken(a, user.Email)
		if err != nil {
			httpx.LogInternalError(w, "login.make_token", err)
			return
		}

		log.Infof("Authenticated user: %s", user.Email)
		render.JSON(w, r, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
		})
	}
}

func makeToken(a app.App, email string) (string, error) {
	claims := map[string]any{"sub": email}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, a.TokenTTL)

	_, token, err := a.JWT.Encode(claims)
	return token, err
}
