package app

import (
	"database/sql"

	"github.com/go-chi/jwtauth/v5"

	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/generate"
)

type App struct {
	*sql.DB
	JWT *jwtauth.JWTAuth
	// Generator is nil when form generation is not configured.
	Generator generate.Generator
	config.Config
}
