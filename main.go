package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/database"
	"github.com/formwise/formwise/generate"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/routes"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	a := app.App{
		DB:     db,
		JWT:    jwtauth.New("HS256", []byte(cfg.TokenSecret), nil),
		Config: cfg,
	}

	if cfg.GroqAPIKey != "" {
		a.Generator, err = generate.New(cfg)
		if err != nil {
			log.Fatal("main.generator:", err)
		}
	} else {
		log.Warn("GROQ_API_KEY not set: form generation is disabled")
	}

	handler := routes.Wire(a)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
