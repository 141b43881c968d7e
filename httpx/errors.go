package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/formwise/formwise/apperr"
	"github.com/formwise/formwise/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// WriteError renders an application error as a JSON body of the shape
// {"detail": ...}, mapping its taxonomy kind to the HTTP status. Errors
// outside the taxonomy are treated as internal.
func WriteError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		LogInternalError(w, code, err)
		return
	}

	log.Debugf("%s: %s", code, appErr.Message)
	render.Status(r, appErr.Status())
	if appErr.Fields != nil {
		render.JSON(w, r, map[string]any{"detail": appErr.Fields})
		return
	}
	render.JSON(w, r, map[string]any{"detail": appErr.Message})
}
