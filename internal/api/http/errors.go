package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/editor"
	"github.com/mind-engage/mindengage-authoring/internal/extract"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/wizard"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps wizard, editor and remote errors to a status and the message
// shown to the author.
func statusOf(err error) (int, errorBody) {
	var (
		ve  *wizard.ValidationError
		re  *wizard.ReferenceError
		ie  *extract.InputError
		xe  *extract.Error
		rme *gateway.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field}
	case errors.As(err, &ie):
		return http.StatusBadRequest, errorBody{Error: ie.Message}
	case errors.As(err, &re):
		return http.StatusUnprocessableEntity, errorBody{Error: re.Error()}
	case errors.Is(err, content.ErrInvalidDocument):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error()}
	case errors.Is(err, wizard.ErrSaveInFlight):
		return http.StatusConflict, errorBody{Error: "A save is already in progress"}
	case errors.Is(err, wizard.ErrWrongStep):
		return http.StatusConflict, errorBody{Error: err.Error()}
	case errors.Is(err, wizard.ErrCancelled):
		return http.StatusGone, errorBody{Error: "Wizard was cancelled"}
	case errors.Is(err, editor.ErrIndex), errors.Is(err, editor.ErrLastItem),
		errors.Is(err, editor.ErrNoSuchChoice), errors.Is(err, editor.ErrTooFewChoices):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.As(err, &xe):
		return http.StatusBadGateway, errorBody{Error: xe.Message}
	case errors.As(err, &rme):
		return http.StatusBadGateway, errorBody{Error: gateway.Message(err)}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := statusOf(err)
	writeJSON(w, status, body)
}
