package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/correction"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assessment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, correction.ErrInvalidBatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		body := errorBody{Error: "validation failed"}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			body.Fields = make(map[string]string, len(ve))
			for _, fe := range ve {
				body.Fields[fe.Field()] = fe.Tag()
			}
		}
		respondJSON(w, http.StatusBadRequest, body)
		return false
	}
	return true
}
