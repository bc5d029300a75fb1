package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/window"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// ErrorBody is the JSON body of a failed API request.
type ErrorBody struct {
	Error string   `json:"error"`
	Cycle []string `json:"cycle,omitempty"`
}

// WriteJSON writes v as JSON with the given status. v is encoded before the
// header is sent; when encoding fails the client gets a 500 and the error is returned.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return fmt.Errorf("failed to encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes err as a JSON error body with the status StatusFor picks.
func WriteError(w http.ResponseWriter, err error) {
	body := ErrorBody{Error: err.Error()}
	var cycle *critpath.CycleError
	if errors.As(err, &cycle) {
		body.Cycle = cycle.Path
	}
	_ = WriteJSON(w, StatusFor(err), body)
}

// StatusFor maps engine and store errors to HTTP status codes.
func StatusFor(err error) int {
	var param *ParamError
	switch {
	case errors.As(err, &param):
		return http.StatusBadRequest
	case errors.Is(err, critpath.ErrCyclicDependency),
		errors.Is(err, core.ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, window.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNoDataset):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FloatParam parses a finite float query parameter. ok is false when it is absent.
func FloatParam(r *http.Request, name string) (v float64, ok bool, err error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, &ParamError{Name: name, Value: s}
	}
	return v, true, nil
}

// ParamError reports a malformed request parameter.
type ParamError struct {
	Name  string
	Value string
}

func (e *ParamError) Error() string {
	return "invalid " + e.Name + " parameter " + strconv.Quote(e.Value)
}
