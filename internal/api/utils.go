package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

// codedError carries the HTTP status a handler wants to answer with.
type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func codedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

func parseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Error("error decoding request body", "path", r.URL.Path, "error", err)
		return data, codedErrorf(http.StatusBadRequest, "unable to parse request body")
	}
	return data, nil
}

var queryDecoder = schema.NewDecoder()

func parseQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing query params", "path", r.URL.Path, "error", err)
		return data, codedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	if err := queryDecoder.Decode(&data, r.URL.Query()); err != nil {
		slog.Error("error decoding query params", "path", r.URL.Path, "error", err)
		return data, codedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	return data, nil
}

// restHandler adapts a handler returning a response body to chi. Errors
// without a code are answered with 500.
func restHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code := http.StatusInternalServerError
			var cerr *codedError
			if errors.As(err, &cerr) {
				code = cerr.code
			} else {
				slog.Error("handler returned an error without a status code", "path", r.URL.Path, "error", err)
			}
			if code >= http.StatusInternalServerError {
				slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
			}
			http.Error(w, err.Error(), code)
			return
		}

		if res == nil {
			res = struct{}{}
		}

		writeJSON(w, res)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(append(body, '\n')) //nolint:errcheck
}

func urlParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return uuid.Nil, codedErrorf(http.StatusBadRequest, "missing {%s} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, codedErrorf(http.StatusBadRequest, "invalid %s '%s': %w", key, param, err)
	}

	return id, nil
}
