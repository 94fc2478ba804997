package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/schoollibrary/circulation/library"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error codes of the error envelope, one per status the API maps errors to.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeOutOfStock  = "out_of_stock"
	CodeNotEligible = "not_eligible"
	CodeValidation  = "validation_failed"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

// retryAfterSeconds is sent with 503 answers.
const retryAfterSeconds = "1"

// ErrorResponse is the envelope of every error answer.
//
//	{"status": "error", "error": "no copies available", "code": "out_of_stock"}
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errBadRequest marks errors in the request itself, before any handler ran.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// writeError maps err onto a status code and writes the error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	_ = writeJSON(w, status, ErrorResponse{Status: StatusError, Error: message, Code: code})
}

func classify(err error) (int, string) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, errBadRequest), errors.As(err, &validationErrors):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, library.ErrOutOfStock):
		return http.StatusConflict, CodeOutOfStock
	case errors.Is(err, library.ErrNotEligible):
		return http.StatusConflict, CodeNotEligible
	case errors.Is(err, library.ErrValidationFailed):
		return http.StatusUnprocessableEntity, CodeValidation
	case library.IsRetryable(err):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// decodeBody reads a JSON body into dst and checks its shape with validate.
func decodeBody(r *http.Request, validate *validator.Validate, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
		return badRequest("request body is empty")
	case err != nil:
		return badRequest("malformed request body: %s", err.Error())
	}

	if err = validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return badRequest("%s", describe(validationErrors))
		}

		return err
	}

	return nil
}

func describe(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field %s is required", e.Field()))
		case "uuid":
			messages = append(messages, fmt.Sprintf("field %s must be a uuid", e.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return strings.Join(messages, ", ")
}
