package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrNoSession = errors.New("client: no active session")

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	Status  int
	Type    string
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api: %d %s", e.Status, e.Type)
	}
	return fmt.Sprintf("catalog api: %d %s: %s", e.Status, e.Type, e.Message)
}

func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *APIError) IsNotFound() bool     { return e.Status == http.StatusNotFound }
func (e *APIError) IsValidation() bool   { return e.Status == http.StatusUnprocessableEntity }

// FieldMessage returns the first message reported for field.
func (e *APIError) FieldMessage(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation()
}

type errorEnvelope struct {
	Error struct {
		Type    string       `json:"type"`
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	} `json:"error"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil {
			apiErr.Type = env.Error.Type
			apiErr.Message = strings.TrimSpace(env.Error.Message)
			apiErr.Fields = env.Error.Errors
		}
	}
	if apiErr.Type == "" {
		apiErr.Type = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	}
	return apiErr
}
