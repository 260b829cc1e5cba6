package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/authorization"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/storage"
	"github.com/smallbiznis/catalog/internal/validation"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrRouteNotFound      = errors.New("route_not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

const unauthorizedMessage = "You need to log in to access this resource"

// MethodNotAllowedError lists the methods registered for the requested path.
type MethodNotAllowedError struct {
	Method  string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("The %s method is not supported for this route. Supported methods: %s.", e.Method, strings.Join(e.Allowed, ", "))
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		var mna *MethodNotAllowedError
		if errors.As(lastErr.Err, &mna) && len(mna.Allowed) > 0 {
			c.Header("Allow", strings.Join(mna.Allowed, ", "))
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return validation.New("request", "invalid_request", "The request body is invalid.")
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr, ok := validation.As(err); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: validationSummary(vErr),
			Errors:  vErr.Fields,
		}
	}

	var mna *MethodNotAllowedError
	if errors.As(err, &mna) {
		return http.StatusMethodNotAllowed, errorPayload{
			Type:    "method_not_allowed",
			Message: mna.Error(),
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: unauthorizedMessage,
		}
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_credentials",
			Message: "These credentials do not match our records.",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "This action is unauthorized.",
		}
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "route_not_found",
			Message: "The requested route is not defined.",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, productdomain.ErrInvalidFormat):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_format",
			Message: "The format must be one of: csv, pdf.",
		}
	case errors.Is(err, productdomain.ErrInvalidImportFile):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_import_file",
			Message: "The file could not be read as CSV.",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "Too many attempts. Please try again later.",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: err.Error(),
		}
	}
}

func validationSummary(vErr *validation.Errors) string {
	if vErr == nil || len(vErr.Fields) == 0 {
		return "The given data was invalid."
	}
	msg := vErr.Fields[0].Message
	if extra := len(vErr.Fields) - 1; extra > 0 {
		noun := "errors"
		if extra == 1 {
			noun = "error"
		}
		msg = fmt.Sprintf("%s (and %d more %s)", msg, extra, noun)
	}
	return msg
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog returns the error type and code recorded by the request logger.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if errors.Is(err, storage.ErrInvalidKey) {
		return "storage_error", storage.ErrInvalidKey.Error()
	}
	_, payload := mapError(err)
	code := payload.Type
	if vErr, ok := validation.As(err); ok && len(vErr.Fields) > 0 {
		code = vErr.Fields[0].Code
	}
	return payload.Type, code
}

func fileRequiredError() error {
	return validation.New("file", "required", "The file field is required.")
}
