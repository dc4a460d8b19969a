package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error types
var (
	ErrBadRequest       = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized     = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound         = New(http.StatusNotFound, "Not found", nil)
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "Method not allowed", nil)
	ErrInternalServer   = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Validation error types, surfaced to the user and aborting checkout
var (
	ErrEmptyCart       = New(http.StatusBadRequest, "No valid items provided", nil)
	ErrInvalidLineItem = New(http.StatusBadRequest, "Invalid item format", nil)
	ErrInvalidInput    = New(http.StatusBadRequest, "Invalid input", nil)
)

// Authentication error types, surfaced so the user can re-authenticate
var (
	ErrUnauthenticated = New(http.StatusUnauthorized, "Missing or invalid authorization header", nil)
	ErrAuthFailed      = New(http.StatusUnauthorized, "Authentication failed", nil)
	ErrTokenExpired    = New(http.StatusUnauthorized, "Token expired", nil)
)

// Gateway error types, surfaced with retry left to the caller
var (
	ErrGatewayUnavailable = New(http.StatusInternalServerError, "Payment gateway unavailable", nil)
	ErrVerification       = New(http.StatusInternalServerError, "Payment verification failed", nil)
)

// Persistence and notification errors are logged and never surfaced; they have
// no sentinel here on purpose.

// ErrorMiddleware maps errors attached to the gin context to JSON responses.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			var appErr *Error
			if e, ok := err.(*Error); ok {
				appErr = e
			} else {
				appErr = New(http.StatusInternalServerError, "Internal server error", err)
			}

			c.JSON(appErr.Code, appErr)
			c.Abort()
		}
	}
}
