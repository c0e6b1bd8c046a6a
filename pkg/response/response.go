// Package response implements the uniform API envelope. Every endpoint,
// success or failure, replies with the same shape so clients parse one
// structure.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizdeck/pkg/apperr"
)

type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Details []apperr.FieldViolation `json:"details,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func OKMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Err maps an application error to its contractual status code. Untagged
// errors become 500 and never leak their internal message.
func Err(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := statusOf(code)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   msg,
		Details: apperr.DetailsOf(err),
	})
}

// AbortUnauthorized is used by middleware, where there is no apperr value to
// unwrap.
func AbortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Error: msg})
}

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeAlreadyExists:
		// Duplicate keys surface as a validation-style conflict.
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
