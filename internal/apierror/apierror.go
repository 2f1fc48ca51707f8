// Package apierror holds the JSON bodies of every 4xx/5xx answer. Handlers
// and middleware build them here so clients always see {detail} or
// {detail, fields}, and storage errors never reach the wire.
package apierror

import "github.com/gin-gonic/gin"

// APIError is the plain error body.
type APIError struct {
	Detail string `json:"detail"`
}

func New(detail string) *APIError {
	return &APIError{Detail: detail}
}

// ValidationError lists the rejected fields. Keys are field names, or
// fila_N for a spreadsheet row; values say what was wrong.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Abortar answers with an APIError and stops the middleware chain.
func Abortar(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, New(detail))
}
