// Package response holds the JSON envelope every endpoint answers with:
// {"status":"success","data":...} or {"status":"error","message":...}.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps an API response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 success envelope carrying data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Data: data})
}

// Created writes a 201 success envelope with a message and the created record.
func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// Message writes a 200 success envelope with only a message.
func Message(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Message: message})
}

// Error writes an error envelope with the given status code.
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Status: StatusError, Message: message})
}

// Updated writes a 200 success envelope with a message and the stored record.
func Updated(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data})
}
