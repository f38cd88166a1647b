package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/utils"
)

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type responseEnvelope struct {
	Success   bool           `json:"success"`
	Data      interface{}    `json:"data,omitempty"`
	Error     *responseError `json:"error,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, responseEnvelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondError maps AppErrors to their status and code; anything else is a
// 500 with a generic message so internal error text never leaks.
func respondError(c *gin.Context, err error) {
	if appErr, ok := utils.AsAppError(err); ok {
		c.JSON(appErr.Status, responseEnvelope{
			Success:   false,
			Error:     &responseError{Code: appErr.Code, Message: appErr.Message},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	config.LogError(config.GetLogger(), "response.go", "respondError", c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, responseEnvelope{
		Success:   false,
		Error:     &responseError{Code: "INTERNAL_ERROR", Message: "internal server error"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondValidation(c *gin.Context, message string) {
	respondError(c, utils.NewValidationError(message))
}

// bindErrorMessage turns gin binding failures into field-level messages;
// non-validator errors (malformed JSON, wrong types) fall back to the
// handler's own description of what the request must contain.
func bindErrorMessage(err error, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fallback
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "datetime":
			parts = append(parts, fe.Field()+" must match "+fe.Param())
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+" validation")
		}
	}
	return strings.Join(parts, "; ")
}
