package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"backoffice/internal/service"
	"backoffice/internal/storage"
	"backoffice/internal/workflow"
	"backoffice/pkg/response"
)

// statusFor maps a service error kind onto an HTTP status.
func statusFor(err error) int {
	var ve validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, workflow.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation), errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(code, response.Error(code, "internal server error"))
		return
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(code, response.Error(code, "validation failed", ve.Fields))
		return
	}
	c.JSON(code, response.Error(code, err.Error()))
}

// writeBindError reports a ShouldBind failure as a 400 with per-field details when available.
func writeBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]service.FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, service.FieldError{Field: fe.Field(), Error: describe(fe)})
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "validation failed", fields))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "txtype":
		return "must be EFT or Easypay"
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
