package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brhub/envios-faturas/internal/core"
)

// APIResponse é o envelope padrão das respostas.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contém metadados da resposta.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(c *gin.Context) *Meta {
	requestID := c.GetString(requestIDKey)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// OK envia uma resposta 200.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data, Meta: newMeta(c)})
}

// Created envia uma resposta 201.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data, Meta: newMeta(c)})
}

// ErrorWithCode envia uma resposta de erro com status explícito.
func ErrorWithCode(c *gin.Context, statusCode int, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, APIResponse{Success: false, Message: message, Errors: details, Meta: newMeta(c)})
}

// Error traduz os erros da aplicação para status HTTP.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorWithCode(c, http.StatusUnprocessableEntity, verr.Message, verr.Fields)
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidInput):
		ErrorWithCode(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, core.ErrNotFound):
		ErrorWithCode(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, core.ErrConflict):
		ErrorWithCode(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, core.ErrRender):
		ErrorWithCode(c, http.StatusInternalServerError, core.ErrRender.Error(), nil)
	default:
		ErrorWithCode(c, http.StatusInternalServerError, core.ErrInternal.Error(), nil)
	}
}
