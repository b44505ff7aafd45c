package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/services"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger gera ou propaga o X-Request-ID, repassa-o aos serviços pelo
// contexto da requisição e registra cada requisição no logrus.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		ctx := services.WithRequestInfo(c.Request.Context(), services.RequestInfo{
			RequestID: requestID,
			IPAddress: c.ClientIP(),
			Username:  "api",
		})
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		entry := appLogger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("Requisição concluída com erro")
			return
		}
		entry.Info("Requisição concluída")
	}
}
