package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
)

// NewRouter monta as rotas da API.
func NewRouter(cfg *core.Config, h *Handler) *gin.Engine {
	if !cfg.AppDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.RecoveryWithWriter(appLogger.Writer()), RequestLogger())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/faturas", h.ListInvoices)
	if h.registration != nil {
		v1.POST("/pagadores", h.RegisterPayer)
		v1.POST("/faturas", h.CreateInvoice)
	}
	v1.POST("/faturas/:codigo/pdf", h.GeneratePDF)
	if h.imports != nil {
		v1.GET("/faturas/:codigo/importacao", h.ImportStatus)
	}
	if h.audit != nil {
		v1.GET("/auditoria", h.AuditLogs)
	}
	return r
}

// Serve inicia o servidor HTTP e encerra graciosamente quando ctx é cancelado.
func Serve(ctx context.Context, cfg *core.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Infof("Servidor HTTP ouvindo em %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Encerrando servidor HTTP...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
