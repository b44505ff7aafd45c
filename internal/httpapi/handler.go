package httpapi

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/services"
)

// Handler expõe o fechamento de faturas por HTTP.
type Handler struct {
	closing      services.InvoiceClosingService
	registration services.RegistrationService
	imports      services.ImportService
	audit        services.AuditLogService
}

// NewHandler cria o Handler. registration, imports e audit podem ser nil; as rotas
// correspondentes não são registradas.
func NewHandler(closing services.InvoiceClosingService, registration services.RegistrationService, imports services.ImportService, audit services.AuditLogService) *Handler {
	return &Handler{closing: closing, registration: registration, imports: imports, audit: audit}
}

type generatePDFRequest struct {
	SubPagador string `json:"sub_pagador"`
}

type generatePDFResponse struct {
	PDFBase64   string `json:"pdf_base64"`
	Filename    string `json:"filename"`
	Pages       int    `json:"pages"`
	Fingerprint string `json:"fingerprint"`
	Total       string `json:"total"`
}

// GeneratePDF atende POST /api/v1/faturas/:codigo/pdf. O corpo é opcional.
func (h *Handler) GeneratePDF(c *gin.Context) {
	var req generatePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ErrorWithCode(c, 400, "corpo da requisição inválido", err.Error())
		return
	}

	res, err := h.closing.GenerateInvoicePDF(c.Request.Context(), c.Param("codigo"), req.SubPagador)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, "PDF gerado com sucesso", generatePDFResponse{
		PDFBase64:   res.PDFBase64,
		Filename:    res.Filename,
		Pages:       res.Pages,
		Fingerprint: res.Fingerprint,
		Total:       res.Total,
	})
}

// RegisterPayer atende POST /api/v1/pagadores.
func (h *Handler) RegisterPayer(c *gin.Context) {
	var req services.PayerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithCode(c, 400, "corpo da requisição inválido", err.Error())
		return
	}
	payer, err := h.registration.RegisterPayer(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, "Pagador cadastrado", payer)
}

// CreateInvoice atende POST /api/v1/faturas.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req services.InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithCode(c, 400, "corpo da requisição inválido", err.Error())
		return
	}
	invoice, err := h.registration.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, "Fatura cadastrada", invoice)
}

// ListInvoices atende GET /api/v1/faturas?status=&limit=&offset=.
func (h *Handler) ListInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, total, err := h.closing.ListInvoices(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, "Faturas", gin.H{"items": invoices, "total": total, "limit": limit, "offset": offset})
}

// ImportStatus atende GET /api/v1/faturas/:codigo/importacao.
func (h *Handler) ImportStatus(c *gin.Context) {
	status, err := h.imports.GetImportStatus(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, "Última importação da fatura", status)
}

// AuditLogs atende GET /api/v1/auditoria com filtros por query string.
func (h *Handler) AuditLogs(c *gin.Context) {
	filter := models.AuditLogFilter{
		InvoiceCode: strings.TrimSpace(c.Query("codigo")),
		Action:      strings.TrimSpace(c.Query("acao")),
		Severity:    strings.TrimSpace(c.Query("severidade")),
		Username:    strings.TrimSpace(c.Query("usuario")),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if v := c.Query("inicio"); v != "" {
		filter.StartDate = pdf.ParseDate(v)
	}
	if v := c.Query("fim"); v != "" {
		filter.EndDate = pdf.ParseDate(v)
	}

	logs, total, err := h.audit.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, "Logs de auditoria", gin.H{"items": logs, "total": total, "limit": filter.Limit, "offset": filter.Offset})
}

// Health atende GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	OK(c, "ok", gin.H{"status": "up"})
}
