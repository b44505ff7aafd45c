package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/utils"
)

// PDFRenderer é a parte do renderizador usada pelo fechamento.
type PDFRenderer interface {
	RenderDocument(in pdf.Input) (*pdf.Document, error)
}

// InvoiceClosingService gera o PDF de fechamento de uma fatura ou subfatura.
type InvoiceClosingService interface {
	// GenerateInvoicePDF carrega a fatura pelo código e gera o PDF. Com subPayerDoc
	// preenchido gera a subfatura do pagador informado: apenas os itens dele, com o
	// total igual à soma desses itens.
	GenerateInvoicePDF(ctx context.Context, code, subPayerDoc string) (*models.GeneratedInvoicePDF, error)
	// ListInvoices lista faturas por status (vazio = todas), mais recentes primeiro.
	ListInvoices(ctx context.Context, status string, limit, offset int) ([]models.InvoiceSummary, int64, error)
}

type invoiceClosingServiceImpl struct {
	repo     repositories.InvoiceRepository
	renderer PDFRenderer
	audit    AuditLogService
}

// NewInvoiceClosingService cria o serviço. audit pode ser nil.
func NewInvoiceClosingService(repo repositories.InvoiceRepository, renderer PDFRenderer, audit AuditLogService) InvoiceClosingService {
	if repo == nil || renderer == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewInvoiceClosingService")
	}
	return &invoiceClosingServiceImpl{repo: repo, renderer: renderer, audit: audit}
}

// NewRendererFromConfig monta o renderizador com marca, idioma e compressão da configuração.
func NewRendererFromConfig(cfg *core.Config) *pdf.Renderer {
	r := pdf.NewRenderer(cfg.PDFBrandName)
	r.Labels = pdf.LabelsFor(cfg.PDFLocale)
	r.Compress = cfg.PDFCompress
	r.ZeroOverrideFallback = cfg.PDFZeroOverrideFallback
	return r
}

func (s *invoiceClosingServiceImpl) ListInvoices(ctx context.Context, status string, limit, offset int) ([]models.InvoiceSummary, int64, error) {
	invoices, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]models.InvoiceSummary, len(invoices))
	for i := range invoices {
		summaries[i] = invoices[i].ToSummary()
	}
	return summaries, total, nil
}

func (s *invoiceClosingServiceImpl) GenerateInvoicePDF(ctx context.Context, code, subPayerDoc string) (*models.GeneratedInvoicePDF, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, core.NewValidationError("código da fatura é obrigatório", map[string]string{"codigo": "obrigatório"})
	}

	invoice, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	pdfInvoice, err := invoice.ToPDFInvoice()
	if err != nil {
		return nil, core.WrapErrorf(core.ErrInternal, "dados inconsistentes na fatura '%s': %v", code, err)
	}

	in := pdf.Input{Invoice: pdfInvoice, Payer: invoice.Pagador.ToPDFPayer()}
	payer := &invoice.Pagador

	subDigits := utils.OnlyDigits(subPayerDoc)
	if strings.TrimSpace(subPayerDoc) != "" {
		if !utils.IsValidTaxID(subDigits) {
			return nil, core.NewValidationError("documento do subpagador inválido", map[string]string{"sub_pagador": "CPF/CNPJ inválido"})
		}
		sub, err := s.repo.GetPayerByDocument(ctx, subDigits)
		if err != nil {
			return nil, err
		}
		items, total, err := subInvoiceItems(invoice, sub)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, core.NewValidationError(
				fmt.Sprintf("fatura '%s' não possui itens do subpagador %s", code, utils.FormatTaxID(subDigits)),
				map[string]string{"sub_pagador": "sem itens na fatura"},
			)
		}
		in.SubInvoice = true
		in.OverrideItems = items
		in.OverrideTotal = &total
		in.Payer = sub.ToPDFPayer()
		payer = sub
	}

	if verr := ValidatePayer(payer); verr != nil {
		return nil, verr
	}

	log := appLogger.WithFields(logrus.Fields{"fatura": code, "subfatura": in.SubInvoice})
	doc, err := s.renderer.RenderDocument(in)
	if err != nil {
		log.WithError(err).Error("Falha ao gerar PDF da fatura")
		audit(ctx, s.audit, models.AuditLogEntry{
			Action:      models.AuditActionPDFFailed,
			Description: fmt.Sprintf("Falha ao gerar PDF da fatura '%s': %v", code, err),
			Severity:    "ERROR",
			InvoiceCode: &code,
			Metadata:    models.JSONMetadata{"sub_pagador": subDigits, "error": err.Error()},
		})
		return nil, fmt.Errorf("%w: fatura '%s': %w", core.ErrRender, code, err)
	}

	sum := blake2b.Sum256(doc.PDF)
	result := &models.GeneratedInvoicePDF{
		InvoiceCode:      code,
		SubPayerDocument: subDigits,
		PDFBase64:        doc.Base64(),
		Filename:         invoiceFilename(code, subDigits),
		Pages:            doc.TotalPages,
		SizeBytes:        len(doc.PDF),
		Fingerprint:      hex.EncodeToString(sum[:]),
		Total:            models.MoneyString(doc.Total),
		ItemCount:        doc.ItemCount,
		GeneratedAt:      doc.GeneratedAt,
	}

	log.WithFields(logrus.Fields{"paginas": result.Pages, "bytes": result.SizeBytes, "itens": result.ItemCount}).Info("PDF da fatura gerado")
	audit(ctx, s.audit, models.AuditLogEntry{
		Action:      models.AuditActionPDFGenerated,
		Description: fmt.Sprintf("PDF da fatura '%s' gerado com %d página(s).", code, result.Pages),
		Severity:    "INFO",
		InvoiceCode: &code,
		Metadata: models.JSONMetadata{
			"sub_pagador": subDigits,
			"paginas":     result.Pages,
			"bytes":       result.SizeBytes,
			"itens":       result.ItemCount,
			"total":       result.Total,
			"fingerprint": result.Fingerprint,
		},
	})
	return result, nil
}

// subInvoiceItems devolve, na ordem da fatura, os itens do subpagador e a soma dos valores.
func subInvoiceItems(invoice *models.DBInvoice, sub *models.DBPayer) ([]pdf.LineItem, decimal.Decimal, error) {
	items := []pdf.LineItem{}
	total := decimal.Zero
	for i := range invoice.Itens {
		it := &invoice.Itens[i]
		if it.SubPagadorID == nil || *it.SubPagadorID != sub.ID {
			continue
		}
		li, err := it.ToPDFLineItem()
		if err != nil {
			return nil, decimal.Zero, core.WrapErrorf(core.ErrInternal, "dados inconsistentes na fatura '%s': %v", invoice.Codigo, err)
		}
		items = append(items, li)
		total = total.Add(li.Value)
	}
	return items, total, nil
}

// ValidatePayer verifica os dados do pagador exigidos no cabeçalho da fatura.
func ValidatePayer(p *models.DBPayer) error {
	if p == nil {
		return core.NewValidationError("pagador não informado", map[string]string{"pagador": "obrigatório"})
	}
	fields := map[string]string{}
	required := map[string]string{
		"nome":       p.Nome,
		"logradouro": p.Logradouro,
		"numero":     p.Numero,
		"bairro":     p.Bairro,
		"cidade":     p.Cidade,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[field] = "obrigatório"
		}
	}
	if !utils.IsValidTaxID(utils.OnlyDigits(p.Documento)) {
		fields["documento"] = "CPF/CNPJ inválido"
	}
	if !utils.IsValidUF(p.UF) {
		fields["uf"] = "deve ter 2 letras maiúsculas"
	}
	if !utils.IsValidCEP(p.CEP) {
		fields["cep"] = "deve ter 8 dígitos"
	}
	if len(fields) > 0 {
		return core.NewValidationError("dados do pagador incompletos ou inválidos", fields)
	}
	return nil
}

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func invoiceFilename(code, subDigits string) string {
	name := "fatura_" + filenameUnsafe.ReplaceAllString(code, "_")
	if subDigits != "" {
		name += "_" + subDigits
	}
	return name + ".pdf"
}
