package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/utils"
)

// Formatos de exportação suportados.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

var exportItemHeaders = []string{"POSICAO", "DESCRICAO", "RASTREIO", "STATUS", "VALOR", "CPF_CNPJ_SUBPAGADOR"}

// ExportService exporta os itens de uma fatura para planilha.
type ExportService interface {
	// ExportItems grava os itens em XLSX ou CSV e devolve o caminho final do arquivo.
	// Com sanitize, CPF/CNPJ são mascarados.
	ExportItems(ctx context.Context, code, format, outputPath string, sanitize bool) (string, error)
}

type exportServiceImpl struct {
	cfg             *core.Config
	invoiceRepo     repositories.InvoiceRepository
	auditLogService AuditLogService
}

// NewExportService cria uma nova instância de ExportService. auditLog pode ser nil.
func NewExportService(cfg *core.Config, invoiceRepo repositories.InvoiceRepository, auditLog AuditLogService) ExportService {
	if cfg == nil || invoiceRepo == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewExportService")
	}
	return &exportServiceImpl{cfg: cfg, invoiceRepo: invoiceRepo, auditLogService: auditLog}
}

func (s *exportServiceImpl) ExportItems(ctx context.Context, code, format, outputPath string, sanitize bool) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatCSV {
		return "", core.NewValidationError("formato de exportação inválido", map[string]string{"formato": "use xlsx ou csv"})
	}

	invoice, err := s.invoiceRepo.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	rows := [][]string{exportItemHeaders}
	for _, it := range invoice.Itens {
		subDoc := ""
		if it.SubPagador != nil {
			subDoc = pdf.FormatTaxID(it.SubPagador.Documento)
		}
		rows = append(rows, []string{strconv.Itoa(it.Posicao), it.Descricao, it.Rastreio, it.Status, it.Valor, subDoc})
	}
	input, err := utils.NewSliceDataInput(rows, utils.TruncateRunes("Itens "+filenameUnsafe.ReplaceAllString(invoice.Codigo, "_"), 31))
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(outputPath) == "" {
		outputPath = fmt.Sprintf("fatura_%s_itens", filenameUnsafe.ReplaceAllString(invoice.Codigo, "_"))
	}
	opts := &utils.ExportOptions{
		CreateBackup:    true,
		Sanitize:        sanitize,
		SanitizeColumns: []string{"CPF_CNPJ_SUBPAGADOR", "DESCRICAO"},
		NumericColumns:  []string{"VALOR"},
		ColumnWidths:    map[string]float64{"POSICAO": 10, "DESCRICAO": 45, "RASTREIO": 22, "VALOR": 14, "CPF_CNPJ_SUBPAGADOR": 24},
	}

	var finalPath string
	if format == ExportFormatCSV {
		finalPath, err = utils.ExportToCSV(input, outputPath, s.cfg.ExportDir, opts)
	} else {
		finalPath, err = utils.ExportToXLSX([]utils.DataInput{input}, outputPath, s.cfg.ExportDir, opts)
	}
	if err != nil {
		return "", err
	}

	audit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      models.AuditActionItemsExported,
		Description: fmt.Sprintf("Itens da fatura '%s' exportados em %s (%d itens).", invoice.Codigo, strings.ToUpper(format), len(invoice.Itens)),
		Severity:    "INFO",
		InvoiceCode: &invoice.Codigo,
		Metadata:    models.JSONMetadata{"formato": format, "arquivo": finalPath, "itens": len(invoice.Itens), "mascarado": sanitize},
	})
	return finalPath, nil
}
