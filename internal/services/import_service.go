package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/utils"
)

// ExpectedItemColumns são os cabeçalhos exatos do arquivo de itens, nesta ordem.
var ExpectedItemColumns = []string{"DESCRICAO", "RASTREIO", "STATUS", "VALOR", "CPF_CNPJ_SUBPAGADOR"}

const (
	encodingUTF8   = "UTF-8"
	encodingLatin1 = "ISO-8859-1"
)

// ImportService substitui os itens de uma fatura a partir de um arquivo CSV/TXT separado por ';'.
type ImportService interface {
	ImportItems(ctx context.Context, code, filePath string) (*models.ImportResult, error)
	GetImportStatus(ctx context.Context, code string) (*models.ImportMetadataPublic, error)
}

type importServiceImpl struct {
	invoiceRepo        repositories.InvoiceRepository
	importMetadataRepo repositories.ImportMetadataRepository
	auditLogService    AuditLogService
}

// NewImportService cria uma nova instância de ImportService. auditLog pode ser nil.
func NewImportService(invoiceRepo repositories.InvoiceRepository, imRepo repositories.ImportMetadataRepository, auditLog AuditLogService) ImportService {
	if invoiceRepo == nil || imRepo == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewImportService")
	}
	return &importServiceImpl{invoiceRepo: invoiceRepo, importMetadataRepo: imRepo, auditLogService: auditLog}
}

// readItemsFile lê o arquivo, remove o BOM, decodifica Latin-1 quando não for
// UTF-8 válido e devolve as linhas de dados (sem o cabeçalho).
func readItemsFile(filePath string) ([][]string, string, error) {
	fileName := filepath.Base(filePath)
	rawBytes, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: arquivo '%s' não encontrado", core.ErrNotFound, fileName)
		}
		appLogger.Errorf("Erro ao ler arquivo '%s': %v", filePath, err)
		return nil, "", fmt.Errorf("%w: falha ao ler arquivo '%s'", core.ErrDataImport, fileName)
	}

	rawBytes = bytes.TrimPrefix(rawBytes, []byte{0xEF, 0xBB, 0xBF})

	detectedEncoding := encodingUTF8
	if !utf8.Valid(rawBytes) {
		appLogger.Warnf("Arquivo '%s' não é UTF-8 válido. Decodificando como Latin-1.", fileName)
		decoded, _, errTransform := transform.Bytes(charmap.ISO8859_1.NewDecoder(), rawBytes)
		if errTransform != nil {
			return nil, "", fmt.Errorf("%w: arquivo '%s' não pôde ser decodificado como UTF-8 ou Latin-1", core.ErrDataImport, fileName)
		}
		rawBytes = decoded
		detectedEncoding = encodingLatin1
	}

	csvReader := csv.NewReader(bytes.NewReader(rawBytes))
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1 // linhas com contagem errada são puladas depois, com aviso

	allRecords, err := csvReader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, "", core.NewValidationError(
				fmt.Sprintf("arquivo '%s' mal formatado (linha %d)", fileName, parseErr.Line),
				map[string]string{"arquivo": parseErr.Err.Error()},
			)
		}
		return nil, "", fmt.Errorf("%w: falha ao parsear conteúdo CSV do arquivo '%s'", core.ErrDataImport, fileName)
	}
	if len(allRecords) == 0 {
		return nil, "", core.NewValidationError(fmt.Sprintf("arquivo '%s' está vazio", fileName), map[string]string{"arquivo": "vazio"})
	}

	headerRow := allRecords[0]
	if len(headerRow) != len(ExpectedItemColumns) {
		return nil, "", core.NewValidationError(
			fmt.Sprintf("arquivo '%s' tem %d colunas no cabeçalho, esperado %d", fileName, len(headerRow), len(ExpectedItemColumns)),
			map[string]string{"cabecalho": strings.Join(ExpectedItemColumns, ";")},
		)
	}
	for i, expected := range ExpectedItemColumns {
		if got := strings.TrimSpace(headerRow[i]); got != expected {
			return nil, "", core.NewValidationError(
				fmt.Sprintf("arquivo '%s' tem cabeçalho inválido (coluna %d: '%s' != '%s')", fileName, i+1, got, expected),
				map[string]string{"cabecalho": strings.Join(ExpectedItemColumns, ";")},
			)
		}
	}

	appLogger.Infof("Arquivo '%s' (encoding: %s) lido com %d linhas de dados.", fileName, detectedEncoding, len(allRecords)-1)
	return allRecords[1:], detectedEncoding, nil
}

// ParseBRValue aceita "1.234,56", "1234,56", "1234.56" e o prefixo "R$".
// Valores com mais de duas casas decimais são rejeitados: "1.234" sem vírgula é ambíguo.
func ParseBRValue(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if v == "" {
		return decimal.Zero, fmt.Errorf("%w: valor vazio", core.ErrInvalidInput)
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: valor '%s' inválido", core.ErrInvalidInput, s)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("%w: valor '%s' com mais de duas casas decimais", core.ErrInvalidInput, s)
	}
	return d, nil
}

func (s *importServiceImpl) ImportItems(ctx context.Context, code, filePath string) (*models.ImportResult, error) {
	code = strings.TrimSpace(code)
	fileName := filepath.Base(filePath)

	invoice, err := s.invoiceRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	appLogger.Infof("Iniciando importação de itens: Fatura='%s', Arquivo='%s'", code, fileName)
	rows, detectedEncoding, err := readItemsFile(filePath)
	if err != nil {
		s.logFailure(ctx, code, fileName, err)
		return nil, err
	}

	result := &models.ImportResult{InvoiceCode: code, FileName: fileName, Encoding: detectedEncoding, RowsRead: len(rows)}
	subPayers := map[string]*uuid.UUID{}
	items := make([]models.DBInvoiceItem, 0, len(rows))
	total := decimal.Zero

	for i, record := range rows {
		lineNum := i + 2 // +1 cabeçalho, +1 base 1
		skip := func(reason string, args ...interface{}) {
			appLogger.Warnf("Linha %d do arquivo '%s' ignorada: %s", lineNum, fileName, fmt.Sprintf(reason, args...))
			result.Skipped++
			result.SkippedLines = append(result.SkippedLines, lineNum)
		}

		if len(record) != len(ExpectedItemColumns) {
			skip("%d campos, esperado %d", len(record), len(ExpectedItemColumns))
			continue
		}
		description := utils.SanitizeInput(record[0])
		if description == "" {
			skip("descrição vazia")
			continue
		}
		value, errValue := ParseBRValue(record[3])
		if errValue != nil {
			skip("%v", errValue)
			continue
		}

		item := models.DBInvoiceItem{
			Descricao: utils.TruncateRunes(description, 255),
			Rastreio:  strings.ToUpper(utils.SanitizeInput(record[1])),
			Status:    utils.SanitizeInput(record[2]),
			Valor:     models.MoneyString(value),
		}

		if doc := utils.OnlyDigits(record[4]); strings.TrimSpace(record[4]) != "" {
			id, known := subPayers[doc]
			if !known {
				id, err = s.lookupSubPayer(ctx, doc)
				if err != nil {
					s.logFailure(ctx, code, fileName, err)
					return nil, err
				}
				subPayers[doc] = id
			}
			if id == nil {
				skip("subpagador '%s' inválido ou não cadastrado", record[4])
				continue
			}
			item.SubPagadorID = id
		}

		items = append(items, item)
		total = total.Add(value)
	}

	if len(rows) > 0 && len(items) == 0 {
		verr := core.NewValidationError(
			fmt.Sprintf("nenhuma linha válida no arquivo '%s'", fileName),
			map[string]string{"arquivo": fmt.Sprintf("%d linha(s) ignorada(s)", result.Skipped)},
		)
		s.logFailure(ctx, code, fileName, verr)
		return nil, verr
	}

	imported, err := s.invoiceRepo.ReplaceItems(ctx, invoice.ID, items, models.MoneyString(total))
	if err != nil {
		s.logFailure(ctx, code, fileName, err)
		return nil, err
	}
	result.Imported = imported
	result.Total = models.MoneyString(total)

	username := RequestInfoFrom(ctx).Username
	if username == "" {
		username = "system"
	}
	if _, metaErr := s.importMetadataRepo.Upsert(ctx, models.ImportMetadataUpsert{
		InvoiceCode:      code,
		OriginalFilename: &fileName,
		Encoding:         &detectedEncoding,
		RowsRead:         &result.RowsRead,
		RecordCount:      &result.Imported,
		SkippedCount:     &result.Skipped,
		ImportedBy:       &username,
	}); metaErr != nil {
		appLogger.Warnf("Falha ao atualizar metadados da importação de '%s' (Fatura: %s): %v", fileName, code, metaErr)
	}

	audit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      models.AuditActionItemsImported,
		Description: fmt.Sprintf("Arquivo '%s' importado na fatura '%s'. Itens: %d. Linhas ignoradas: %d.", fileName, code, result.Imported, result.Skipped),
		Severity:    "INFO",
		InvoiceCode: &code,
		Metadata: models.JSONMetadata{
			"arquivo": fileName, "encoding": detectedEncoding, "importados": result.Imported,
			"ignorados": result.Skipped, "total": result.Total,
		},
	})

	appLogger.Infof("Importação da fatura '%s' concluída. Importados: %d, Ignorados: %d, Total: %s.", code, result.Imported, result.Skipped, result.Total)
	return result, nil
}

// lookupSubPayer devolve nil (sem erro) para documento inválido ou pagador inexistente.
func (s *importServiceImpl) lookupSubPayer(ctx context.Context, doc string) (*uuid.UUID, error) {
	if !utils.IsValidTaxID(doc) {
		return nil, nil
	}
	payer, err := s.invoiceRepo.GetPayerByDocument(ctx, doc)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	id := payer.ID
	return &id, nil
}

func (s *importServiceImpl) logFailure(ctx context.Context, code, fileName string, err error) {
	audit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      models.AuditActionItemsImportErr,
		Description: fmt.Sprintf("Falha na importação do arquivo '%s' na fatura '%s': %v", fileName, code, err),
		Severity:    "ERROR",
		InvoiceCode: &code,
		Metadata:    models.JSONMetadata{"arquivo": fileName, "error": err.Error()},
	})
}

func (s *importServiceImpl) GetImportStatus(ctx context.Context, code string) (*models.ImportMetadataPublic, error) {
	meta, err := s.importMetadataRepo.GetByInvoiceCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return models.ToImportMetadataPublic(meta), nil
}
