package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
)

// DataInput abstrai a fonte dos dados de exportação.
type DataInput interface {
	Headers() []string
	Rows() [][]string
	SheetName() string
}

// SliceDataInput é uma implementação de DataInput para um `[][]string`.
// A primeira linha é o cabeçalho.
type SliceDataInput struct {
	data      [][]string
	sheetName string
}

// NewSliceDataInput cria um DataInput a partir de um slice de slices de string.
func NewSliceDataInput(data [][]string, sheetName string) (*SliceDataInput, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: nenhum dado fornecido para SliceDataInput", core.ErrInvalidInput)
	}
	if sheetName == "" {
		sheetName = "Dados"
	}
	return &SliceDataInput{data: data, sheetName: sheetName}, nil
}

func (s *SliceDataInput) Headers() []string { return s.data[0] }

func (s *SliceDataInput) Rows() [][]string {
	if len(s.data) <= 1 {
		return [][]string{}
	}
	return s.data[1:]
}

func (s *SliceDataInput) SheetName() string { return s.sheetName }

// --- Sanitização ---
var (
	cpfRegex   = regexp.MustCompile(`\b(\d{3}[.-]?\d{3}[.-]?\d{3}-?\d{2})\b`)
	cnpjRegex  = regexp.MustCompile(`\b(\d{2}[.-]?\d{3}[.-]?\d{3}/?\d{4}-?\d{2})\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// MaskSensitive mascara CPF, CNPJ e e-mails dentro de um texto.
func MaskSensitive(s string) string {
	s = cnpjRegex.ReplaceAllString(s, "**.***.***/****-**")
	s = cpfRegex.ReplaceAllString(s, "***.***.***-**")
	s = emailRegex.ReplaceAllString(s, "****@****.***")
	return s
}

// columnIndexes resolve nomes de colunas (case-insensitive) para índices do cabeçalho.
func columnIndexes(headers []string, names []string) map[int]bool {
	indexes := make(map[int]bool, len(names))
	for _, name := range names {
		found := false
		for i, h := range headers {
			if strings.EqualFold(h, name) {
				indexes[i] = true
				found = true
				break
			}
		}
		if !found {
			appLogger.Warnf("Coluna '%s' não encontrada nos cabeçalhos. Ignorando.", name)
		}
	}
	return indexes
}

func sanitizeRows(headers []string, rows [][]string, sanitizeColumns []string) [][]string {
	if len(sanitizeColumns) == 0 || len(rows) == 0 {
		return rows
	}
	toSanitize := columnIndexes(headers, sanitizeColumns)
	if len(toSanitize) == 0 {
		return rows
	}

	sanitized := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		copy(newRow, row)
		for colIdx := range row {
			if toSanitize[colIdx] {
				newRow[colIdx] = MaskSensitive(row[colIdx])
			}
		}
		sanitized[i] = newRow
	}
	return sanitized
}

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	CreateBackup    bool
	Sanitize        bool
	SanitizeColumns []string // Nomes das colunas a serem mascaradas
	// Para Excel:
	NumericColumns []string           // Colunas gravadas como número (valores "1234.56")
	ColumnWidths   map[string]float64 // Nome da coluna -> largura
}

// ExportToCSV exporta dados para um arquivo CSV separado por ';'.
func ExportToCSV(input DataInput, outputPath string, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath := ResolveOutputPath(outputPath, exportDir, ".csv")

	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", core.WrapErrorf(core.ErrExport, "falha ao criar backup para CSV: %v", err)
		}
	}

	file, err := os.Create(finalPath)
	if err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao criar arquivo CSV '%s': %v", finalPath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = ';'

	headers := input.Headers()
	if err := writer.Write(headers); err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}

	rows := input.Rows()
	if opts.Sanitize {
		rows = sanitizeRows(headers, rows, opts.SanitizeColumns)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", core.WrapErrorf(core.ErrExport, "falha ao escrever linha CSV: %v", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao dar flush no writer CSV: %v", err)
	}
	appLogger.Infof("Dados exportados para CSV: %s", finalPath)
	return finalPath, nil
}

// ExportToXLSX exporta uma ou mais planilhas para um arquivo XLSX (Excel).
func ExportToXLSX(inputs []DataInput, outputPath string, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("%w: nenhuma planilha para exportar", core.ErrInvalidInput)
	}
	finalPath := ResolveOutputPath(outputPath, exportDir, ".xlsx")

	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", core.WrapErrorf(core.ErrExport, "falha ao criar backup para XLSX: %v", err)
		}
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    []excelize.Border{{Type: "bottom", Color: "FFFFFF", Style: 1}},
	})
	if err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao criar estilo de cabeçalho: %v", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao criar estilo numérico: %v", err)
	}

	for i, input := range inputs {
		sheetName := input.SheetName()
		if sheetName == "" {
			sheetName = fmt.Sprintf("Planilha%d", i+1)
		}
		// Excelize cria "Sheet1" por padrão; a primeira planilha apenas a renomeia.
		if i == 0 {
			if err := xlsx.SetSheetName("Sheet1", sheetName); err != nil {
				return "", core.WrapErrorf(core.ErrExport, "falha ao renomear planilha '%s': %v", sheetName, err)
			}
		} else if _, err := xlsx.NewSheet(sheetName); err != nil {
			return "", core.WrapErrorf(core.ErrExport, "falha ao criar planilha '%s': %v", sheetName, err)
		}

		headers := input.Headers()
		for colIdx, headerVal := range headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			if err := xlsx.SetCellValue(sheetName, cell, headerVal); err != nil {
				return "", core.WrapErrorf(core.ErrExport, "falha ao escrever cabeçalho: %v", err)
			}
			_ = xlsx.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		rows := input.Rows()
		if opts.Sanitize {
			rows = sanitizeRows(headers, rows, opts.SanitizeColumns)
		}
		numeric := columnIndexes(headers, opts.NumericColumns)

		for rowIdx, rowData := range rows {
			for colIdx, cellData := range rowData {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2) // +2: cabeçalho na linha 1
				if numeric[colIdx] {
					if d, errConv := decimal.NewFromString(cellData); errConv == nil {
						f, _ := d.Float64()
						_ = xlsx.SetCellFloat(sheetName, cell, f, 2, 64)
						_ = xlsx.SetCellStyle(sheetName, cell, cell, moneyStyle)
						continue
					}
				}
				if err := xlsx.SetCellStr(sheetName, cell, cellData); err != nil {
					return "", core.WrapErrorf(core.ErrExport, "falha ao escrever célula %s: %v", cell, err)
				}
			}
		}

		for colIdx, header := range headers {
			width, ok := opts.ColumnWidths[header]
			if !ok {
				width = 20
			}
			colLetter, _ := excelize.ColumnNumberToName(colIdx + 1)
			_ = xlsx.SetColWidth(sheetName, colLetter, colLetter, width)
		}
	}
	xlsx.SetActiveSheet(0)

	if err := xlsx.SaveAs(finalPath); err != nil {
		return "", core.WrapErrorf(core.ErrExport, "falha ao salvar arquivo XLSX '%s': %v", finalPath, err)
	}
	appLogger.Infof("Dados exportados para XLSX: %s", finalPath)
	return finalPath, nil
}

// ResolveOutputPath resolve caminhos relativos dentro de defaultDir e acrescenta a extensão padrão.
func ResolveOutputPath(path string, defaultDir string, defaultExt string) string {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) {
		absDefaultDir, _ := filepath.Abs(defaultDir)
		p = filepath.Join(absDefaultDir, p)
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		appLogger.Warnf("Não foi possível criar diretório de exportação '%s': %v. Usando diretório atual.", dir, err)
		p = filepath.Base(p)
	}

	if filepath.Ext(p) == "" {
		p += defaultExt
	}
	return p
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func createBackup(path string) error {
	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backupPath := fmt.Sprintf("%s_backup_%s%s", base, timestamp, ext)

	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	appLogger.Infof("Backup criado: %s", backupPath)
	return nil
}
