package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/brhub/envios-faturas/internal/core"
)

func sampleInput(t *testing.T) *SliceDataInput {
	t.Helper()
	in, err := NewSliceDataInput([][]string{
		{"POSICAO", "DESCRICAO", "VALOR", "CPF_CNPJ_SUBPAGADOR"},
		{"1", "Envio PAC", "1234.50", "529.982.247-25"},
		{"2", "Envio SEDEX", "10.00", "12.345.678/0001-95"},
	}, "Itens")
	require.NoError(t, err)
	return in
}

func TestNewSliceDataInput(t *testing.T) {
	_, err := NewSliceDataInput(nil, "x")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	in, err := NewSliceDataInput([][]string{{"A"}}, "")
	require.NoError(t, err)
	require.Equal(t, "Dados", in.SheetName())
	require.Empty(t, in.Rows())
}

func TestMaskSensitive(t *testing.T) {
	require.Equal(t, "***.***.***-**", MaskSensitive("529.982.247-25"))
	require.Equal(t, "**.***.***/****-**", MaskSensitive("12.345.678/0001-95"))
	require.Equal(t, "contato: ****@****.***", MaskSensitive("contato: financeiro@brhub.com.br"))
	require.Equal(t, "Envio PAC", MaskSensitive("Envio PAC"))
}

func TestExportToCSVSanitizesColumns(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToCSV(sampleInput(t), "itens", dir, &ExportOptions{
		Sanitize:        true,
		SanitizeColumns: []string{"cpf_cnpj_subpagador"},
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "itens.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "***.***.***-**", records[1][3])
	require.Equal(t, "**.***.***/****-**", records[2][3])
	require.Equal(t, "Envio PAC", records[1][1])
}

func TestExportToCSVBackup(t *testing.T) {
	dir := t.TempDir()
	_, err := ExportToCSV(sampleInput(t), "itens.csv", dir, nil)
	require.NoError(t, err)
	_, err = ExportToCSV(sampleInput(t), "itens.csv", dir, &ExportOptions{CreateBackup: true})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if strings.Contains(e.Name(), "_backup_") {
			backups++
		}
	}
	require.Equal(t, 1, backups)
}

func TestExportToXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToXLSX([]DataInput{sampleInput(t)}, "itens", dir, &ExportOptions{
		NumericColumns: []string{"VALOR"},
		ColumnWidths:   map[string]float64{"DESCRICAO": 40},
	})
	require.NoError(t, err)
	require.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Itens"}, f.GetSheetList())
	rows, err := f.GetRows("Itens", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "DESCRICAO", rows[0][1])
	require.True(t, strings.HasPrefix(rows[1][2], "1234.5"), rows[1][2])

	width, err := f.GetColWidth("Itens", "B")
	require.NoError(t, err)
	require.Equal(t, 40.0, width)
}

func TestExportToXLSXRequiresSheets(t *testing.T) {
	_, err := ExportToXLSX(nil, "x", t.TempDir(), nil)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, filepath.Join(dir, "sub", "a.pdf"), ResolveOutputPath("sub/a", dir, ".pdf"))
	abs := filepath.Join(dir, "b.csv")
	require.Equal(t, abs, ResolveOutputPath(abs, "/nao/usado", ".xlsx"))
}
