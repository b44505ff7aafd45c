package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brhub/envios-faturas/internal/core"
	"github.com/brhub/envios-faturas/internal/data"
	"github.com/brhub/envios-faturas/internal/data/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.InitializeDB(&core.Config{DBEngine: "sqlite", DBName: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })
	return db
}

func seedInvoice(t *testing.T, repo InvoiceRepository, code string, items int) *models.DBInvoice {
	t.Helper()
	ctx := context.Background()
	payer := &models.DBPayer{
		Nome: "Loja Exemplo LTDA", Documento: "12.345.678/0001-95",
		Logradouro: "Rua das Flores", Numero: "100", Bairro: "Centro",
		Cidade: "Porto Alegre", UF: "rs", CEP: "90010-000",
	}
	require.NoError(t, repo.CreatePayer(ctx, payer))

	due := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	inv := &models.DBInvoice{
		Codigo: code, Vencimento: &due, ValorTotal: "150.00",
		Status: models.StatusFaturaAberta, PagadorID: payer.ID,
	}
	for i := 0; i < items; i++ {
		inv.Itens = append(inv.Itens, models.DBInvoiceItem{
			Descricao: "Envio", Rastreio: "BR" + string(rune('A'+i)), Status: "ENTREGUE", Valor: "10.00",
		})
	}
	require.NoError(t, repo.Create(ctx, inv))
	return inv
}

func TestInvoiceRepository_GetByCode(t *testing.T) {
	repo := NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 3)

	inv, err := repo.GetByCode(context.Background(), " FAT-1 ")
	require.NoError(t, err)
	require.Equal(t, "FAT-1", inv.Codigo)
	require.Equal(t, "12345678000195", inv.Pagador.Documento)
	require.Equal(t, "RS", inv.Pagador.UF)
	require.Equal(t, "90010000", inv.Pagador.CEP)
	require.Len(t, inv.Itens, 3)
	for i, it := range inv.Itens {
		require.Equal(t, i+1, it.Posicao)
	}

	_, err = repo.GetByCode(context.Background(), "NAO-EXISTE")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.GetByCode(context.Background(), "  ")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestInvoiceRepository_CreateDuplicated(t *testing.T) {
	repo := NewGormInvoiceRepository(newTestDB(t))
	inv := seedInvoice(t, repo, "FAT-1", 0)

	err := repo.Create(context.Background(), &models.DBInvoice{
		Codigo: "FAT-1", ValorTotal: "1.00", Status: models.StatusFaturaAberta, PagadorID: inv.PagadorID,
	})
	require.ErrorIs(t, err, core.ErrConflict)

	err = repo.CreatePayer(context.Background(), &models.DBPayer{Nome: "Outro", Documento: "12345678000195"})
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestInvoiceRepository_GetPayerByDocument(t *testing.T) {
	repo := NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 0)

	p, err := repo.GetPayerByDocument(context.Background(), "12.345.678/0001-95")
	require.NoError(t, err)
	require.Equal(t, "Loja Exemplo LTDA", p.Nome)

	_, err = repo.GetPayerByDocument(context.Background(), "52998224725")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoiceRepository_ReplaceItems(t *testing.T) {
	repo := NewGormInvoiceRepository(newTestDB(t))
	inv := seedInvoice(t, repo, "FAT-1", 5)
	ctx := context.Background()

	n, err := repo.ReplaceItems(ctx, inv.ID, []models.DBInvoiceItem{
		{Descricao: "Novo A", Valor: "1.50", Posicao: 9},
		{Descricao: "Novo B", Valor: "2.50", Posicao: 3},
	}, "4.00")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := repo.GetByCode(ctx, "FAT-1")
	require.NoError(t, err)
	require.Equal(t, "4.00", got.ValorTotal)
	require.Len(t, got.Itens, 2)
	require.Equal(t, "Novo A", got.Itens[0].Descricao)
	require.Equal(t, 1, got.Itens[0].Posicao)
	require.Equal(t, "Novo B", got.Itens[1].Descricao)

	// Lista vazia remove todos os itens.
	_, err = repo.ReplaceItems(ctx, inv.ID, nil, "0.00")
	require.NoError(t, err)
	got, err = repo.GetByCode(ctx, "FAT-1")
	require.NoError(t, err)
	require.Empty(t, got.Itens)
}

func TestInvoiceRepository_List(t *testing.T) {
	repo := NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 1)

	list, total, err := repo.List(context.Background(), "aberta", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, "Loja Exemplo LTDA", list[0].Pagador.Nome)

	list, total, err = repo.List(context.Background(), models.StatusFaturaPaga, 10, 0)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)
}

func TestInvoiceRepository_ListCapsLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	first := seedInvoice(t, repo, "FAT-0000", 0)

	rows := make([]models.DBInvoice, 0, 1004)
	for i := 1; i <= 1004; i++ {
		rows = append(rows, models.DBInvoice{
			Codigo: fmt.Sprintf("FAT-%04d", i), ValorTotal: "0.00",
			Status: models.StatusFaturaAberta, PagadorID: first.PagadorID,
		})
	}
	require.NoError(t, db.Omit("Pagador", "Itens").CreateInBatches(rows, 200).Error)

	list, total, err := repo.List(context.Background(), "", 1500, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1005, total)
	require.Len(t, list, 1000)

	list, _, err = repo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 100)
}

func TestAuditLogRepository_CreateAndFilter(t *testing.T) {
	repo := NewGormAuditLogRepository(newTestDB(t))
	ctx := context.Background()
	code := "FAT-1"

	base := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{models.AuditActionPDFGenerated, models.AuditActionItemsImported, models.AuditActionPDFGenerated} {
		_, err := repo.Create(ctx, models.AuditLogEntry{
			Timestamp: base.Add(time.Duration(i) * time.Minute), Action: action,
			Description: "teste", Severity: "info", Username: "system", InvoiceCode: &code,
			Metadata: models.JSONMetadata{"pages": 2},
		})
		require.NoError(t, err)
	}

	logs, total, err := repo.GetFiltered(ctx, models.AuditLogFilter{Action: "fatura_pdf_gerado"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	require.True(t, logs[0].Timestamp.After(logs[1].Timestamp))
	require.Equal(t, "INFO", logs[0].Severity)
	require.EqualValues(t, 2, logs[0].Metadata["pages"])

	logs, total, err = repo.GetFiltered(ctx, models.AuditLogFilter{InvoiceCode: code, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, logs, 1)

	day := base.AddDate(0, 0, 1)
	_, total, err = repo.GetFiltered(ctx, models.AuditLogFilter{StartDate: &day})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestImportMetadataRepository_Upsert(t *testing.T) {
	repo := NewGormImportMetadataRepository(newTestDB(t))
	ctx := context.Background()

	name1, name2 := "a.csv", "b.csv"
	count1, count2 := 3, 7
	read1, read2 := 4, 9
	_, err := repo.Upsert(ctx, models.ImportMetadataUpsert{InvoiceCode: " FAT-1 ", OriginalFilename: &name1, RowsRead: &read1, RecordCount: &count1})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, models.ImportMetadataUpsert{InvoiceCode: "FAT-1", OriginalFilename: &name2, RowsRead: &read2, RecordCount: &count2})
	require.NoError(t, err)

	meta, err := repo.GetByInvoiceCode(ctx, "FAT-1")
	require.NoError(t, err)
	require.Equal(t, "b.csv", *meta.OriginalFilename)
	require.Equal(t, 7, *meta.RecordCount)
	require.Equal(t, 9, *meta.RowsRead)

	_, err = repo.GetByInvoiceCode(ctx, "FAT-2")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.Upsert(ctx, models.ImportMetadataUpsert{InvoiceCode: " "})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}
