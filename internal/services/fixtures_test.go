package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brhub/envios-faturas/internal/core"
	"github.com/brhub/envios-faturas/internal/data"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/repositories"
)

const (
	testCNPJ = "12345678000195"
	testCPF  = "52998224725"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.InitializeDB(&core.Config{DBEngine: "sqlite", DBName: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })
	return db
}

func testPayer(name, doc string) *models.DBPayer {
	return &models.DBPayer{
		Nome: name, Documento: doc,
		Logradouro: "Rua das Flores", Numero: "100", Bairro: "Centro",
		Cidade: "Porto Alegre", UF: "RS", CEP: "90010000",
	}
}

type seeded struct {
	invoice  *models.DBInvoice
	payer    *models.DBPayer
	subPayer *models.DBPayer
}

// seedInvoice cria uma fatura com n itens de 10.00; os itens de índice ímpar pertencem ao subpagador.
func seedInvoice(t *testing.T, repo repositories.InvoiceRepository, code string, n int) seeded {
	t.Helper()
	ctx := context.Background()
	payer := testPayer("Loja Exemplo LTDA", testCNPJ)
	require.NoError(t, repo.CreatePayer(ctx, payer))
	sub := testPayer("Maria Silva", testCPF)
	require.NoError(t, repo.CreatePayer(ctx, sub))

	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)
	inv := &models.DBInvoice{
		Codigo: code, InicioPeriodo: &start, FimPeriodo: &end,
		ValorTotal: "150.00", Status: models.StatusFaturaAberta, PagadorID: payer.ID,
	}
	for i := 0; i < n; i++ {
		item := models.DBInvoiceItem{Descricao: "Envio", Rastreio: "BR123", Status: "ENTREGUE", Valor: "10.00"}
		if i%2 == 1 {
			id := sub.ID
			item.SubPagadorID = &id
		}
		inv.Itens = append(inv.Itens, item)
	}
	require.NoError(t, repo.Create(ctx, inv))
	return seeded{invoice: inv, payer: payer, subPayer: sub}
}

// auditRecorder guarda as entradas registradas.
type auditRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	err     error
}

func (a *auditRecorder) LogAction(ctx context.Context, entry models.AuditLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func (a *auditRecorder) GetAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	return nil, 0, nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type rendererMock struct {
	renderFn func(in pdf.Input) (*pdf.Document, error)
}

func (m *rendererMock) RenderDocument(in pdf.Input) (*pdf.Document, error) { return m.renderFn(in) }

func testRenderer() *pdf.Renderer {
	r := pdf.NewRenderer("BRHUB Envios")
	r.Compress = false
	r.Now = func() time.Time { return time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC) }
	return r
}
