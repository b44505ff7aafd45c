package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gorm.io/gorm"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/httpapi"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/services"
	"github.com/brhub/envios-faturas/internal/utils"
)

const usage = `uso: fatura <comando> [opções]

comandos:
  cadastrar  cadastra um pagador ou uma fatura (cadastrar pagador|fatura)
  listar     lista as faturas cadastradas
  render     gera o PDF de fechamento de uma fatura
  import     substitui os itens de uma fatura a partir de um arquivo CSV/TXT
  export     exporta os itens de uma fatura para XLSX ou CSV
  auditoria  lista os logs de auditoria
  serve      inicia a API HTTP

use "fatura <comando> -h" para as opções de cada comando.
`

// app reúne as dependências montadas uma única vez por execução.
type app struct {
	cfg          *core.Config
	db           *gorm.DB
	audit        services.AuditLogService
	registration services.RegistrationService
	closing      services.InvoiceClosingService
	imports      services.ImportService
	exports      services.ExportService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := core.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Erro CRÍTICO ao carregar configuração: %v", err)
	}
	if err := appLogger.SetupLogger(cfg); err != nil {
		log.Fatalf("Erro CRÍTICO ao configurar logger: %v", err)
	}
	appLogger.Infof("Iniciando %s v%s (comando: %s)", cfg.AppName, cfg.AppVersion, os.Args[1])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = services.WithRequestInfo(ctx, services.RequestInfo{Username: "cli"})

	var run func(context.Context, *app, []string) error
	switch os.Args[1] {
	case "cadastrar":
		run = runRegister
	case "listar":
		run = runList
	case "render":
		run = runRender
	case "import":
		run = runImport
	case "export":
		run = runExport
	case "auditoria":
		run = runAudit
	case "serve":
		run = runServe
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "comando desconhecido: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	a, err := newApp(cfg)
	if err != nil {
		appLogger.Fatalf("Erro CRÍTICO ao inicializar: %v", err)
	}
	err = run(ctx, a, os.Args[2:])
	if closeErr := data.CloseDB(a.db); closeErr != nil {
		appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", closeErr)
	}
	if err != nil {
		appLogger.Errorf("Comando '%s' falhou: %v", os.Args[1], err)
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg *core.Config) (*app, error) {
	db, err := data.InitializeDB(cfg)
	if err != nil {
		return nil, err
	}
	invoiceRepo := repositories.NewGormInvoiceRepository(db)
	auditLogService := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db))

	return &app{
		cfg:          cfg,
		db:           db,
		audit:        auditLogService,
		registration: services.NewRegistrationService(invoiceRepo, auditLogService),
		closing:      services.NewInvoiceClosingService(invoiceRepo, services.NewRendererFromConfig(cfg), auditLogService),
		imports:      services.NewImportService(invoiceRepo, repositories.NewGormImportMetadataRepository(db), auditLogService),
		exports:      services.NewExportService(cfg, invoiceRepo, auditLogService),
	}, nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: use \"cadastrar pagador\" ou \"cadastrar fatura\"", core.ErrInvalidInput)
	}
	switch args[0] {
	case "pagador":
		return runRegisterPayer(ctx, a, args[1:])
	case "fatura":
		return runRegisterInvoice(ctx, a, args[1:])
	}
	return fmt.Errorf("%w: cadastro desconhecido '%s' (use pagador ou fatura)", core.ErrInvalidInput, args[0])
}

func runRegisterPayer(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cadastrar pagador", flag.ExitOnError)
	var in services.PayerInput
	fs.StringVar(&in.Nome, "nome", "", "nome ou razão social")
	fs.StringVar(&in.Documento, "documento", "", "CPF ou CNPJ")
	fs.StringVar(&in.Logradouro, "logradouro", "", "rua/avenida")
	fs.StringVar(&in.Numero, "numero", "", "número")
	fs.StringVar(&in.Complemento, "complemento", "", "complemento")
	fs.StringVar(&in.Bairro, "bairro", "", "bairro")
	fs.StringVar(&in.Cidade, "cidade", "", "cidade")
	fs.StringVar(&in.UF, "uf", "", "sigla do estado")
	fs.StringVar(&in.CEP, "cep", "", "CEP")
	fs.StringVar(&in.Telefone, "telefone", "", "telefone")
	_ = fs.Parse(args)

	payer, err := a.registration.RegisterPayer(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("pagador %s cadastrado: %s (%s)\n", payer.ID, payer.Nome, utils.FormatTaxID(payer.Documento))
	return nil
}

func runRegisterInvoice(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cadastrar fatura", flag.ExitOnError)
	var in services.InvoiceInput
	fs.StringVar(&in.Codigo, "codigo", "", "código da fatura")
	fs.StringVar(&in.DocumentoPagador, "pagador", "", "CPF/CNPJ do pagador já cadastrado")
	fs.StringVar(&in.InicioPeriodo, "inicio", "", "início do período (DD/MM/AAAA)")
	fs.StringVar(&in.FimPeriodo, "fim", "", "fim do período (DD/MM/AAAA)")
	fs.StringVar(&in.Vencimento, "vencimento", "", "vencimento (DD/MM/AAAA)")
	fs.StringVar(&in.Status, "status", models.StatusFaturaAberta, "ABERTA, FECHADA ou PAGA")
	_ = fs.Parse(args)

	invoice, err := a.registration.CreateInvoice(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("fatura %s cadastrada (%s) para %s; importe os itens com \"fatura import\"\n", invoice.InvoiceCode, invoice.Status, invoice.PayerName)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("listar", flag.ExitOnError)
	status := fs.String("status", "", "filtra pelo status (ABERTA, FECHADA, PAGA)")
	limit := fs.Int("limit", 20, "quantidade máxima de faturas")
	offset := fs.Int("offset", 0, "deslocamento")
	_ = fs.Parse(args)

	invoices, total, err := a.closing.ListInvoices(ctx, *status, *limit, *offset)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		fmt.Printf("%-20s %-8s R$ %12s  %s (%s)\n", inv.InvoiceCode, inv.Status, inv.Total, inv.PayerName, utils.FormatTaxID(inv.PayerDocument))
	}
	fmt.Printf("%d de %d fatura(s)\n", len(invoices), total)
	return nil
}

func runRender(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	code := fs.String("codigo", "", "código da fatura (obrigatório)")
	sub := fs.String("sub-pagador", "", "CPF/CNPJ do subpagador para gerar a subfatura")
	out := fs.String("out", "", "arquivo de saída (padrão: nome sugerido dentro de APP_EXPORT_DIR)")
	_ = fs.Parse(args)
	if *code == "" {
		fs.Usage()
		return fmt.Errorf("%w: -codigo é obrigatório", core.ErrInvalidInput)
	}

	res, err := a.closing.GenerateInvoicePDF(ctx, *code, *sub)
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(res.PDFBase64)
	if err != nil {
		return core.WrapErrorf(core.ErrInternal, "PDF gerado com base64 inválido: %v", err)
	}

	target := *out
	if target == "" {
		target = res.Filename
	}
	path := utils.ResolveOutputPath(target, a.cfg.ExportDir, ".pdf")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return core.WrapErrorf(core.ErrExport, "falha ao gravar '%s': %v", path, err)
	}
	fmt.Printf("%s: %d página(s), %d bytes, total R$ %s\nblake2b-256 %s\n", path, res.Pages, res.SizeBytes, res.Total, res.Fingerprint)
	return nil
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	code := fs.String("codigo", "", "código da fatura (obrigatório)")
	file := fs.String("arquivo", "", "arquivo CSV/TXT separado por ';' (obrigatório)")
	_ = fs.Parse(args)
	if *code == "" || *file == "" {
		fs.Usage()
		return fmt.Errorf("%w: -codigo e -arquivo são obrigatórios", core.ErrInvalidInput)
	}

	res, err := a.imports.ImportItems(ctx, *code, *file)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %d item(ns) importado(s), %d linha(s) ignorada(s), total R$ %s\n",
		filepath.Base(*file), res.Encoding, res.Imported, res.Skipped, res.Total)
	if len(res.SkippedLines) > 0 {
		fmt.Printf("linhas ignoradas: %v\n", res.SkippedLines)
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	code := fs.String("codigo", "", "código da fatura (obrigatório)")
	format := fs.String("formato", services.ExportFormatXLSX, "xlsx ou csv")
	out := fs.String("out", "", "arquivo de saída (relativo a APP_EXPORT_DIR)")
	mask := fs.Bool("mascarar", false, "mascara CPF/CNPJ")
	_ = fs.Parse(args)
	if *code == "" {
		fs.Usage()
		return fmt.Errorf("%w: -codigo é obrigatório", core.ErrInvalidInput)
	}

	path, err := a.exports.ExportItems(ctx, *code, *format, *out, *mask)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runAudit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("auditoria", flag.ExitOnError)
	filter := models.AuditLogFilter{}
	fs.StringVar(&filter.InvoiceCode, "codigo", "", "filtra pelo código da fatura")
	fs.StringVar(&filter.Action, "acao", "", "filtra pela ação")
	fs.StringVar(&filter.Severity, "severidade", "", "filtra pela severidade")
	fs.IntVar(&filter.Limit, "limit", 20, "quantidade máxima de registros")
	fs.IntVar(&filter.Offset, "offset", 0, "deslocamento")
	_ = fs.Parse(args)

	logs, total, err := a.audit.GetAuditLogs(ctx, filter)
	if err != nil {
		return err
	}
	for _, l := range logs {
		fmt.Printf("%s  %-8s %-30s %s\n", l.Timestamp.Format("02/01/2006 15:04:05"), l.Severity, l.Action, l.Description)
	}
	fmt.Printf("%d de %d registro(s)\n", len(logs), total)
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.cfg.HTTPAddr, "endereço de escuta")
	_ = fs.Parse(args)
	a.cfg.HTTPAddr = *addr

	router := httpapi.NewRouter(a.cfg, httpapi.NewHandler(a.closing, a.registration, a.imports, a.audit))
	return httpapi.Serve(ctx, a.cfg, router)
}
