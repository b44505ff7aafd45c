package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/utils"
)

const maxInvoiceCodeLen = 50

// PayerInput são os dados de cadastro de um pagador.
type PayerInput struct {
	Nome        string `json:"nome"`
	Documento   string `json:"documento"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`
	Telefone    string `json:"telefone"`
}

// InvoiceInput é o cabeçalho de uma nova fatura. Os itens entram depois pela importação.
// Datas aceitam DD/MM/AAAA, AAAA-MM-DD ou RFC3339.
type InvoiceInput struct {
	Codigo           string `json:"codigo"`
	DocumentoPagador string `json:"documento_pagador"`
	InicioPeriodo    string `json:"inicio_periodo"`
	FimPeriodo       string `json:"fim_periodo"`
	Vencimento       string `json:"vencimento"`
	Status           string `json:"status"`
}

// RegistrationService cadastra pagadores e faturas.
type RegistrationService interface {
	// RegisterPayer valida e grava um pagador. Documento repetido devolve ErrConflict.
	RegisterPayer(ctx context.Context, in PayerInput) (*models.PayerPublic, error)
	// CreateInvoice grava uma fatura sem itens e com total 0.00 para um pagador já cadastrado.
	CreateInvoice(ctx context.Context, in InvoiceInput) (*models.InvoiceSummary, error)
}

type registrationServiceImpl struct {
	repo  repositories.InvoiceRepository
	audit AuditLogService
}

// NewRegistrationService cria o serviço. audit pode ser nil.
func NewRegistrationService(repo repositories.InvoiceRepository, audit AuditLogService) RegistrationService {
	if repo == nil {
		appLogger.Fatalf("InvoiceRepository não pode ser nil para NewRegistrationService")
	}
	return &registrationServiceImpl{repo: repo, audit: audit}
}

func (s *registrationServiceImpl) RegisterPayer(ctx context.Context, in PayerInput) (*models.PayerPublic, error) {
	payer := &models.DBPayer{
		Nome:        utils.SanitizeInput(in.Nome),
		Documento:   utils.OnlyDigits(in.Documento),
		Logradouro:  utils.SanitizeInput(in.Logradouro),
		Numero:      utils.SanitizeInput(in.Numero),
		Complemento: utils.SanitizeInput(in.Complemento),
		Bairro:      utils.SanitizeInput(in.Bairro),
		Cidade:      utils.SanitizeInput(in.Cidade),
		UF:          strings.ToUpper(strings.TrimSpace(in.UF)),
		CEP:         utils.OnlyDigits(in.CEP),
		Telefone:    utils.OnlyDigits(in.Telefone),
	}
	if err := ValidatePayer(payer); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePayer(ctx, payer); err != nil {
		return nil, err
	}

	appLogger.Infof("Pagador '%s' (%s) cadastrado.", payer.Nome, utils.FormatTaxID(payer.Documento))
	audit(ctx, s.audit, models.AuditLogEntry{
		Action:      models.AuditActionPayerCreated,
		Description: fmt.Sprintf("Pagador '%s' cadastrado.", payer.Nome),
		Severity:    "INFO",
		Metadata:    models.JSONMetadata{"pagador_id": payer.ID.String(), "documento": payer.Documento},
	})
	public := payer.ToPublic()
	return &public, nil
}

func (s *registrationServiceImpl) CreateInvoice(ctx context.Context, in InvoiceInput) (*models.InvoiceSummary, error) {
	fields := map[string]string{}

	code := strings.TrimSpace(in.Codigo)
	switch {
	case code == "":
		fields["codigo"] = "obrigatório"
	case len([]rune(code)) > maxInvoiceCodeLen:
		fields["codigo"] = fmt.Sprintf("máximo de %d caracteres", maxInvoiceCodeLen)
	}

	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.StatusFaturaAberta
	}
	switch status {
	case models.StatusFaturaAberta, models.StatusFaturaFechada, models.StatusFaturaPaga:
	default:
		fields["status"] = "use ABERTA, FECHADA ou PAGA"
	}

	dates := map[string]*string{"inicio_periodo": &in.InicioPeriodo, "fim_periodo": &in.FimPeriodo, "vencimento": &in.Vencimento}
	parsed := map[string]*time.Time{}
	for field, raw := range dates {
		if strings.TrimSpace(*raw) == "" {
			continue
		}
		t := pdf.ParseDate(*raw)
		if t == nil {
			fields[field] = "data inválida"
			continue
		}
		parsed[field] = t
	}
	start, end := parsed["inicio_periodo"], parsed["fim_periodo"]
	if start != nil && end != nil && end.Before(*start) {
		fields["fim_periodo"] = "anterior ao início do período"
	}

	doc := utils.OnlyDigits(in.DocumentoPagador)
	if !utils.IsValidTaxID(doc) {
		fields["documento_pagador"] = "CPF/CNPJ inválido"
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError("dados da fatura inválidos", fields)
	}

	payer, err := s.repo.GetPayerByDocument(ctx, doc)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NewValidationError("pagador não cadastrado", map[string]string{"documento_pagador": "não cadastrado"})
		}
		return nil, err
	}

	invoice := &models.DBInvoice{
		Codigo:        code,
		InicioPeriodo: start,
		FimPeriodo:    end,
		Vencimento:    parsed["vencimento"],
		ValorTotal:    models.MoneyString(decimal.Zero),
		Status:        status,
		PagadorID:     payer.ID,
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	invoice.Pagador = *payer

	appLogger.Infof("Fatura '%s' cadastrada para o pagador '%s'.", code, payer.Nome)
	audit(ctx, s.audit, models.AuditLogEntry{
		Action:      models.AuditActionInvoiceCreated,
		Description: fmt.Sprintf("Fatura '%s' cadastrada para '%s'.", code, payer.Nome),
		Severity:    "INFO",
		InvoiceCode: &code,
		Metadata:    models.JSONMetadata{"pagador": payer.Documento, "status": status},
	})
	summary := invoice.ToSummary()
	return &summary, nil
}
