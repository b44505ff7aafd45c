package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brhub/envios-faturas/internal/pdf"
)

// Status de fatura usados pelo faturamento.
const (
	StatusFaturaAberta  = "ABERTA"
	StatusFaturaFechada = "FECHADA"
	StatusFaturaPaga    = "PAGA"
)

// DBPayer representa um registro na tabela 'pagadores'.
type DBPayer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nome      string    `gorm:"type:varchar(255);not null"`
	Documento string    `gorm:"type:varchar(14);uniqueIndex;not null"` // CPF/CNPJ, apenas dígitos

	Logradouro  string `gorm:"type:varchar(255)"`
	Numero      string `gorm:"type:varchar(20)"`
	Complemento string `gorm:"type:varchar(100)"`
	Bairro      string `gorm:"type:varchar(100)"`
	Cidade      string `gorm:"type:varchar(100)"`
	UF          string `gorm:"type:varchar(2)"`
	CEP         string `gorm:"type:varchar(8)"`
	Telefone    string `gorm:"type:varchar(20)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DBPayer) TableName() string {
	return "pagadores"
}

// BeforeCreate gera o UUID quando não informado.
func (p *DBPayer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DBInvoice representa um registro na tabela 'faturas'.
type DBInvoice struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Codigo        string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	InicioPeriodo *time.Time `gorm:"index"`
	FimPeriodo    *time.Time
	Vencimento    *time.Time

	// Valores monetários são armazenados como string ("1234.56") para precisão.
	ValorTotal string `gorm:"type:varchar(30);not null"`
	Status     string `gorm:"type:varchar(30);not null;index"`

	PagadorID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Pagador   DBPayer         `gorm:"foreignKey:PagadorID"`
	Itens     []DBInvoiceItem `gorm:"foreignKey:FaturaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DBInvoice) TableName() string {
	return "faturas"
}

func (f *DBInvoice) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// DBInvoiceItem representa um registro na tabela 'fatura_itens'.
// Posicao preserva a ordem de inserção, que é a ordem de exibição.
type DBInvoiceItem struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	FaturaID  uuid.UUID `gorm:"type:uuid;not null;index:idx_fatura_posicao,priority:1"`
	Posicao   int       `gorm:"not null;index:idx_fatura_posicao,priority:2"`
	Descricao string    `gorm:"type:varchar(255);not null"`
	Rastreio  string    `gorm:"type:varchar(50);index"`
	Status    string    `gorm:"type:varchar(50)"`
	Valor     string    `gorm:"type:varchar(30);not null"`

	// SubPagadorID identifica o pagador responsável pelo item numa subfatura (opcional).
	SubPagadorID *uuid.UUID `gorm:"type:uuid;index"`
	SubPagador   *DBPayer   `gorm:"foreignKey:SubPagadorID"`
}

func (DBInvoiceItem) TableName() string {
	return "fatura_itens"
}

// MoneyString normaliza um valor para armazenamento ("1234.56").
func MoneyString(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// ParseMoney converte o valor armazenado. Vazio vale zero.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// --- Conversões para o renderizador ---

// ToPDFPayer converte o pagador do banco para o formato do PDF.
func (p *DBPayer) ToPDFPayer() pdf.Payer {
	return pdf.Payer{
		Name:  p.Nome,
		TaxID: p.Documento,
		Address: pdf.Address{
			Street:     p.Logradouro,
			Number:     p.Numero,
			Complement: p.Complemento,
			District:   p.Bairro,
			City:       p.Cidade,
			State:      p.UF,
			PostalCode: p.CEP,
		},
		Phone: p.Telefone,
	}
}

// ToPDFLineItem converte um item do banco.
func (it *DBInvoiceItem) ToPDFLineItem() (pdf.LineItem, error) {
	v, err := ParseMoney(it.Valor)
	if err != nil {
		return pdf.LineItem{}, fmt.Errorf("valor inválido '%s' no item %d: %w", it.Valor, it.Posicao, err)
	}
	return pdf.LineItem{
		Description:  it.Descricao,
		TrackingCode: it.Rastreio,
		Status:       it.Status,
		Value:        v,
	}, nil
}

// ToPDFInvoice converte a fatura e seus itens (na ordem em que estão carregados).
func (f *DBInvoice) ToPDFInvoice() (pdf.Invoice, error) {
	total, err := ParseMoney(f.ValorTotal)
	if err != nil {
		return pdf.Invoice{}, fmt.Errorf("valor total inválido '%s' na fatura %s: %w", f.ValorTotal, f.Codigo, err)
	}
	items := make([]pdf.LineItem, 0, len(f.Itens))
	for i := range f.Itens {
		item, err := f.Itens[i].ToPDFLineItem()
		if err != nil {
			return pdf.Invoice{}, err
		}
		items = append(items, item)
	}
	return pdf.Invoice{
		Code:        f.Codigo,
		PeriodStart: f.InicioPeriodo,
		PeriodEnd:   f.FimPeriodo,
		DueDate:     f.Vencimento,
		Total:       total,
		Status:      f.Status,
		Items:       items,
	}, nil
}

// --- DTOs ---

// GeneratedInvoicePDF é o resultado do fechamento devolvido à API e à CLI.
type GeneratedInvoicePDF struct {
	InvoiceCode      string    `json:"codigo"`
	SubPayerDocument string    `json:"sub_pagador,omitempty"`
	PDFBase64        string    `json:"pdf_base64"`
	Filename         string    `json:"filename"`
	Pages            int       `json:"pages"`
	SizeBytes        int       `json:"size_bytes"`
	Fingerprint      string    `json:"fingerprint"`
	Total            string    `json:"total"`
	ItemCount        int       `json:"item_count"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// ImportResult resume uma importação de itens.
type ImportResult struct {
	InvoiceCode  string `json:"codigo"`
	FileName     string `json:"arquivo"`
	Encoding     string `json:"encoding"`
	RowsRead     int    `json:"linhas_lidas"`
	Imported     int    `json:"importados"`
	Skipped      int    `json:"ignorados"`
	SkippedLines []int  `json:"linhas_ignoradas,omitempty"`
	Total        string `json:"total"`
}

// InvoiceSummary é a visão de listagem de uma fatura, sem itens.
type InvoiceSummary struct {
	InvoiceCode   string     `json:"codigo"`
	Status        string     `json:"status"`
	Total         string     `json:"total"`
	PayerName     string     `json:"pagador"`
	PayerDocument string     `json:"documento"`
	PeriodStart   *time.Time `json:"inicio_periodo,omitempty"`
	PeriodEnd     *time.Time `json:"fim_periodo,omitempty"`
	DueDate       *time.Time `json:"vencimento,omitempty"`
}

// ToSummary converte a fatura (com Pagador carregado) para a visão de listagem.
func (f *DBInvoice) ToSummary() InvoiceSummary {
	return InvoiceSummary{
		InvoiceCode:   f.Codigo,
		Status:        f.Status,
		Total:         f.ValorTotal,
		PayerName:     f.Pagador.Nome,
		PayerDocument: f.Pagador.Documento,
		PeriodStart:   f.InicioPeriodo,
		PeriodEnd:     f.FimPeriodo,
		DueDate:       f.Vencimento,
	}
}

// PayerPublic é a visão do pagador devolvida pela API e pela CLI.
type PayerPublic struct {
	ID          string `json:"id"`
	Nome        string `json:"nome"`
	Documento   string `json:"documento"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`
	Telefone    string `json:"telefone,omitempty"`
}

func (p *DBPayer) ToPublic() PayerPublic {
	return PayerPublic{
		ID: p.ID.String(), Nome: p.Nome, Documento: p.Documento,
		Logradouro: p.Logradouro, Numero: p.Numero, Complemento: p.Complemento,
		Bairro: p.Bairro, Cidade: p.Cidade, UF: p.UF, CEP: p.CEP, Telefone: p.Telefone,
	}
}
