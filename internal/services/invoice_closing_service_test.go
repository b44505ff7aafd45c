package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brhub/envios-faturas/internal/core"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/pdf"
	"github.com/brhub/envios-faturas/internal/repositories"
)

func TestGenerateInvoicePDF(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-2024/01", 50)
	rec := &auditRecorder{}
	svc := NewInvoiceClosingService(repo, testRenderer(), rec)

	res, err := svc.GenerateInvoicePDF(context.Background(), "FAT-2024/01", "")
	require.NoError(t, err)
	require.Equal(t, 2, res.Pages)
	require.Equal(t, 50, res.ItemCount)
	require.Equal(t, "150.00", res.Total)
	require.Equal(t, "fatura_FAT-2024_01.pdf", res.Filename)
	require.Len(t, res.Fingerprint, 64)

	raw, err := base64.StdEncoding.DecodeString(res.PDFBase64)
	require.NoError(t, err)
	require.Equal(t, res.SizeBytes, len(raw))
	require.True(t, strings.HasPrefix(string(raw), "%PDF-"))
	require.Contains(t, string(raw), "R$ 150.00")

	require.Equal(t, []string{models.AuditActionPDFGenerated}, rec.actions())
	require.Equal(t, 2, rec.entries[0].Metadata["paginas"])
}

func TestGenerateInvoicePDF_SubInvoice(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 6)

	var captured pdf.Input
	renderer := testRenderer()
	mock := &rendererMock{renderFn: func(in pdf.Input) (*pdf.Document, error) {
		captured = in
		return renderer.RenderDocument(in)
	}}
	svc := NewInvoiceClosingService(repo, mock, nil)

	res, err := svc.GenerateInvoicePDF(context.Background(), "FAT-1", "529.982.247-25")
	require.NoError(t, err)
	require.True(t, captured.SubInvoice)
	require.Len(t, captured.OverrideItems, 3)
	require.NotNil(t, captured.OverrideTotal)
	require.Equal(t, "30.00", captured.OverrideTotal.StringFixed(2))
	require.Equal(t, "Maria Silva", captured.Payer.Name)
	require.Equal(t, "30.00", res.Total)
	require.Equal(t, "fatura_FAT-1_52998224725.pdf", res.Filename)
	require.Equal(t, testCPF, res.SubPayerDocument)
}

func TestGenerateInvoicePDF_SubPayerWithoutItems(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 1) // apenas o item 0, do pagador principal
	svc := NewInvoiceClosingService(repo, testRenderer(), nil)

	_, err := svc.GenerateInvoicePDF(context.Background(), "FAT-1", testCPF)
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.GenerateInvoicePDF(context.Background(), "FAT-1", "11111111111")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "sub_pagador")

	_, err = svc.GenerateInvoicePDF(context.Background(), "FAT-1", "11144477735")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestGenerateInvoicePDF_NotFound(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	svc := NewInvoiceClosingService(repo, testRenderer(), nil)

	_, err := svc.GenerateInvoicePDF(context.Background(), "NAO-EXISTE", "")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GenerateInvoicePDF(context.Background(), " ", "")
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestGenerateInvoicePDF_InvalidPayer(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGormInvoiceRepository(db)
	s := seedInvoice(t, repo, "FAT-1", 1)
	require.NoError(t, db.Model(s.payer).Updates(map[string]interface{}{"cep": "123", "bairro": ""}).Error)

	svc := NewInvoiceClosingService(repo, testRenderer(), nil)
	_, err := svc.GenerateInvoicePDF(context.Background(), "FAT-1", "")

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "cep")
	require.Contains(t, verr.Fields, "bairro")
	require.NotContains(t, verr.Fields, "documento")
}

func TestGenerateInvoicePDF_RenderFailure(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	seedInvoice(t, repo, "FAT-1", 2)
	rec := &auditRecorder{err: errors.New("audit indisponível")}
	mock := &rendererMock{renderFn: func(in pdf.Input) (*pdf.Document, error) {
		return nil, pdf.ErrInvalidLayout
	}}
	svc := NewInvoiceClosingService(repo, mock, rec)

	res, err := svc.GenerateInvoicePDF(context.Background(), "FAT-1", "")
	require.Nil(t, res)
	require.ErrorIs(t, err, core.ErrRender)
	require.ErrorIs(t, err, pdf.ErrInvalidLayout)
	require.Equal(t, []string{models.AuditActionPDFFailed}, rec.actions())
}

func TestValidatePayer(t *testing.T) {
	require.NoError(t, ValidatePayer(testPayer("Loja", "12.345.678/0001-95")))
	require.NoError(t, ValidatePayer(testPayer("Maria", testCPF)))

	p := testPayer("", "12345678000100")
	p.UF = "rs"
	err := ValidatePayer(p)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, map[string]string{
		"nome":      "obrigatório",
		"documento": "CPF/CNPJ inválido",
		"uf":        "deve ter 2 letras maiúsculas",
	}, verr.Fields)

	require.ErrorIs(t, ValidatePayer(nil), core.ErrValidation)
}

func TestListInvoices(t *testing.T) {
	repo := repositories.NewGormInvoiceRepository(newTestDB(t))
	s := seedInvoice(t, repo, "FAT-A", 2)
	require.NoError(t, repo.Create(context.Background(), &models.DBInvoice{
		Codigo: "FAT-B", ValorTotal: "0.00", Status: models.StatusFaturaPaga, PagadorID: s.payer.ID,
	}))
	svc := NewInvoiceClosingService(repo, testRenderer(), nil)

	all, total, err := svc.ListInvoices(context.Background(), "", 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)

	open, total, err := svc.ListInvoices(context.Background(), "aberta", 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "FAT-A", open[0].InvoiceCode)
	require.Equal(t, "Loja Exemplo LTDA", open[0].PayerName)
	require.Equal(t, testCNPJ, open[0].PayerDocument)
	require.NotNil(t, open[0].PeriodStart)
}
