package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/utils"
)

// InvoiceRepository define as operações sobre faturas, pagadores e itens.
type InvoiceRepository interface {
	// GetByCode busca a fatura com pagador e itens (ordenados por posição).
	GetByCode(ctx context.Context, code string) (*models.DBInvoice, error)

	// GetPayerByDocument busca um pagador pelo CPF/CNPJ (com ou sem máscara).
	GetPayerByDocument(ctx context.Context, document string) (*models.DBPayer, error)

	// CreatePayer insere um pagador; o documento é gravado apenas com dígitos.
	CreatePayer(ctx context.Context, payer *models.DBPayer) error

	// Create insere a fatura e seus itens. PagadorID deve estar preenchido.
	Create(ctx context.Context, invoice *models.DBInvoice) error

	// ReplaceItems substitui todos os itens da fatura e atualiza o valor total numa única transação.
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.DBInvoiceItem, total string) (int, error)

	// List devolve faturas (sem itens) filtradas por status, mais recentes primeiro.
	List(ctx context.Context, status string, limit, offset int) ([]models.DBInvoice, int64, error)
}

type gormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository cria uma nova instância de gormInvoiceRepository.
func NewGormInvoiceRepository(db *gorm.DB) InvoiceRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormInvoiceRepository")
	}
	return &gormInvoiceRepository{db: db}
}

func (r *gormInvoiceRepository) GetByCode(ctx context.Context, code string) (*models.DBInvoice, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código da fatura não pode ser vazio", core.ErrInvalidInput)
	}

	var invoice models.DBInvoice
	err := r.db.WithContext(ctx).
		Preload("Pagador").
		Preload("Itens", func(db *gorm.DB) *gorm.DB { return db.Order("posicao ASC") }).
		Preload("Itens.SubPagador").
		Where("codigo = ?", code).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: fatura '%s' não encontrada", core.ErrNotFound, code)
		}
		appLogger.Errorf("Erro ao buscar fatura '%s': %v", code, err)
		return nil, core.NewDatabaseErrorDetail("buscando fatura", err)
	}
	return &invoice, nil
}

func (r *gormInvoiceRepository) GetPayerByDocument(ctx context.Context, document string) (*models.DBPayer, error) {
	digits := utils.OnlyDigits(document)
	if digits == "" {
		return nil, fmt.Errorf("%w: documento do pagador não pode ser vazio", core.ErrInvalidInput)
	}

	var payer models.DBPayer
	if err := r.db.WithContext(ctx).Where("documento = ?", digits).First(&payer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pagador '%s' não encontrado", core.ErrNotFound, utils.FormatTaxID(digits))
		}
		appLogger.Errorf("Erro ao buscar pagador '%s': %v", digits, err)
		return nil, core.NewDatabaseErrorDetail("buscando pagador", err)
	}
	return &payer, nil
}

func (r *gormInvoiceRepository) CreatePayer(ctx context.Context, payer *models.DBPayer) error {
	payer.Documento = utils.OnlyDigits(payer.Documento)
	payer.CEP = utils.OnlyDigits(payer.CEP)
	payer.UF = strings.ToUpper(strings.TrimSpace(payer.UF))
	if err := r.db.WithContext(ctx).Create(payer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return fmt.Errorf("%w: pagador com documento '%s' já existe", core.ErrConflict, payer.Documento)
		}
		appLogger.Errorf("Erro ao criar pagador '%s': %v", payer.Documento, err)
		return core.NewDatabaseErrorDetail("criando pagador", err)
	}
	return nil
}

func (r *gormInvoiceRepository) Create(ctx context.Context, invoice *models.DBInvoice) error {
	if invoice.PagadorID == uuid.Nil {
		return fmt.Errorf("%w: fatura '%s' sem pagador", core.ErrInvalidInput, invoice.Codigo)
	}
	items := invoice.Itens

	err := data.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		invoice.Itens = nil
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return err
		}
		return insertItems(tx, invoice.ID, items)
	})
	invoice.Itens = items
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return fmt.Errorf("%w: fatura '%s' já existe", core.ErrConflict, invoice.Codigo)
		}
		appLogger.Errorf("Erro ao criar fatura '%s': %v", invoice.Codigo, err)
		return core.NewDatabaseErrorDetail("criando fatura", err)
	}
	return nil
}

func (r *gormInvoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.DBInvoiceItem, total string) (int, error) {
	err := data.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Where("fatura_id = ?", invoiceID).Delete(&models.DBInvoiceItem{}).Error; err != nil {
			return err
		}
		if err := insertItems(tx, invoiceID, items); err != nil {
			return err
		}
		res := tx.Model(&models.DBInvoice{}).Where("id = ?", invoiceID).Update("valor_total", total)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: fatura %s não encontrada", core.ErrNotFound, invoiceID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, err
		}
		appLogger.Errorf("Erro ao substituir itens da fatura %s: %v", invoiceID, err)
		return 0, core.NewDatabaseErrorDetail("substituindo itens da fatura", err)
	}
	return len(items), nil
}

// insertItems renumera as posições na ordem recebida e insere em lotes.
func insertItems(tx *gorm.DB, invoiceID uuid.UUID, items []models.DBInvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.DBInvoiceItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.FaturaID = invoiceID
		it.Posicao = i + 1
		it.SubPagador = nil
		rows[i] = it
	}
	return tx.Omit(clause.Associations).CreateInBatches(rows, 200).Error
}

func (r *gormInvoiceRepository) List(ctx context.Context, status string, limit, offset int) ([]models.DBInvoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DBInvoice{})
	if s := strings.TrimSpace(status); s != "" {
		query = query.Where("UPPER(status) = UPPER(?)", s)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, core.NewDatabaseErrorDetail("contando faturas", err)
	}
	if total == 0 {
		return []models.DBInvoice{}, 0, nil
	}

	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	var invoices []models.DBInvoice
	err := query.Preload("Pagador").Order("created_at DESC").Limit(limit).Offset(offset).Find(&invoices).Error
	if err != nil {
		return nil, 0, core.NewDatabaseErrorDetail("listando faturas", err)
	}
	return invoices, total, nil
}

// isUniqueViolation cobre drivers que não traduzem o erro para gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
