package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
)

// AuditLogRepository define a interface para operações no repositório de logs de auditoria.
type AuditLogRepository interface {
	// Create insere uma nova entrada de log de auditoria.
	Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error)

	// GetFiltered busca logs com os filtros informados, com paginação.
	// Retorna também a contagem total de registros que atendem aos filtros.
	GetFiltered(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error)
}

type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository cria uma nova instância de gormAuditLogRepository.
func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormAuditLogRepository")
	}
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Severity = strings.ToUpper(entry.Severity)

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// Metadata pode conter dados sensíveis; não vai para o log.
		appLogger.Errorf("Erro ao criar entrada de log de auditoria (Ação: %s, Usuário: %s, Severidade: %s): %v",
			entry.Action, entry.Username, entry.Severity, err)
		return nil, core.NewDatabaseErrorDetail("criando log de auditoria", err)
	}
	return &entry, nil
}

func (r *gormAuditLogRepository) GetFiltered(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogEntry{})

	if filter.StartDate != nil {
		d := filter.StartDate
		query = query.Where("timestamp >= ?", time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()))
	}
	if filter.EndDate != nil {
		d := filter.EndDate
		query = query.Where("timestamp <= ?", time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999999, d.Location()))
	}
	if filter.Severity != "" {
		query = query.Where("UPPER(severity) = UPPER(?)", filter.Severity)
	}
	if filter.Username != "" {
		query = query.Where("LOWER(username) = LOWER(?)", filter.Username)
	}
	if filter.Action != "" {
		query = query.Where("LOWER(action) = LOWER(?)", filter.Action)
	}
	if filter.InvoiceCode != "" {
		query = query.Where("invoice_code = ?", filter.InvoiceCode)
	}

	var totalCount int64
	if err := query.Session(&gorm.Session{}).Count(&totalCount).Error; err != nil {
		appLogger.Errorf("Erro ao contar logs de auditoria filtrados: %v", err)
		return nil, 0, core.NewDatabaseErrorDetail("contando logs de auditoria", err)
	}
	if totalCount == 0 {
		return []models.AuditLogEntry{}, 0, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var entries []models.AuditLogEntry
	err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		appLogger.Errorf("Erro ao buscar logs de auditoria filtrados: %v", err)
		return nil, 0, core.NewDatabaseErrorDetail("buscando logs de auditoria", err)
	}
	return entries, totalCount, nil
}
