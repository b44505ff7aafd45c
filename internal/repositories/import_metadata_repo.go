package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
)

// ImportMetadataRepository guarda o histórico da última importação de cada fatura.
type ImportMetadataRepository interface {
	GetByInvoiceCode(ctx context.Context, code string) (*models.DBImportMetadata, error)

	// Upsert cria ou atualiza o registro da fatura. LastUpdatedAt é sempre o instante atual (UTC).
	Upsert(ctx context.Context, upsertData models.ImportMetadataUpsert) (*models.DBImportMetadata, error)
}

type gormImportMetadataRepository struct {
	db *gorm.DB
}

// NewGormImportMetadataRepository cria uma nova instância de gormImportMetadataRepository.
func NewGormImportMetadataRepository(db *gorm.DB) ImportMetadataRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormImportMetadataRepository")
	}
	return &gormImportMetadataRepository{db: db}
}

func (r *gormImportMetadataRepository) GetByInvoiceCode(ctx context.Context, code string) (*models.DBImportMetadata, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código da fatura não pode ser vazio", core.ErrInvalidInput)
	}

	var metadata models.DBImportMetadata
	if err := r.db.WithContext(ctx).Where("invoice_code = ?", code).First(&metadata).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: nenhuma importação registrada para a fatura '%s'", core.ErrNotFound, code)
		}
		appLogger.Errorf("Erro ao buscar metadados de importação da fatura '%s': %v", code, err)
		return nil, core.NewDatabaseErrorDetail("buscando metadados de importação", err)
	}
	return &metadata, nil
}

func (r *gormImportMetadataRepository) Upsert(ctx context.Context, upsertData models.ImportMetadataUpsert) (*models.DBImportMetadata, error) {
	upsertData.Normalize()
	if upsertData.InvoiceCode == "" {
		return nil, fmt.Errorf("%w: código da fatura não pode ser vazio para upsert de metadados", core.ErrInvalidInput)
	}

	metadata := models.DBImportMetadata{
		InvoiceCode:      upsertData.InvoiceCode,
		LastUpdatedAt:    time.Now().UTC(),
		OriginalFilename: upsertData.OriginalFilename,
		Encoding:         upsertData.Encoding,
		RowsRead:         upsertData.RowsRead,
		RecordCount:      upsertData.RecordCount,
		SkippedCount:     upsertData.SkippedCount,
		ImportedBy:       upsertData.ImportedBy,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "invoice_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_updated_at", "original_filename", "encoding", "rows_read", "record_count", "skipped_count", "imported_by"}),
	}).Create(&metadata).Error
	if err != nil {
		appLogger.Errorf("Erro durante upsert de metadados da fatura '%s': %v", upsertData.InvoiceCode, err)
		return nil, core.NewDatabaseErrorDetail("gravando metadados de importação", err)
	}

	appLogger.Infof("Metadados de importação da fatura '%s' gravados.", metadata.InvoiceCode)
	return &metadata, nil
}
