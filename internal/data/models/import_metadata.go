package models

import (
	"strings"
	"time"
)

// DBImportMetadata guarda a última importação de itens de cada fatura.
type DBImportMetadata struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	// InvoiceCode é único: há um registro por fatura, atualizado a cada importação.
	InvoiceCode string `gorm:"type:varchar(50);uniqueIndex;not null"`

	LastUpdatedAt    time.Time `gorm:"not null"`
	OriginalFilename *string   `gorm:"type:varchar(255)"`
	Encoding         *string   `gorm:"type:varchar(20)"`
	RowsRead         *int      `gorm:"type:integer"`
	RecordCount      *int      `gorm:"type:integer"`
	SkippedCount     *int      `gorm:"type:integer"`
	ImportedBy       *string   `gorm:"type:varchar(50)"`
}

func (DBImportMetadata) TableName() string {
	return "import_metadata"
}

// ImportMetadataPublic é a visão exposta pela CLI e pela API.
type ImportMetadataPublic struct {
	InvoiceCode      string    `json:"codigo"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
	OriginalFilename *string   `json:"original_filename,omitempty"`
	Encoding         *string   `json:"encoding,omitempty"`
	RowsRead         *int      `json:"rows_read,omitempty"`
	RecordCount      *int      `json:"record_count,omitempty"`
	SkippedCount     *int      `json:"skipped_count,omitempty"`
	ImportedBy       *string   `json:"imported_by,omitempty"`
}

// ToImportMetadataPublic converte o modelo do banco para o DTO.
func ToImportMetadataPublic(dbMeta *DBImportMetadata) *ImportMetadataPublic {
	if dbMeta == nil {
		return nil
	}
	return &ImportMetadataPublic{
		InvoiceCode:      dbMeta.InvoiceCode,
		LastUpdatedAt:    dbMeta.LastUpdatedAt,
		OriginalFilename: dbMeta.OriginalFilename,
		Encoding:         dbMeta.Encoding,
		RowsRead:         dbMeta.RowsRead,
		RecordCount:      dbMeta.RecordCount,
		SkippedCount:     dbMeta.SkippedCount,
		ImportedBy:       dbMeta.ImportedBy,
	}
}

// ImportMetadataUpsert define os campos gravados a cada importação.
// LastUpdatedAt é sempre o instante da operação.
type ImportMetadataUpsert struct {
	InvoiceCode      string
	OriginalFilename *string
	Encoding         *string
	RowsRead         *int
	RecordCount      *int
	SkippedCount     *int
	ImportedBy       *string
}

// Normalize remove espaços do código da fatura.
func (imu *ImportMetadataUpsert) Normalize() {
	if imu != nil {
		imu.InvoiceCode = strings.TrimSpace(imu.InvoiceCode)
	}
}
