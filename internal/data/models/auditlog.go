package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ações de auditoria registradas pelo faturamento.
const (
	AuditActionPDFGenerated   = "FATURA_PDF_GERADO"
	AuditActionPDFFailed      = "FATURA_PDF_FALHA"
	AuditActionItemsImported  = "FATURA_ITENS_IMPORTADOS"
	AuditActionItemsImportErr = "FATURA_ITENS_IMPORTADOS_FALHA"
	AuditActionItemsExported  = "FATURA_ITENS_EXPORTADOS"
	AuditActionPayerCreated   = "PAGADOR_CADASTRADO"
	AuditActionInvoiceCreated = "FATURA_CADASTRADA"
)

// JSONMetadata guarda o campo metadata como JSON em uma coluna texto.
// Implementa sql.Scanner e driver.Valuer.
type JSONMetadata map[string]interface{}

// Value implementa driver.Valuer.
func (jm JSONMetadata) Value() (driver.Value, error) {
	if jm == nil {
		return nil, nil
	}
	b, err := json.Marshal(jm)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implementa sql.Scanner.
func (jm *JSONMetadata) Scan(value interface{}) error {
	if value == nil {
		*jm = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("tipo de valor inválido para JSONMetadata scan, esperado []byte ou string")
	}
	if len(b) == 0 {
		*jm = make(JSONMetadata)
		return nil
	}
	return json.Unmarshal(b, jm)
}

// AuditLogEntry representa uma entrada de log de auditoria no banco de dados.
type AuditLogEntry struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time  `gorm:"not null;index"`
	Action      string     `gorm:"type:varchar(100);not null;index"`
	Description string     `gorm:"type:text;not null"`
	Severity    string     `gorm:"type:varchar(10);not null;index"` // DEBUG, INFO, WARNING, ERROR, CRITICAL
	Username    string     `gorm:"type:varchar(50);not null;index"`
	UserID      *uuid.UUID `gorm:"type:uuid;index"`
	IPAddress   *string    `gorm:"type:varchar(45)"`
	RequestID   *string    `gorm:"type:varchar(36);index"`
	InvoiceCode *string    `gorm:"type:varchar(50);index"`

	Metadata JSONMetadata `gorm:"type:text"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// ValidSeverities define os níveis de severidade válidos.
var ValidSeverities = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}

// AuditLogFilter são os filtros de consulta da auditoria. Campos vazios não filtram.
type AuditLogFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Severity    string
	Username    string
	Action      string
	InvoiceCode string
	Limit       int
	Offset      int
}
