package services

import (
	"context"
	"strings"
	"time"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/repositories"
	"github.com/brhub/envios-faturas/internal/utils"
)

const maxAuditDescription = 4000

// AuditLogService define a interface para o serviço de log de auditoria.
type AuditLogService interface {
	// LogAction registra uma ação. Usuário, IP e request id ausentes na entry são
	// preenchidos a partir do RequestInfo do contexto.
	LogAction(ctx context.Context, entry models.AuditLogEntry) error

	// GetAuditLogs busca logs de auditoria com paginação.
	GetAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error)
}

type auditLogServiceImpl struct {
	repo repositories.AuditLogRepository
	now  func() time.Time
}

// NewAuditLogService cria uma nova instância de AuditLogService.
func NewAuditLogService(repo repositories.AuditLogRepository) AuditLogService {
	if repo == nil {
		appLogger.Fatalf("AuditLogRepository não pode ser nil para NewAuditLogService")
	}
	return &auditLogServiceImpl{repo: repo, now: time.Now}
}

func (s *auditLogServiceImpl) LogAction(ctx context.Context, entry models.AuditLogEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return core.WrapErrorf(core.ErrInvalidInput, "ação do log de auditoria não pode ser vazia")
	}
	if strings.TrimSpace(entry.Description) == "" {
		return core.WrapErrorf(core.ErrInvalidInput, "descrição do log de auditoria não pode ser vazia")
	}

	normalizedSeverity := strings.ToUpper(strings.TrimSpace(entry.Severity))
	if !models.ValidSeverities[normalizedSeverity] {
		appLogger.Warnf("Nível de severidade inválido '%s' fornecido para log. Usando 'INFO'. Ação: %s", entry.Severity, entry.Action)
		normalizedSeverity = "INFO"
	}
	entry.Severity = normalizedSeverity

	info := RequestInfoFrom(ctx)
	if entry.Username == "" {
		entry.Username = info.Username
	}
	if entry.Username == "" {
		entry.Username = "system"
	}
	if entry.IPAddress == nil && info.IPAddress != "" {
		ip := info.IPAddress
		entry.IPAddress = &ip
	}
	if entry.RequestID == nil && info.RequestID != "" {
		rid := info.RequestID
		entry.RequestID = &rid
	}

	if len([]rune(entry.Description)) > maxAuditDescription {
		entry.Description = utils.TruncateRunes(entry.Description, maxAuditDescription-3) + "..."
		appLogger.Warnf("Descrição do log de auditoria truncada para %d caracteres. Ação: %s", maxAuditDescription, entry.Action)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	if _, err := s.repo.Create(ctx, entry); err != nil {
		return core.WrapErrorf(err, "falha ao persistir log de auditoria (Ação: %s)", entry.Action)
	}
	return nil
}

func (s *auditLogServiceImpl) GetAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
		appLogger.Warnf("Solicitação de GetAuditLogs com limite > 1000. Reduzido para 1000.")
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.StartDate != nil {
		v := filter.StartDate.In(time.UTC)
		filter.StartDate = &v
	}
	if filter.EndDate != nil {
		v := filter.EndDate.In(time.UTC)
		filter.EndDate = &v
	}

	logs, total, err := s.repo.GetFiltered(ctx, filter)
	if err != nil {
		return nil, 0, core.WrapErrorf(err, "falha ao buscar logs de auditoria do repositório")
	}
	return logs, total, nil
}

// audit registra uma ação sem interromper a operação principal em caso de falha.
func audit(ctx context.Context, svc AuditLogService, entry models.AuditLogEntry) {
	if svc == nil {
		return
	}
	if err := svc.LogAction(ctx, entry); err != nil {
		appLogger.Warnf("Falha ao registrar auditoria '%s': %v", entry.Action, err)
	}
}
