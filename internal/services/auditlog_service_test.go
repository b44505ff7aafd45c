package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brhub/envios-faturas/internal/core"
	"github.com/brhub/envios-faturas/internal/data/models"
	"github.com/brhub/envios-faturas/internal/repositories"
)

type auditRepoMock struct {
	createFn      func(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error)
	getFilteredFn func(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error)
}

func (m *auditRepoMock) Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	return m.createFn(ctx, entry)
}

func (m *auditRepoMock) GetFiltered(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	return m.getFilteredFn(ctx, filter)
}

func TestLogAction_Normalizes(t *testing.T) {
	var got models.AuditLogEntry
	repo := &auditRepoMock{createFn: func(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
		got = entry
		return &entry, nil
	}}
	svc := NewAuditLogService(repo)

	ctx := WithRequestInfo(context.Background(), RequestInfo{RequestID: "req-1", IPAddress: "10.0.0.1"})
	err := svc.LogAction(ctx, models.AuditLogEntry{
		Action: "X", Description: strings.Repeat("á", 5000), Severity: "fatal",
	})
	require.NoError(t, err)
	require.Equal(t, "INFO", got.Severity)
	require.Equal(t, "system", got.Username)
	require.Equal(t, "req-1", *got.RequestID)
	require.Equal(t, "10.0.0.1", *got.IPAddress)
	require.Equal(t, 4000, len([]rune(got.Description)))
	require.True(t, strings.HasSuffix(got.Description, "..."))
	require.False(t, got.Timestamp.IsZero())
}

func TestLogAction_Validation(t *testing.T) {
	svc := NewAuditLogService(&auditRepoMock{})

	require.ErrorIs(t, svc.LogAction(context.Background(), models.AuditLogEntry{Description: "d"}), core.ErrInvalidInput)
	require.ErrorIs(t, svc.LogAction(context.Background(), models.AuditLogEntry{Action: "A"}), core.ErrInvalidInput)
}

func TestLogAction_RepositoryError(t *testing.T) {
	repo := &auditRepoMock{createFn: func(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
		return nil, core.NewDatabaseErrorDetail("criando log de auditoria", errors.New("disk full"))
	}}
	err := NewAuditLogService(repo).LogAction(context.Background(), models.AuditLogEntry{Action: "A", Description: "d"})
	require.ErrorIs(t, err, core.ErrDatabase)
}

func TestGetAuditLogs_Paging(t *testing.T) {
	var got models.AuditLogFilter
	repo := &auditRepoMock{getFilteredFn: func(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
		got = filter
		return nil, 0, nil
	}}
	svc := NewAuditLogService(repo)

	_, _, err := svc.GetAuditLogs(context.Background(), models.AuditLogFilter{Limit: 5000, Offset: -3})
	require.NoError(t, err)
	require.Equal(t, 1000, got.Limit)
	require.Equal(t, 0, got.Offset)

	loc := time.FixedZone("BRT", -3*3600)
	start := time.Date(2024, time.May, 1, 22, 0, 0, 0, loc)
	_, _, err = svc.GetAuditLogs(context.Background(), models.AuditLogFilter{StartDate: &start})
	require.NoError(t, err)
	require.Equal(t, 100, got.Limit)
	require.Equal(t, time.UTC, got.StartDate.Location())
}

func TestAuditLogService_WithRepository(t *testing.T) {
	svc := NewAuditLogService(repositories.NewGormAuditLogRepository(newTestDB(t)))
	ctx := WithRequestInfo(context.Background(), RequestInfo{Username: "cli"})
	code := "FAT-1"

	require.NoError(t, svc.LogAction(ctx, models.AuditLogEntry{
		Action: models.AuditActionPDFGenerated, Description: "ok", Severity: "warning", InvoiceCode: &code,
	}))

	logs, total, err := svc.GetAuditLogs(ctx, models.AuditLogFilter{InvoiceCode: code})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "WARNING", logs[0].Severity)
	require.Equal(t, "cli", logs[0].Username)
}
