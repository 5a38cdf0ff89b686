package port

import (
	"context"

	"leaf-health-bot/internal/domain/entity"
)

// ReportArchive интерфейс архива отчётов
type ReportArchive interface {
	// Save сохраняет отчёт и возвращает его ID
	Save(ctx context.Context, report *entity.ArchivedReport) (string, error)

	// Load возвращает отчёт по ID или ErrReportNotFound
	Load(ctx context.Context, id string) (*entity.ArchivedReport, error)
}
