package port

import (
	"context"

	"leaf-health-bot/internal/domain/entity"
)

// CareAdvisor интерфейс подбора рекомендаций
type CareAdvisor interface {
	// Advise подбирает рекомендации по уходу для результата анализа.
	// plant может быть nil, тогда возвращаются только наблюдения.
	Advise(ctx context.Context, plant *entity.Plant, result *entity.AnalysisResult) (*entity.CareAdvice, error)
}
