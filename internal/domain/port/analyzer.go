package port

import (
	"context"
	"image"

	"leaf-health-bot/internal/domain/entity"
)

// LeafAnalyzer интерфейс конвейера анализа листа
type LeafAnalyzer interface {
	// Analyze прогоняет изображение через все этапы и возвращает полный результат.
	// Частичные результаты не возвращаются.
	Analyze(ctx context.Context, img image.Image, opts entity.AnalysisOptions) (*entity.AnalysisResult, error)
}
