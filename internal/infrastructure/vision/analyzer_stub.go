//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"github.com/rs/zerolog"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

var _ port.LeafAnalyzer = (*Analyzer)(nil)

// ErrGoCVDisabled возвращается сборкой без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

type Analyzer struct {
	texture port.TextureAnalyzer
	log     zerolog.Logger
}

// NewAnalyzer создаёт конвейер-заглушку (без OpenCV).
func NewAnalyzer(texture port.TextureAnalyzer, log zerolog.Logger) *Analyzer {
	return &Analyzer{texture: texture, log: log.With().Str("component", "vision").Logger()}
}

// Analyze проверяет размеры изображения и возвращает ошибку, если сборка без тега gocv.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, opts entity.AnalysisOptions) (*entity.AnalysisResult, error) {
	_ = opts
	if img == nil {
		return nil, entity.NewInvalidImage("nil image")
	}
	b := img.Bounds()
	if _, _, err := TargetSize(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.log.Warn().Msg("analysis requested in a build without gocv")
	return nil, ErrGoCVDisabled
}
