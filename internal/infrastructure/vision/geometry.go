package vision

import (
	"fmt"
	"math"

	"leaf-health-bot/internal/domain/entity"
)

const (
	maxWidth        = 800
	maxHeight       = 600
	landscapeAspect = 1.33
)

// TargetSize вычисляет размер кадра для анализа с сохранением пропорций.
// Широкие кадры (w/h >= 1.33) вписываются по ширине 800, остальные по высоте 600.
// Кадр меньше целевого не увеличивается.
func TargetSize(w, h int) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, entity.NewInvalidImage("non-positive image size %dx%d", w, h)
	}

	aspect := float64(w) / float64(h)
	var tw, th int
	if aspect >= landscapeAspect {
		tw, th = maxWidth, int(math.Round(maxWidth/aspect))
	} else {
		tw, th = int(math.Round(maxHeight*aspect)), maxHeight
	}
	if tw <= 0 || th <= 0 {
		return 0, 0, entity.NewStageFailure(stageResize, fmt.Errorf("computed size %dx%d from %dx%d", tw, th, w, h))
	}

	if w <= tw && h <= th {
		return w, h, nil
	}
	return tw, th, nil
}
