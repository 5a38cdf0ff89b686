package port

import (
	"image"

	"leaf-health-bot/internal/domain/entity"
)

// TextureAnalyzer вычисляет текстурный дескриптор по области растения
type TextureAnalyzer interface {
	Describe(gray, foreground *image.Gray) (entity.TextureDescriptor, error)
}
