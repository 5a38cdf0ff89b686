// Package imagecodec декодирует загруженные фотографии и кодирует результаты.
package imagecodec

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// MaxPixels ограничивает размер кадра до декодирования.
const MaxPixels = 50_000_000

// JPEGQuality качество JPEG для тепловых карт.
const JPEGQuality = 90

// Decode читает изображение из буфера с учётом EXIF-ориентации.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, entity.NewInvalidImage("empty image buffer")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, entity.NewInvalidImage("unreadable image: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, entity.NewInvalidImage("non-positive image size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, entity.NewInvalidImage("%s image %dx%d exceeds %d pixels", format, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, entity.NewInvalidImage("decode %s: %v", format, err)
	}
	return img, nil
}

// EncodeJPEG кодирует изображение в JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Codec реализует port.ImageCodec поверх функций пакета.
type Codec struct{}

func (Codec) Decode(data []byte) (image.Image, error) {
	return Decode(data)
}

func (Codec) EncodeJPEG(img image.Image) ([]byte, error) {
	return EncodeJPEG(img)
}

var _ port.ImageCodec = Codec{}
