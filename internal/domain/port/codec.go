package port

import "image"

// ImageCodec интерфейс декодирования фотографий и кодирования результатов
type ImageCodec interface {
	// Decode читает загруженное изображение; ошибки имеют вид InvalidImage
	Decode(data []byte) (image.Image, error)

	// EncodeJPEG кодирует изображение для отправки
	EncodeJPEG(img image.Image) ([]byte, error)
}
