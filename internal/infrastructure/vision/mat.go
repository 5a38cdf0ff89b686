//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"leaf-health-bot/internal/domain/entity"
)

// matFromImage переводит изображение в 8-битный BGR Mat.
func matFromImage(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), entity.NewInvalidImage("convert image: %v", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), entity.NewInvalidImage("empty image")
	}
	return mat, nil
}

// grayFromMat копирует одноканальный Mat в *image.Gray.
func grayFromMat(m gocv.Mat) (*image.Gray, error) {
	if m.Channels() != 1 {
		return nil, fmt.Errorf("expected single-channel mat, got %d channels", m.Channels())
	}
	img, err := m.ToImage()
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected image type %T", img)
	}
	return g, nil
}

// imageFromMat переводит BGR Mat в изображение.
func imageFromMat(m gocv.Mat) (image.Image, error) {
	return m.ToImage()
}

// filledMask создаёт маску, заполненную значением v.
func filledMask(rows, cols int, v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
}

// stage засекает время этапа и формирует запись журнала.
type stage struct {
	name  string
	start time.Time
}

func startStage(name string) stage {
	return stage{name: name, start: time.Now()}
}

func (s stage) done(status entity.StepStatus, detail string) entity.ProcessingStep {
	return entity.ProcessingStep{
		Name:     s.name,
		Status:   status,
		Detail:   detail,
		Duration: time.Since(s.start),
	}
}
