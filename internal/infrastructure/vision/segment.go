//go:build gocv
// +build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"leaf-health-bot/internal/domain/entity"
)

// GrabCut помечает пиксели 1 (передний план) и 3 (вероятный передний план).
const (
	gcForeground         = 1
	gcProbableForeground = 3
)

// isolateForeground отделяет лист от фона. Возвращает кадр с обнулённым фоном
// и маску переднего плана. Ошибка всегда имеет вид SegmentationFailure.
func isolateForeground(src gocv.Mat) (gocv.Mat, gocv.Mat, error) {
	rows, cols := src.Rows(), src.Cols()
	if rows <= 2*grabCutInset || cols <= 2*grabCutInset {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("frame is too small for the initial rectangle")
	}
	flat, err := flatColor(src)
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("color statistics: " + err.Error())
	}
	if flat {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("frame has no color variance")
	}

	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	defer mask.Close()
	bgd := gocv.NewMat()
	defer bgd.Close()
	fgd := gocv.NewMat()
	defer fgd.Close()

	rect := image.Rect(grabCutInset, grabCutInset, cols-grabCutInset, rows-grabCutInset)
	// При исключении маска остаётся в начальном состоянии прямоугольника, её нельзя использовать.
	if err := gocv.GrabCut(src, &mask, rect, &bgd, &fgd, grabCutIterations, gocv.GCInitWithRect); err != nil {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("grabcut: " + err.Error())
	}

	labels := mask.ToBytes()
	fgData := make([]byte, len(labels))
	count := 0
	for i, v := range labels {
		if v == gcForeground || v == gcProbableForeground {
			fgData[i] = 255
			count++
		}
	}
	if count == 0 {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("partition has no foreground pixels")
	}

	fg, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, fgData)
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure(err.Error())
	}

	segmented := gocv.NewMat()
	if err := src.CopyToWithMask(&segmented, fg); err != nil {
		segmented.Close()
		fg.Close()
		return gocv.Mat{}, gocv.Mat{}, entity.NewSegmentationFailure("apply mask: " + err.Error())
	}
	return segmented, fg, nil
}

// flatColor сообщает, что у всех каналов нулевое отклонение.
func flatColor(src gocv.Mat) (bool, error) {
	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	if err := gocv.MeanStdDev(src, &mean, &std); err != nil {
		return false, err
	}

	for i := 0; i < std.Rows(); i++ {
		if std.GetDoubleAt(i, 0) > 0 {
			return false, nil
		}
	}
	return true, nil
}
