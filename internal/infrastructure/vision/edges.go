//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// detectEdges выделяет границы детектором Кэнни после гауссова сглаживания.
func detectEdges(gray gocv.Mat) (gocv.Mat, error) {
	blur := gocv.NewMat()
	defer blur.Close()
	if err := gocv.GaussianBlur(gray, &blur, image.Pt(edgeBlurKernel, edgeBlurKernel), 0, 0, gocv.BorderDefault); err != nil {
		return gocv.Mat{}, fmt.Errorf("blur: %w", err)
	}

	edges := gocv.NewMat()
	if err := gocv.Canny(blur, &edges, cannyLow, cannyHigh); err != nil {
		edges.Close()
		return gocv.Mat{}, fmt.Errorf("canny: %w", err)
	}
	return edges, nil
}
