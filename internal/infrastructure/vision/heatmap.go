//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// buildHeatmap строит карту повреждений (хлороз весит вдвое меньше некроза)
// и накладывает её на исходный кадр.
func buildHeatmap(original, yellow, brown gocv.Mat) (overlay, damage gocv.Mat, err error) {
	if yellow.Rows() != original.Rows() || yellow.Cols() != original.Cols() ||
		brown.Rows() != original.Rows() || brown.Cols() != original.Cols() {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("mask size does not match frame %dx%d", original.Cols(), original.Rows())
	}

	raw := gocv.NewMat()
	defer raw.Close()
	blurred := gocv.NewMat()
	defer blurred.Close()
	heat := gocv.NewMat()
	defer heat.Close()
	damage = gocv.NewMat()
	overlay = gocv.NewMat()
	defer func() {
		if err != nil {
			damage.Close()
			overlay.Close()
			damage, overlay = gocv.Mat{}, gocv.Mat{}
		}
	}()

	if err = gocv.AddWeighted(yellow, heatYellowWeight, brown, heatBrownWeight, 0, &raw); err != nil {
		return overlay, damage, fmt.Errorf("combine masks: %w", err)
	}
	if err = gocv.GaussianBlur(raw, &blurred, image.Pt(heatBlurKernel, heatBlurKernel), 0, 0, gocv.BorderDefault); err != nil {
		return overlay, damage, fmt.Errorf("blur: %w", err)
	}

	if _, maxVal, _, _ := gocv.MinMaxLoc(blurred); maxVal > 0 {
		err = blurred.ConvertToWithParams(&damage, gocv.MatTypeCV8U, 255/maxVal, 0)
	} else {
		err = blurred.CopyTo(&damage)
	}
	if err != nil {
		return overlay, damage, fmt.Errorf("rescale: %w", err)
	}

	if err = gocv.ApplyColorMap(damage, &heat, gocv.ColormapJet); err != nil {
		return overlay, damage, fmt.Errorf("color map: %w", err)
	}
	if err = gocv.AddWeighted(original, heatOriginalAlpha, heat, heatOverlayAlpha, 0, &overlay); err != nil {
		return overlay, damage, fmt.Errorf("overlay: %w", err)
	}
	return overlay, damage, nil
}
