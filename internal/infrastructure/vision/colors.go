//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// colorMats маски цветовых классов в виде Mat.
type colorMats struct {
	green, yellow, brown gocv.Mat
}

func (c *colorMats) Close() {
	c.green.Close()
	c.yellow.Close()
	c.brown.Close()
}

// thresholdColors строит маски классов по диапазонам HSV.
func thresholdColors(src gocv.Mat) (colorMats, error) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV); err != nil {
		return colorMats{}, fmt.Errorf("to hsv: %w", err)
	}

	var out colorMats
	for _, t := range []struct {
		dst *gocv.Mat
		r   hsvRange
	}{
		{&out.green, greenRange},
		{&out.yellow, yellowRange},
		{&out.brown, brownRange},
	} {
		m, err := inRange(hsv, t.r)
		if err != nil {
			out.Close()
			return colorMats{}, err
		}
		*t.dst = m
	}
	return out, nil
}

func inRange(hsv gocv.Mat, r hsvRange) (gocv.Mat, error) {
	dst := gocv.NewMat()
	lo := gocv.NewScalar(r.lo[0], r.lo[1], r.lo[2], 0)
	hi := gocv.NewScalar(r.hi[0], r.hi[1], r.hi[2], 0)
	if err := gocv.InRangeWithScalar(hsv, lo, hi, &dst); err != nil {
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("in range: %w", err)
	}
	return dst, nil
}

// cleanMasks убирает мелкий шум открытием и заполняет разрывы закрытием.
func cleanMasks(raw colorMats) (colorMats, error) {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(morphKernel, morphKernel))
	defer kernel.Close()

	var out colorMats
	for _, t := range []struct {
		dst *gocv.Mat
		src gocv.Mat
	}{
		{&out.green, raw.green},
		{&out.yellow, raw.yellow},
		{&out.brown, raw.brown},
	} {
		m, err := openClose(t.src, kernel)
		if err != nil {
			out.Close()
			return colorMats{}, err
		}
		*t.dst = m
	}
	return out, nil
}

func openClose(src, kernel gocv.Mat) (gocv.Mat, error) {
	opened := gocv.NewMat()
	defer opened.Close()
	if err := gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel); err != nil {
		return gocv.Mat{}, fmt.Errorf("open: %w", err)
	}

	dst := gocv.NewMat()
	if err := gocv.MorphologyEx(opened, &dst, gocv.MorphClose, kernel); err != nil {
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("close: %w", err)
	}
	return dst, nil
}
