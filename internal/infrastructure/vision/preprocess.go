//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// resize приводит кадр к размеру w×h усреднением по площади.
func resize(src gocv.Mat, w, h int) (gocv.Mat, error) {
	dst := gocv.NewMat()
	if src.Cols() == w && src.Rows() == h {
		if err := src.CopyTo(&dst); err != nil {
			dst.Close()
			return gocv.Mat{}, err
		}
		return dst, nil
	}
	if err := gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationArea); err != nil {
		dst.Close()
		return gocv.Mat{}, err
	}
	return dst, nil
}

// whiteBalance выравнивает средние каналов по серому миру.
// Каждый канал умножается на g/mean с насыщением в [0, 255].
func whiteBalance(src gocv.Mat) (gocv.Mat, error) {
	channels := gocv.Split(src)
	defer closeAll(channels)
	if len(channels) == 0 {
		return gocv.Mat{}, fmt.Errorf("split produced no channels")
	}

	means := make([]float64, len(channels))
	grand := 0.0
	for i := range channels {
		means[i] = channels[i].Mean().Val1
		grand += means[i]
	}
	grand /= float64(len(channels))

	scaled := make([]gocv.Mat, len(channels))
	for i := range scaled {
		scaled[i] = gocv.NewMat()
	}
	defer closeAll(scaled)
	for i := range channels {
		gain := float32(grand / (means[i] + balanceEpsilon))
		if err := channels[i].ConvertToWithParams(&scaled[i], gocv.MatTypeCV8U, gain, 0); err != nil {
			return gocv.Mat{}, fmt.Errorf("scale channel %d: %w", i, err)
		}
	}

	dst := gocv.NewMat()
	if err := gocv.Merge(scaled, &dst); err != nil {
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("merge channels: %w", err)
	}
	return dst, nil
}

// equalize применяет CLAHE к каналу L в пространстве Lab.
func equalize(src gocv.Mat) (gocv.Mat, error) {
	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(src, &lab, gocv.ColorBGRToLab); err != nil {
		return gocv.Mat{}, fmt.Errorf("to lab: %w", err)
	}

	channels := gocv.Split(lab)
	defer closeAll(channels)
	if len(channels) != 3 {
		return gocv.Mat{}, fmt.Errorf("lab split produced %d channels", len(channels))
	}

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Pt(claheTile, claheTile))
	defer clahe.Close()

	l := gocv.NewMat()
	if err := clahe.Apply(channels[0], &l); err != nil {
		l.Close()
		return gocv.Mat{}, fmt.Errorf("clahe: %w", err)
	}
	channels[0].Close()
	channels[0] = l

	merged := gocv.NewMat()
	defer merged.Close()
	if err := gocv.Merge(channels, &merged); err != nil {
		return gocv.Mat{}, fmt.Errorf("merge lab: %w", err)
	}

	dst := gocv.NewMat()
	if err := gocv.CvtColor(merged, &dst, gocv.ColorLabToBGR); err != nil {
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("to bgr: %w", err)
	}
	return dst, nil
}

// denoise сглаживает шум с сохранением границ.
func denoise(src gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	if err := gocv.BilateralFilter(src, &dst, bilateralDiameter, bilateralSigmaColor, bilateralSigmaSpace); err != nil {
		dst.Close()
		return gocv.Mat{}, err
	}
	return dst, nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
