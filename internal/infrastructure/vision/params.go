package vision

// Параметры конвейера. Пороги подобраны под кадр после TargetSize.
const (
	stageResize = "resize"

	balanceEpsilon = 1e-6

	claheClipLimit = 3.0
	claheTile      = 8

	bilateralDiameter   = 9
	bilateralSigmaColor = 75.0
	bilateralSigmaSpace = 75.0

	grabCutInset      = 10
	grabCutIterations = 5

	morphKernel = 5

	edgeBlurKernel = 5
	cannyLow       = 50.0
	cannyHigh      = 150.0

	heatYellowWeight  = 0.5
	heatBrownWeight   = 1.0
	heatBlurKernel    = 15
	heatOriginalAlpha = 0.6
	heatOverlayAlpha  = 0.4
)

// hsvRange границы цветового класса в шкале OpenCV (H 0..180).
type hsvRange struct {
	lo [3]float64
	hi [3]float64
}

var (
	greenRange  = hsvRange{lo: [3]float64{35, 40, 40}, hi: [3]float64{85, 255, 255}}
	yellowRange = hsvRange{lo: [3]float64{20, 40, 40}, hi: [3]float64{35, 255, 255}}
	brownRange  = hsvRange{lo: [3]float64{10, 40, 20}, hi: [3]float64{20, 255, 200}}
)
