package vision

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// Бэкенды текстурного анализа.
const (
	TextureBackendLBP  = "lbp"
	TextureBackendNone = "none"
)

const (
	lbpPoints  = 24
	lbpRadius  = 3.0
	lbpBins    = lbpPoints + 2
	lbpNonUni  = lbpPoints + 1
	logEpsilon = 1e-10
)

var (
	_ port.TextureAnalyzer = (*LBPTextureAnalyzer)(nil)
	_ port.TextureAnalyzer = (*UnavailableTextureAnalyzer)(nil)
)

// NewTextureAnalyzer выбирает бэкенд по имени; пустое имя означает lbp.
func NewTextureAnalyzer(backend string) (port.TextureAnalyzer, error) {
	switch backend {
	case "", TextureBackendLBP:
		return NewLBPTextureAnalyzer(), nil
	case TextureBackendNone:
		return &UnavailableTextureAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("unknown texture backend %q", backend)
	}
}

// LBPTextureAnalyzer считает равномерные локальные бинарные шаблоны
// (24 точки на окружности радиуса 3) и их энтропию по переднему плану.
type LBPTextureAnalyzer struct {
	rowOffsets [lbpPoints]float64
	colOffsets [lbpPoints]float64
}

// NewLBPTextureAnalyzer создаёт анализатор с заранее рассчитанными смещениями выборки.
func NewLBPTextureAnalyzer() *LBPTextureAnalyzer {
	a := &LBPTextureAnalyzer{}
	for i := 0; i < lbpPoints; i++ {
		angle := 2 * math.Pi * float64(i) / lbpPoints
		a.rowOffsets[i] = round5(-lbpRadius * math.Sin(angle))
		a.colOffsets[i] = round5(lbpRadius * math.Cos(angle))
	}
	return a
}

// Describe строит нормированную гистограмму кодов по пикселям маски.
// Пустая маска даёт нулевую энтропию и пустую гистограмму.
func (a *LBPTextureAnalyzer) Describe(gray, foreground *image.Gray) (entity.TextureDescriptor, error) {
	if gray == nil {
		return entity.TextureDescriptor{}, entity.NewStageFailure(entity.StepLBP, fmt.Errorf("nil grayscale image"))
	}
	b := gray.Bounds()
	if foreground != nil && foreground.Bounds().Size() != b.Size() {
		return entity.TextureDescriptor{}, entity.NewStageFailure(entity.StepLBP,
			fmt.Errorf("mask size %v does not match image size %v", foreground.Bounds().Size(), b.Size()))
	}

	rows, cols := b.Dy(), b.Dx()
	pix := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pix[y*cols+x] = float64(gray.Pix[y*gray.Stride+x])
		}
	}

	counts := make([]float64, lbpBins)
	n := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if foreground != nil && foreground.Pix[y*foreground.Stride+x] == 0 {
				continue
			}
			counts[a.code(pix, rows, cols, y, x)]++
			n++
		}
	}

	desc := entity.TextureDescriptor{PixelCount: n, Available: true}
	if n == 0 {
		return desc, nil
	}

	floats.Scale(1/floats.Sum(counts), counts)
	h := 0.0
	for _, p := range counts {
		if p > 0 {
			h -= p * math.Log2(p+logEpsilon)
		}
	}
	desc.Histogram = counts
	desc.Entropy = math.Max(0, math.Round(h*1000)/1000)
	return desc, nil
}

// code возвращает равномерный код пикселя: число единиц, если переходов
// не больше двух, иначе lbpNonUni.
func (a *LBPTextureAnalyzer) code(pix []float64, rows, cols, r, c int) int {
	center := pix[r*cols+c]
	var bits [lbpPoints]int
	for i := 0; i < lbpPoints; i++ {
		v := bilinear(pix, rows, cols, float64(r)+a.rowOffsets[i], float64(c)+a.colOffsets[i])
		if v-center >= 0 {
			bits[i] = 1
		}
	}

	changes := 0
	for i := 0; i < lbpPoints-1; i++ {
		if bits[i] != bits[i+1] {
			changes++
		}
	}
	if changes > 2 {
		return lbpNonUni
	}
	ones := 0
	for _, b := range bits {
		ones += b
	}
	return ones
}

// bilinear интерполирует значение в дробной точке; пиксели за границей равны 0.
func bilinear(pix []float64, rows, cols int, r, c float64) float64 {
	minR, minC := math.Floor(r), math.Floor(c)
	maxR, maxC := math.Ceil(r), math.Ceil(c)
	dr, dc := r-minR, c-minC

	at := func(y, x float64) float64 {
		iy, ix := int(y), int(x)
		if iy < 0 || iy >= rows || ix < 0 || ix >= cols {
			return 0
		}
		return pix[iy*cols+ix]
	}

	tl, tr := at(minR, minC), at(minR, maxC)
	bl, br := at(maxR, minC), at(maxR, maxC)
	top := tl + dc*(tr-tl)
	bottom := bl + dc*(br-bl)
	return top + dr*(bottom-top)
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// UnavailableTextureAnalyzer используется, когда текстурный анализ отключён.
type UnavailableTextureAnalyzer struct{}

// Describe всегда возвращает ErrTextureUnavailable.
func (UnavailableTextureAnalyzer) Describe(_, _ *image.Gray) (entity.TextureDescriptor, error) {
	return entity.TextureDescriptor{}, fmt.Errorf("texture backend %q: %w", TextureBackendNone, entity.ErrTextureUnavailable)
}
