package entity

// TextureDescriptor гистограмма локальных бинарных шаблонов по области растения.
type TextureDescriptor struct {
	Histogram  []float64 // вероятности кодов, пусто если пикселей нет
	Entropy    float64   // энтропия Шеннона в битах
	PixelCount int       // число пикселей переднего плана
	Available  bool      // false, если бэкенд текстуры не подключён
}

// TextureGrade словесная оценка энтропии.
type TextureGrade string

const (
	TextureSmooth   TextureGrade = "smooth"
	TextureRough    TextureGrade = "minor roughness"
	TextureDiseased TextureGrade = "diseased texture"
)

const (
	SmoothEntropyLimit   = 5.0
	DiseasedEntropyLimit = 6.0
)

// Interpretation переводит энтропию в оценку поверхности листа.
func (t TextureDescriptor) Interpretation() TextureGrade {
	switch {
	case t.Entropy < SmoothEntropyLimit:
		return TextureSmooth
	case t.Entropy <= DiseasedEntropyLimit:
		return TextureRough
	default:
		return TextureDiseased
	}
}
