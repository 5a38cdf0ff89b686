package entity

import "image"

// AnalysisOptions параметры одного запуска анализа.
type AnalysisOptions struct {
	IsolateForeground bool // отделять лист от фона (GrabCut)
	KeepIntermediates bool // сохранять промежуточные изображения
}

// Intermediates изображения после каждого этапа нормализации.
type Intermediates struct {
	Original      image.Image // после изменения размера
	WhiteBalanced image.Image
	Enhanced      image.Image // после CLAHE
	Denoised      image.Image
	Segmented     image.Image
	Gray          *image.Gray
}

// AnalysisResult полный результат анализа листа.
// После возврата принадлежит вызывающему, конвейер ссылок не хранит.
type AnalysisResult struct {
	Width  int
	Height int

	Masks              ColorMasks
	Foreground         *image.Gray
	ForegroundIsolated bool // false, если изоляция выключена или откатилась
	Ratios             ColorRatios

	EdgeMask    *image.Gray
	EdgeDensity float64 // процент пикселей границ от переднего плана

	Texture TextureDescriptor
	Spots   SpotSummary

	Heatmap   image.Image // наложение карты повреждений на исходный кадр
	DamageMap *image.Gray // интенсивность повреждений 0..255

	Health HealthAssessment

	Steps         []ProcessingStep
	Notes         []string
	Intermediates *Intermediates
}
