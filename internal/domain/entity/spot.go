package entity

import "math"

// SpotSize размерная группа пятна.
type SpotSize string

const (
	SpotSmall  SpotSize = "small"
	SpotMedium SpotSize = "medium"
	SpotLarge  SpotSize = "large"
)

// SpotShape эвристический тип повреждения по форме пятна.
// Это приближение по геометрии контура, а не диагноз.
type SpotShape string

const (
	ShapeFungal    SpotShape = "Fungal"    // округлое, радиальный рост
	ShapeBacterial SpotShape = "Bacterial" // неровное, вдоль жилок
	ShapePhysical  SpotShape = "Physical"  // вытянутое или рваное, неинфекционное
)

const (
	MinSpotArea    = 20.0
	MediumSpotArea = 100.0
	LargeSpotArea  = 500.0

	FungalCircularity    = 0.75
	BacterialCircularity = 0.5

	maxSpotSeverity = 100
)

// SpotRecord описывает одну связную область некроза.
type SpotRecord struct {
	Area        float64
	Perimeter   float64
	Circularity float64
	Size        SpotSize
	Shape       SpotShape
}

// NewSpotRecord классифицирует область по площади и периметру контура.
// ok == false, если область слишком мала или периметр вырожден.
func NewSpotRecord(area, perimeter float64) (SpotRecord, bool) {
	if area < MinSpotArea || perimeter <= 0 {
		return SpotRecord{}, false
	}
	c := 4 * math.Pi * area / (perimeter * perimeter)
	return SpotRecord{
		Area:        area,
		Perimeter:   perimeter,
		Circularity: c,
		Size:        sizeOf(area),
		Shape:       shapeOf(c),
	}, true
}

func sizeOf(area float64) SpotSize {
	switch {
	case area < MediumSpotArea:
		return SpotSmall
	case area < LargeSpotArea:
		return SpotMedium
	default:
		return SpotLarge
	}
}

func shapeOf(c float64) SpotShape {
	switch {
	case c > FungalCircularity:
		return ShapeFungal
	case c > BacterialCircularity:
		return ShapeBacterial
	default:
		return ShapePhysical
	}
}

// SpotSummary итог анализа пятен.
type SpotSummary struct {
	Records  []SpotRecord
	Small    int
	Medium   int
	Large    int
	Severity int // 0..100
}

// SummarizeSpots группирует записи и считает суммарную тяжесть.
func SummarizeSpots(records []SpotRecord) SpotSummary {
	s := SpotSummary{Records: records}
	for _, r := range records {
		switch r.Size {
		case SpotSmall:
			s.Small++
		case SpotMedium:
			s.Medium++
		case SpotLarge:
			s.Large++
		}
	}
	s.Severity = 5*s.Small + 15*s.Medium + 30*s.Large
	if s.Severity > maxSpotSeverity {
		s.Severity = maxSpotSeverity
	}
	return s
}

// Total возвращает число учтённых пятен.
func (s SpotSummary) Total() int {
	return len(s.Records)
}

// ShapeCounts считает пятна по типу формы.
func (s SpotSummary) ShapeCounts() map[SpotShape]int {
	counts := make(map[SpotShape]int, 3)
	for _, r := range s.Records {
		counts[r.Shape]++
	}
	return counts
}
