package entity

import (
	"fmt"
	"math"
)

// Статусы здоровья в порядке проверки.
const (
	StatusHealthy  = "Healthy"
	StatusDiseased = "Diseased/Necrotic"
	StatusStressed = "Water/Nutrient Stress"
	StatusModerate = "Moderate Issues"
)

// Веса формулы балла и пороги статусов.
const (
	minScore        = 0.0
	maxScore        = 100.0
	scoreBase       = 100.0
	greenWeight     = 0.5
	yellowWeight    = -1.2
	brownWeight     = -2.5
	entropyWeight   = -2.0
	edgeWeight      = 0.2
	severityWeight  = -0.3
	healthyGreenMin = 85.0
	healthyYellow   = 5.0
	healthyBrown    = 2.0
	necrosisLimit   = 15.0
	chlorosisLimit  = 15.0
)

// HealthFeatures входные признаки для итоговой оценки.
type HealthFeatures struct {
	Ratios         ColorRatios
	TextureEntropy float64
	EdgeDensity    float64
	SpotSeverity   float64
}

// HealthAssessment итоговая оценка листа.
type HealthAssessment struct {
	Score     float64  // 0..100, одна цифра после запятой
	Grade     string   // A+, A, B, C, D, F
	GradeText string   // словесное описание оценки
	Color     string   // цвет для отображения
	Status    string   // качественный статус
	Problems  []string // обнаруженные проблемы, пусто для здорового листа
}

type gradeBand struct {
	min   float64
	grade string
	text  string
	color string
}

var gradeBands = [...]gradeBand{
	{90, "A+", "Excellent", "#00ff88"},
	{80, "A", "Very Good", "#66ff00"},
	{70, "B", "Good", "#ccff00"},
	{60, "C", "Fair", "#ffaa00"},
	{50, "D", "Poor", "#ff6600"},
}

var failBand = gradeBand{0, "F", "Critical", "#ff4444"}

// GradeFor возвращает буквенную оценку, описание и цвет для балла.
func GradeFor(score float64) (grade, text, color string) {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade, b.text, b.color
		}
	}
	return failBand.grade, failBand.text, failBand.color
}

// HealthScore считает взвешенный балл, округлённый до десятых и ограниченный [0,100].
func HealthScore(f HealthFeatures) float64 {
	score := scoreBase +
		greenWeight*f.Ratios.Green +
		yellowWeight*f.Ratios.Yellow +
		brownWeight*f.Ratios.Brown +
		entropyWeight*f.TextureEntropy +
		edgeWeight*f.EdgeDensity +
		severityWeight*f.SpotSeverity
	if math.IsNaN(score) {
		return minScore
	}
	score = math.Round(score*10) / 10
	return math.Max(minScore, math.Min(maxScore, score))
}

// AssessHealth объединяет признаки в итоговую оценку.
func AssessHealth(f HealthFeatures) HealthAssessment {
	score := HealthScore(f)
	grade, text, color := GradeFor(score)
	status, problems := classifyStatus(f.Ratios)
	return HealthAssessment{
		Score:     score,
		Grade:     grade,
		GradeText: text,
		Color:     color,
		Status:    status,
		Problems:  problems,
	}
}

func classifyStatus(r ColorRatios) (string, []string) {
	switch {
	case r.Green > healthyGreenMin && r.Yellow < healthyYellow && r.Brown < healthyBrown:
		return StatusHealthy, []string{}
	case r.Brown > necrosisLimit:
		return StatusDiseased, []string{
			fmt.Sprintf("High necrosis (%.2f%%)", r.Brown),
			"Possible fungal infection",
		}
	case r.Yellow > chlorosisLimit:
		return StatusStressed, []string{
			fmt.Sprintf("Chlorosis detected (%.2f%%)", r.Yellow),
			"Check watering/nutrients",
		}
	default:
		return StatusModerate, []string{"Early stress signs", "Monitor closely"}
	}
}
