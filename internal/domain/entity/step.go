package entity

import "time"

// Имена этапов конвейера.
const (
	StepWhiteBalance    = "white_balance"
	StepCLAHE           = "clahe"
	StepBilateralFilter = "bilateral_filter"
	StepGrabCut         = "grabcut"
	StepHSVSegmentation = "hsv_segmentation"
	StepMorphology      = "morphological_ops"
	StepCannyEdges      = "canny_edges"
	StepLBP             = "lbp"
	StepDiseaseSpots    = "disease_spots"
	StepDamageHeatmap   = "damage_heatmap"
	StepHealthScoring   = "health_scoring"
)

// StepStatus чем закончился этап.
type StepStatus string

const (
	StepApplied  StepStatus = "applied"
	StepSkipped  StepStatus = "skipped"
	StepFallback StepStatus = "fallback"
	StepDegraded StepStatus = "degraded"
)

// ProcessingStep запись об одном выполненном этапе.
type ProcessingStep struct {
	Name     string
	Status   StepStatus
	Detail   string
	Duration time.Duration
}

// StepTrace накапливает этапы одного запуска анализа.
// Не предназначен для совместного использования между запусками.
type StepTrace struct {
	steps []ProcessingStep
	notes []string
}

// NewStepTrace создаёт пустой журнал этапов.
func NewStepTrace() *StepTrace {
	return &StepTrace{steps: make([]ProcessingStep, 0, 11)}
}

// Add добавляет этап в конец журнала.
func (t *StepTrace) Add(step ProcessingStep) {
	t.steps = append(t.steps, step)
}

// Note фиксирует замечание о снижении качества результата.
func (t *StepTrace) Note(note string) {
	t.notes = append(t.notes, note)
}

// Steps возвращает копию журнала в порядке выполнения.
func (t *StepTrace) Steps() []ProcessingStep {
	out := make([]ProcessingStep, len(t.steps))
	copy(out, t.steps)
	return out
}

// Notes возвращает копию замечаний.
func (t *StepTrace) Notes() []string {
	out := make([]string, len(t.notes))
	copy(out, t.notes)
	return out
}
