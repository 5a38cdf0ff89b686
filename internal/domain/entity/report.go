package entity

import "time"

// ReportSummary сериализуемая сводка анализа для архива и API.
type ReportSummary struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	PlantID     string      `json:"plant_id,omitempty"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Score       float64     `json:"score"`
	Grade       string      `json:"grade"`
	Status      string      `json:"status"`
	Problems    []string    `json:"problems"`
	Ratios      ColorRatios `json:"ratios"`
	EdgeDensity float64     `json:"edge_density"`
	Entropy     float64     `json:"texture_entropy"`
	SpotCount   int         `json:"spot_count"`
	Severity    int         `json:"spot_severity"`
	Notes       []string    `json:"notes,omitempty"`
}

// ArchivedReport отчёт, сохраняемый в архиве.
type ArchivedReport struct {
	ID        string
	CreatedAt time.Time
	Summary   []byte // JSON ReportSummary
	Heatmap   []byte // JPEG
}

// NewReportSummary строит сводку по результату анализа.
func NewReportSummary(id, plantID string, createdAt time.Time, r *AnalysisResult) ReportSummary {
	return ReportSummary{
		ID:          id,
		CreatedAt:   createdAt,
		PlantID:     plantID,
		Width:       r.Width,
		Height:      r.Height,
		Score:       r.Health.Score,
		Grade:       r.Health.Grade,
		Status:      r.Health.Status,
		Problems:    r.Health.Problems,
		Ratios:      r.Ratios,
		EdgeDensity: r.EdgeDensity,
		Entropy:     r.Texture.Entropy,
		SpotCount:   r.Spots.Total(),
		Severity:    r.Spots.Severity,
		Notes:       r.Notes,
	}
}
