package httpapi

import (
	"time"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/entity"
)

type PlantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type HealthDTO struct {
	Score     float64  `json:"score"`
	Grade     string   `json:"grade"`
	GradeText string   `json:"grade_text"`
	Color     string   `json:"color"`
	Status    string   `json:"status"`
	Problems  []string `json:"problems"`
}

type TextureDTO struct {
	Available      bool      `json:"available"`
	Entropy        float64   `json:"entropy"`
	Interpretation string    `json:"interpretation,omitempty"`
	Histogram      []float64 `json:"histogram,omitempty"`
}

type SpotDTO struct {
	Area        float64 `json:"area"`
	Perimeter   float64 `json:"perimeter"`
	Circularity float64 `json:"circularity"`
	Size        string  `json:"size"`
	Shape       string  `json:"shape"`
}

type SpotsDTO struct {
	Total    int            `json:"total"`
	Small    int            `json:"small"`
	Medium   int            `json:"medium"`
	Large    int            `json:"large"`
	Severity int            `json:"severity"`
	Shapes   map[string]int `json:"shapes"`
	Records  []SpotDTO      `json:"records"`
}

type StepDTO struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Detail     string  `json:"detail,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

type AdviceDTO struct {
	Observations []string         `json:"observations"`
	CareTips     []entity.CareTip `json:"care_tips"`
	Detected     string           `json:"detected,omitempty"`
	Problem      *entity.Problem  `json:"problem,omitempty"`
	Treatment    []string         `json:"treatment,omitempty"`
}

// AnalysisResponse ответ POST /analyze.
type AnalysisResponse struct {
	ReportID           string             `json:"report_id"`
	Archived           bool               `json:"archived"`
	CreatedAt          time.Time          `json:"created_at"`
	Plant              *PlantRef          `json:"plant,omitempty"`
	Width              int                `json:"width"`
	Height             int                `json:"height"`
	ForegroundIsolated bool               `json:"foreground_isolated"`
	Health             HealthDTO          `json:"health"`
	Ratios             entity.ColorRatios `json:"ratios"`
	EdgeDensity        float64            `json:"edge_density"`
	Texture            TextureDTO         `json:"texture"`
	Spots              SpotsDTO           `json:"spots"`
	Advice             *AdviceDTO         `json:"advice,omitempty"`
	Steps              []StepDTO          `json:"steps"`
	Notes              []string           `json:"notes"`
	Images             map[string]string  `json:"images,omitempty"` // base64 JPEG по имени
}

func newAnalysisResponse(d *app.Diagnosis) AnalysisResponse {
	r := d.Result
	resp := AnalysisResponse{
		ReportID:           d.ReportID,
		Archived:           d.Archived,
		CreatedAt:          d.CreatedAt,
		Width:              r.Width,
		Height:             r.Height,
		ForegroundIsolated: r.ForegroundIsolated,
		Health: HealthDTO{
			Score:     r.Health.Score,
			Grade:     r.Health.Grade,
			GradeText: r.Health.GradeText,
			Color:     r.Health.Color,
			Status:    r.Health.Status,
			Problems:  nonNil(r.Health.Problems),
		},
		Ratios:      r.Ratios,
		EdgeDensity: r.EdgeDensity,
		Texture: TextureDTO{
			Available: r.Texture.Available,
			Entropy:   r.Texture.Entropy,
			Histogram: r.Texture.Histogram,
		},
		Spots: newSpotsDTO(r.Spots),
		Notes: nonNil(r.Notes),
		Steps: make([]StepDTO, 0, len(r.Steps)),
	}
	if r.Texture.Available {
		resp.Texture.Interpretation = string(r.Texture.Interpretation())
	}
	if d.Plant != nil {
		resp.Plant = &PlantRef{ID: d.Plant.ID, Name: d.Plant.Name}
	}
	if a := d.Advice; a != nil {
		resp.Advice = &AdviceDTO{
			Observations: nonNil(a.Observations),
			CareTips:     a.CareTips,
			Detected:     a.Detected,
			Problem:      a.Problem,
			Treatment:    a.Treatment,
		}
	}
	for _, s := range r.Steps {
		resp.Steps = append(resp.Steps, StepDTO{
			Name:       s.Name,
			Status:     string(s.Status),
			Detail:     s.Detail,
			DurationMS: float64(s.Duration.Microseconds()) / 1000,
		})
	}
	return resp
}

func newSpotsDTO(s entity.SpotSummary) SpotsDTO {
	dto := SpotsDTO{
		Total:    s.Total(),
		Small:    s.Small,
		Medium:   s.Medium,
		Large:    s.Large,
		Severity: s.Severity,
		Shapes:   make(map[string]int, 3),
		Records:  make([]SpotDTO, 0, len(s.Records)),
	}
	for shape, n := range s.ShapeCounts() {
		dto.Shapes[string(shape)] = n
	}
	for _, rec := range s.Records {
		dto.Records = append(dto.Records, SpotDTO{
			Area:        rec.Area,
			Perimeter:   rec.Perimeter,
			Circularity: rec.Circularity,
			Size:        string(rec.Size),
			Shape:       string(rec.Shape),
		})
	}
	return dto
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
