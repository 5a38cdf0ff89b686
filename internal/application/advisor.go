package app

import (
	"context"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

const (
	attentionScore    = 70.0
	brownAdviceLimit  = 10.0
	yellowAdviceLimit = 15.0
	maxTreatmentSteps = 5

	DetectedNecrosis  = "Detected: Brown/Dead Tissue"
	DetectedChlorosis = "Detected: Yellowing (Chlorosis)"
	noIssues          = "No significant issues detected"
)

// Ключевые слова ищутся подстрокой в названии проблемы.
var (
	necrosisKeywords  = []string{"brown", "spot", "rot", "disease"}
	chlorosisKeywords = []string{"yellow"}
)

var _ port.CareAdvisor = (*KnowledgeAdvisor)(nil)

// KnowledgeAdvisor подбирает советы из справочника по результату анализа.
type KnowledgeAdvisor struct{}

func NewKnowledgeAdvisor() *KnowledgeAdvisor {
	return &KnowledgeAdvisor{}
}

// Advise возвращает наблюдения, советы по поливу и свету и, если лист требует
// внимания, первую подходящую проблему растения с первыми шагами лечения.
func (a *KnowledgeAdvisor) Advise(ctx context.Context, plant *entity.Plant, result *entity.AnalysisResult) (*entity.CareAdvice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	advice := &entity.CareAdvice{Observations: append([]string(nil), result.Health.Problems...)}
	if len(advice.Observations) == 0 {
		advice.Observations = []string{noIssues}
	}
	if plant == nil {
		return advice, nil
	}

	for _, aspect := range []string{"water", "light"} {
		if tip, ok := plant.CareFor(aspect); ok {
			advice.CareTips = append(advice.CareTips, tip)
		}
	}

	h := result.Health
	if h.Status != entity.StatusDiseased && h.Score >= attentionScore {
		return advice, nil
	}

	var keywords []string
	switch {
	case result.Ratios.Brown > brownAdviceLimit:
		advice.Detected, keywords = DetectedNecrosis, necrosisKeywords
	case result.Ratios.Yellow > yellowAdviceLimit:
		advice.Detected, keywords = DetectedChlorosis, chlorosisKeywords
	default:
		return advice, nil
	}

	if problem, ok := plant.FindProblem(keywords...); ok {
		advice.Problem = &problem
		advice.Treatment = problem.Treatment
		if len(advice.Treatment) > maxTreatmentSteps {
			advice.Treatment = advice.Treatment[:maxTreatmentSteps]
		}
	}
	return advice, nil
}
