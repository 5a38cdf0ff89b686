package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeFor_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		grade string
	}{
		{100, "A+"},
		{90.0, "A+"},
		{89.99, "A"},
		{80, "A"},
		{79.9, "B"},
		{70, "B"},
		{60, "C"},
		{50, "D"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, c := range cases {
		grade, _, _ := GradeFor(c.score)
		require.Equal(t, c.grade, grade, "score %v", c.score)
	}
}

func TestHealthScore_Clamped(t *testing.T) {
	high := HealthScore(HealthFeatures{Ratios: ColorRatios{Green: 100}})
	require.Equal(t, 100.0, high)

	low := HealthScore(HealthFeatures{
		Ratios:         ColorRatios{Brown: 90, Yellow: 10},
		TextureEntropy: 7,
		SpotSeverity:   100,
	})
	require.Equal(t, 0.0, low)
}

func TestHealthScore_Formula(t *testing.T) {
	f := HealthFeatures{
		Ratios:         ColorRatios{Green: 40, Yellow: 10, Brown: 5},
		TextureEntropy: 4,
		EdgeDensity:    10,
		SpotSeverity:   20,
	}
	// 100 + 20 - 12 - 12.5 - 8 + 2 - 6
	require.InDelta(t, 83.5, HealthScore(f), 1e-9)
}

func TestAssessHealth_PureGreenIsHealthy(t *testing.T) {
	h := AssessHealth(HealthFeatures{Ratios: ColorRatios{Green: 100}})
	require.Equal(t, StatusHealthy, h.Status)
	require.Equal(t, "A+", h.Grade)
	require.Empty(t, h.Problems)
}

func TestAssessHealth_StatusPriority(t *testing.T) {
	h := AssessHealth(HealthFeatures{Ratios: ColorRatios{Green: 50, Yellow: 30, Brown: 20}})
	require.Equal(t, StatusDiseased, h.Status)
	require.Equal(t, []string{"High necrosis (20.00%)", "Possible fungal infection"}, h.Problems)

	h = AssessHealth(HealthFeatures{Ratios: ColorRatios{Green: 60, Yellow: 20, Brown: 3}})
	require.Equal(t, StatusStressed, h.Status)
	require.Equal(t, "Chlorosis detected (20.00%)", h.Problems[0])

	h = AssessHealth(HealthFeatures{Ratios: ColorRatios{Green: 86, Yellow: 6, Brown: 1}})
	require.Equal(t, StatusModerate, h.Status)
	require.Len(t, h.Problems, 2)
}
