package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	return c
}

func TestLoad_EmbeddedData(t *testing.T) {
	c := loadCatalog(t)
	require.Len(t, c.Plants(), 10)
	require.Len(t, c.Techniques(), 11)

	for _, p := range c.Plants() {
		_, ok := p.CareFor("water")
		require.True(t, ok, p.ID)
		_, ok = p.CareFor("light")
		require.True(t, ok, p.ID)
		require.NotEmpty(t, p.Problems, p.ID)
	}

	steps := []string{
		entity.StepWhiteBalance, entity.StepCLAHE, entity.StepBilateralFilter, entity.StepGrabCut,
		entity.StepHSVSegmentation, entity.StepMorphology, entity.StepLBP, entity.StepDamageHeatmap,
		entity.StepCannyEdges, entity.StepDiseaseSpots, entity.StepHealthScoring,
	}
	for _, s := range steps {
		tech, ok := c.Technique(s)
		require.True(t, ok, s)
		require.NotEmpty(t, tech.Theory)
	}
}

func TestLookup(t *testing.T) {
	c := loadCatalog(t)

	cases := map[string]string{
		"pothos":     "pothos",
		"Peace Lily": "peace-lily",
		"aloe_vera":  "aloe-vera",
		"snake":      "snake-plant",
		"monstra":    "monstera",
		"tomatto":    "tomato",
		"  BASIL  ":  "basil",
		"rubber":     "rubber-plant",
	}
	for query, id := range cases {
		p, err := c.Lookup(query)
		require.NoError(t, err, query)
		require.Equal(t, id, p.ID, query)
	}
}

func TestLookup_Unknown(t *testing.T) {
	c := loadCatalog(t)

	_, err := c.Lookup("xylophone")
	require.ErrorIs(t, err, entity.ErrUnknownPlant)

	_, err = c.Lookup("   ")
	require.ErrorIs(t, err, entity.ErrUnknownPlant)
}

func TestPlant_ExactOnly(t *testing.T) {
	c := loadCatalog(t)

	p, ok := c.Plant("mint")
	require.True(t, ok)
	require.Equal(t, "Mint", p.Name)

	_, ok = c.Plant("Mint")
	require.False(t, ok)
}

func TestParse_RejectsDuplicates(t *testing.T) {
	plants := []byte("plants:\n- id: a\n  name: A\n- id: a\n  name: B\n")
	_, err := Parse(plants, []byte("techniques: []\n"))
	require.Error(t, err)

	techniques := []byte("techniques:\n- step: lbp\n- step: lbp\n")
	_, err = Parse([]byte("plants: []\n"), techniques)
	require.Error(t, err)
}
