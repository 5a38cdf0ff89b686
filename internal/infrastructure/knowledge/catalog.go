// Package knowledge хранит встроенный справочник растений и пояснения к этапам анализа.
package knowledge

import (
	"embed"
	"fmt"
	"strings"

	"github.com/arbovm/levenshtein"
	"gopkg.in/yaml.v3"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// MaxLookupDistance наибольшее расстояние Левенштейна для нечёткого поиска.
const MaxLookupDistance = 3

//go:embed data/plants.yaml data/techniques.yaml
var data embed.FS

var _ port.KnowledgeBase = (*Catalog)(nil)

// Catalog неизменяемый справочник. Безопасен для конкурентного чтения.
type Catalog struct {
	plants     []entity.Plant
	byID       map[string]int
	techniques []entity.Technique
	byStep     map[string]int
}

type plantsFile struct {
	Plants []entity.Plant `yaml:"plants"`
}

type techniquesFile struct {
	Techniques []entity.Technique `yaml:"techniques"`
}

// Load разбирает встроенные YAML-файлы.
func Load() (*Catalog, error) {
	plants, err := data.ReadFile("data/plants.yaml")
	if err != nil {
		return nil, err
	}
	techniques, err := data.ReadFile("data/techniques.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(plants, techniques)
}

// Parse строит справочник из YAML и проверяет уникальность ключей.
func Parse(plantsYAML, techniquesYAML []byte) (*Catalog, error) {
	var pf plantsFile
	if err := yaml.Unmarshal(plantsYAML, &pf); err != nil {
		return nil, fmt.Errorf("parse plants: %w", err)
	}
	var tf techniquesFile
	if err := yaml.Unmarshal(techniquesYAML, &tf); err != nil {
		return nil, fmt.Errorf("parse techniques: %w", err)
	}

	c := &Catalog{
		plants:     pf.Plants,
		byID:       make(map[string]int, len(pf.Plants)),
		techniques: tf.Techniques,
		byStep:     make(map[string]int, len(tf.Techniques)),
	}
	for i, p := range c.plants {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("plant #%d: id and name are required", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plant id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	for i, t := range c.techniques {
		if t.Step == "" {
			return nil, fmt.Errorf("technique #%d: step is required", i)
		}
		if _, dup := c.byStep[t.Step]; dup {
			return nil, fmt.Errorf("duplicate technique %q", t.Step)
		}
		c.byStep[t.Step] = i
	}
	return c, nil
}

// Plants возвращает копию списка растений.
func (c *Catalog) Plants() []entity.Plant {
	out := make([]entity.Plant, len(c.plants))
	copy(out, c.plants)
	return out
}

func (c *Catalog) Plant(id string) (entity.Plant, bool) {
	i, ok := c.byID[id]
	if !ok {
		return entity.Plant{}, false
	}
	return c.plants[i], true
}

// Lookup ищет растение: точное совпадение ID или названия, затем подстрока,
// затем ближайшее по Левенштейну не дальше MaxLookupDistance.
func (c *Catalog) Lookup(query string) (entity.Plant, error) {
	q := normalize(query)
	if q == "" {
		return entity.Plant{}, entity.NewUnknownPlant(query)
	}

	for _, p := range c.plants {
		if q == p.ID || q == normalize(p.Name) || q == normalize(p.LocalName) {
			return p, nil
		}
	}
	for _, p := range c.plants {
		if strings.Contains(p.ID, q) || strings.Contains(normalize(p.Name), q) {
			return p, nil
		}
	}

	best, bestDist := -1, MaxLookupDistance+1
	for i, p := range c.plants {
		d := min(levenshtein.Distance(q, p.ID), levenshtein.Distance(q, normalize(p.Name)))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return entity.Plant{}, entity.NewUnknownPlant(query)
	}
	return c.plants[best], nil
}

func (c *Catalog) Techniques() []entity.Technique {
	out := make([]entity.Technique, len(c.techniques))
	copy(out, c.techniques)
	return out
}

func (c *Catalog) Technique(step string) (entity.Technique, bool) {
	i, ok := c.byStep[step]
	if !ok {
		return entity.Technique{}, false
	}
	return c.techniques[i], true
}

// normalize приводит запрос к виду ID: нижний регистр, пробелы и '_' заменены на '-'.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	return s
}
