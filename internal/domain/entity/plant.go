package entity

import "strings"

// CareTip совет по уходу по одному аспекту (полив, свет и т.д.).
type CareTip struct {
	Aspect string `yaml:"aspect" json:"aspect"`
	Advice string `yaml:"advice" json:"advice"`
}

// Problem типичная проблема растения и её лечение.
type Problem struct {
	Name       string   `yaml:"name" json:"name"`
	Causes     []string `yaml:"causes" json:"causes"`
	Diagnosis  string   `yaml:"diagnosis" json:"diagnosis"`
	Treatment  []string `yaml:"treatment" json:"treatment"`
	Prevention string   `yaml:"prevention" json:"prevention"`
}

// Plant карточка растения из справочника.
type Plant struct {
	ID             string    `yaml:"id" json:"id"`
	Name           string    `yaml:"name" json:"name"`
	LocalName      string    `yaml:"local_name" json:"local_name,omitempty"`
	ScientificName string    `yaml:"scientific_name" json:"scientific_name"`
	Difficulty     string    `yaml:"difficulty" json:"difficulty"`
	Care           []CareTip `yaml:"care" json:"care"`
	Problems       []Problem `yaml:"problems" json:"problems"`
	FunFact        string    `yaml:"fun_fact" json:"fun_fact,omitempty"`
}

// CareFor возвращает совет по аспекту ухода.
func (p Plant) CareFor(aspect string) (CareTip, bool) {
	for _, c := range p.Care {
		if c.Aspect == aspect {
			return c, true
		}
	}
	return CareTip{}, false
}

// FindProblem возвращает первую проблему, в названии которой (без учёта регистра)
// встречается любое из ключевых слов.
func (p Plant) FindProblem(keywords ...string) (Problem, bool) {
	for _, pr := range p.Problems {
		name := strings.ToLower(pr.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return pr, true
			}
		}
	}
	return Problem{}, false
}

// Technique пояснение к этапу обработки изображения.
type Technique struct {
	Step    string `yaml:"step" json:"step"`
	Title   string `yaml:"title" json:"title"`
	Theory  string `yaml:"theory" json:"theory"`
	Example string `yaml:"example" json:"example,omitempty"`
}

// CareAdvice рекомендации по результатам анализа.
type CareAdvice struct {
	Observations []string
	CareTips     []CareTip
	Detected     string   // что обнаружено, если выбрана проблема
	Problem      *Problem // выбранная проблема из справочника
	Treatment    []string // первые шаги лечения
}
