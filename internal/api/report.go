package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/entity"
)

// maxMessageLen лимит длины текста сообщения Telegram.
const maxMessageLen = 4096

const spotDisclaimer = "ℹ️ Тип пятна оценивается по форме контура. Это эвристика, а не диагноз."

// FormatDiagnosis собирает текстовый отчёт по результату анализа.
func FormatDiagnosis(d *app.Diagnosis) string {
	r := d.Result
	h := r.Health

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌿 Оценка здоровья: %.1f/100 (%s, %s)\n", h.Score, h.Grade, h.GradeText)
	fmt.Fprintf(&sb, "Статус: %s\n", h.Status)
	if d.Plant != nil {
		fmt.Fprintf(&sb, "Растение: %s (%s)\n", d.Plant.Name, d.Plant.ScientificName)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "🎨 Цвета: зелёный %.2f%%, жёлтый %.2f%%, бурый %.2f%%\n", r.Ratios.Green, r.Ratios.Yellow, r.Ratios.Brown)
	fmt.Fprintf(&sb, "📐 Плотность границ: %.2f%%\n", r.EdgeDensity)
	if r.Texture.Available {
		fmt.Fprintf(&sb, "🕸️ Текстура: энтропия %.3f (%s)\n", r.Texture.Entropy, r.Texture.Interpretation())
	} else {
		sb.WriteString("🕸️ Текстура: анализ недоступен\n")
	}

	s := r.Spots
	fmt.Fprintf(&sb, "🔬 Пятна: %d (мелкие %d, средние %d, крупные %d), тяжесть %d/100\n",
		s.Total(), s.Small, s.Medium, s.Large, s.Severity)
	if s.Total() > 0 {
		shapes := s.ShapeCounts()
		fmt.Fprintf(&sb, "   Формы: Fungal %d, Bacterial %d, Physical %d\n",
			shapes[entity.ShapeFungal], shapes[entity.ShapeBacterial], shapes[entity.ShapePhysical])
		sb.WriteString(spotDisclaimer + "\n")
	}

	if a := d.Advice; a != nil {
		sb.WriteString("\n📋 Наблюдения:\n")
		for _, o := range a.Observations {
			fmt.Fprintf(&sb, "• %s\n", o)
		}
		if len(a.CareTips) > 0 {
			sb.WriteString("\n💡 Советы по уходу:\n")
			for _, tip := range a.CareTips {
				fmt.Fprintf(&sb, "• %s\n", tip.Advice)
			}
		}
		if a.Detected != "" {
			fmt.Fprintf(&sb, "\n⚠️ %s\n", a.Detected)
			if a.Problem != nil {
				fmt.Fprintf(&sb, "%s: %s\n", a.Problem.Name, a.Problem.Diagnosis)
				sb.WriteString("Лечение:\n")
				for _, step := range a.Treatment {
					sb.WriteString(step + "\n")
				}
			}
		}
	}

	if len(r.Notes) > 0 {
		sb.WriteString("\n⚙️ Замечания:\n")
		for _, n := range r.Notes {
			fmt.Fprintf(&sb, "• %s\n", n)
		}
	}
	if d.Archived {
		fmt.Fprintf(&sb, "\n🆔 Отчёт: %s\n", d.ReportID)
	}
	return truncate(sb.String(), maxMessageLen)
}

// FormatPlants перечисляет растения справочника.
func FormatPlants(plants []entity.Plant) string {
	var sb strings.Builder
	sb.WriteString("🌱 Растения в справочнике:\n\n")
	for _, p := range plants {
		fmt.Fprintf(&sb, "• %s (%s) — %s, уход: %s\n", p.Name, p.ID, p.ScientificName, p.Difficulty)
	}
	sb.WriteString("\nВыберите растение: /plant <название>")
	return sb.String()
}

// FormatPlant описывает карточку растения.
func FormatPlant(p entity.Plant) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🪴 %s", p.Name)
	if p.LocalName != "" {
		fmt.Fprintf(&sb, " / %s", p.LocalName)
	}
	fmt.Fprintf(&sb, "\n%s, сложность ухода: %s\n\n", p.ScientificName, p.Difficulty)
	for _, c := range p.Care {
		fmt.Fprintf(&sb, "%s\n", c.Advice)
	}
	if len(p.Problems) > 0 {
		sb.WriteString("\nТипичные проблемы:\n")
		for _, pr := range p.Problems {
			fmt.Fprintf(&sb, "• %s\n", pr.Name)
		}
	}
	if p.FunFact != "" {
		fmt.Fprintf(&sb, "\n✨ %s\n", p.FunFact)
	}
	return truncate(sb.String(), maxMessageLen)
}

// FormatTechniques перечисляет этапы обработки.
func FormatTechniques(techniques []entity.Technique) string {
	var sb strings.Builder
	sb.WriteString("📚 Этапы обработки изображения:\n\n")
	for _, t := range techniques {
		fmt.Fprintf(&sb, "• %s — /explain %s\n", t.Title, t.Step)
	}
	return sb.String()
}

// FormatTechnique описывает один этап.
func FormatTechnique(t entity.Technique) string {
	text := fmt.Sprintf("📖 %s\n\n%s", t.Title, strings.TrimSpace(t.Theory))
	if t.Example != "" {
		text += "\n\nПример: " + t.Example
	}
	return truncate(text, maxMessageLen)
}

// truncate обрезает текст до limit байт по границе руны.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
