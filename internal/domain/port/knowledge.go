package port

import "leaf-health-bot/internal/domain/entity"

// KnowledgeBase справочник растений и пояснений к этапам обработки.
// Только для чтения.
type KnowledgeBase interface {
	// Plants возвращает все растения в порядке справочника
	Plants() []entity.Plant

	// Plant ищет растение по точному ID
	Plant(id string) (entity.Plant, bool)

	// Lookup ищет растение по ID или названию с нечётким сравнением
	Lookup(query string) (entity.Plant, error)

	// Techniques возвращает пояснения ко всем этапам
	Techniques() []entity.Technique

	// Technique возвращает пояснение к этапу
	Technique(step string) (entity.Technique, bool)
}
