package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// DefaultArchiveCapacity сколько отчётов хранит in-memory архив по умолчанию.
const DefaultArchiveCapacity = 100

// MemoryReportArchive хранит последние отчёты в памяти; старые вытесняются.
type MemoryReportArchive struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	reports  map[string]entity.ArchivedReport
}

// NewMemoryReportArchive создаёт архив на capacity отчётов.
func NewMemoryReportArchive(capacity int) *MemoryReportArchive {
	if capacity <= 0 {
		capacity = DefaultArchiveCapacity
	}
	return &MemoryReportArchive{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		reports:  make(map[string]entity.ArchivedReport, capacity),
	}
}

// Save сохраняет отчёт; пустой ID заменяется новым UUID.
func (a *MemoryReportArchive) Save(ctx context.Context, report *entity.ArchivedReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored := *report
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.reports[stored.ID]; !exists {
		if len(a.order) == a.capacity {
			delete(a.reports, a.order[0])
			a.order = a.order[1:]
		}
		a.order = append(a.order, stored.ID)
	}
	a.reports[stored.ID] = stored
	return stored.ID, nil
}

// Load возвращает отчёт по ID.
func (a *MemoryReportArchive) Load(ctx context.Context, id string) (*entity.ArchivedReport, error) {
	a.mu.RLock()
	report, ok := a.reports[id]
	a.mu.RUnlock()

	if !ok {
		return nil, entity.NewReportNotFound(id)
	}
	return &report, nil
}

// Len возвращает число хранимых отчётов.
func (a *MemoryReportArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

var _ port.ReportArchive = (*MemoryReportArchive)(nil)
