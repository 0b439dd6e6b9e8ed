package queue

import (
	"time"

	"hospital_queue/internal/models"
)

// Statistics — агрегированная сводка по очереди. Считается заново по записям
// при каждом запросе, отдельных накопителей нет — нечему расходиться.
type Statistics struct {
	TotalActive      int `json:"total_active"`       // Всего активных записей
	NormalCount      int `json:"normal_count"`       // Активных с обычным приоритетом
	UrgentCount      int `json:"urgent_count"`       // Активных со срочным приоритетом
	SuperUrgentCount int `json:"super_urgent_count"` // Активных с экстренным приоритетом
	AverageWaitTime  int `json:"average_wait_time"`  // Среднее фактическое ожидание обслуженных, минуты
	LongestWaitTime  int `json:"longest_wait_time"`  // Самое долгое текущее ожидание среди активных, минуты
}

// Statistics собирает сводку по отделению (или по всем отделениям, если
// specializationID == nil) с необязательным окном по времени постановки.
// Среднее ожидание обслуженных учитывает фильтр по отделению, но не окно.
func (e *Engine) Statistics(specializationID *uint, from, to *time.Time) (*Statistics, error) {
	var entries []models.QueueEntry
	var err error
	if specializationID != nil {
		entries, err = e.store.All(*specializationID)
	} else {
		entries, err = e.store.AllEntries()
	}
	if err != nil {
		return nil, err
	}

	stats := &Statistics{}
	var waitTotal, waitCount int
	now := time.Now()

	for i := range entries {
		entry := &entries[i]

		if entry.ServedAt != nil {
			waitTotal += int(entry.ServedAt.Sub(entry.JoinedAt).Minutes())
			waitCount++
			continue
		}
		if entry.RemovedAt != nil {
			continue
		}
		if from != nil && entry.JoinedAt.Before(*from) {
			continue
		}
		if to != nil && entry.JoinedAt.After(*to) {
			continue
		}

		stats.TotalActive++
		switch Priority(entry.Priority) {
		case PriorityNormal:
			stats.NormalCount++
		case PriorityUrgent:
			stats.UrgentCount++
		case PrioritySuperUrgent:
			stats.SuperUrgentCount++
		}
		if wait := int(now.Sub(entry.JoinedAt).Minutes()); wait > stats.LongestWaitTime {
			stats.LongestWaitTime = wait
		}
	}

	if waitCount > 0 {
		stats.AverageWaitTime = waitTotal / waitCount
	}
	return stats, nil
}
