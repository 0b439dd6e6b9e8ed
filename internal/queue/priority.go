package queue

// Priority — приоритет записи в очереди. Значения совпадают с колонкой
// priority в БД: три уровня ожидания и терминальное значение "обслужен".
type Priority int

const (
	PriorityNormal      Priority = 0 // Обычный
	PriorityUrgent      Priority = 1 // Срочный
	PrioritySuperUrgent Priority = 2 // Экстренный
	PriorityServed      Priority = 3 // Обслужен (терминальное состояние)
)

// IsWaiting сообщает, является ли приоритет одним из трёх уровней ожидания.
func (p Priority) IsWaiting() bool {
	return p == PriorityNormal || p == PriorityUrgent || p == PrioritySuperUrgent
}

// Multiplier — коэффициент скорости обслуживания для оценки ожидания:
// чем выше срочность, тем быстрее предполагается приём.
func (p Priority) Multiplier() float64 {
	switch p {
	case PriorityUrgent:
		return 0.7
	case PrioritySuperUrgent:
		return 0.5
	default:
		return 1.0
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "Normal"
	case PriorityUrgent:
		return "Urgent"
	case PrioritySuperUrgent:
		return "Super-Urgent"
	case PriorityServed:
		return "Served"
	default:
		return "Unknown"
	}
}
