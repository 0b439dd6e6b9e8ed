package queue

import (
	"errors"
	"fmt"
)

// Бизнес-ошибки движка очереди. Возвращаются вызывающему как есть, без
// повторных попыток: это детерминированные отказы правил, а не сбои.
var (
	// ErrInvalidPriority — приоритет вне трёх уровней ожидания.
	ErrInvalidPriority = errors.New("приоритет должен быть 0 (обычный), 1 (срочный) или 2 (экстренный)")
	// ErrSpecializationNotFound — отделение не найдено в реестре.
	ErrSpecializationNotFound = errors.New("отделение не найдено")
	// ErrSpecializationInactive — отделение не принимает пациентов.
	ErrSpecializationInactive = errors.New("отделение не принимает пациентов")
	// ErrPatientNotFound — пациент не найден в справочнике.
	ErrPatientNotFound = errors.New("пациент не найден")
	// ErrEntryNotFound — запись очереди не найдена.
	ErrEntryNotFound = errors.New("запись очереди не найдена")
	// ErrEntryNotActive — запись уже обслужена или снята, терминальное
	// состояние изменению не подлежит.
	ErrEntryNotActive = errors.New("запись очереди уже обслужена или снята")
)

// DuplicateEntryError — пациент уже стоит в очереди этого отделения.
// Несёт текущую позицию для отображения вызывающей стороне.
type DuplicateEntryError struct {
	Position int
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("пациент уже состоит в очереди этого отделения (позиция %d)", e.Position)
}

// CapacityError — очередь отделения заполнена до max_capacity.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("очередь заполнена: достигнут лимит %d пациентов", e.Capacity)
}
