package models

import (
	"time"

	"gorm.io/gorm"
)

// QueueEntry — запись живой очереди отделения. Запись никогда не удаляется
// физически: обслуженные и снятые записи остаются для статистики и аудита,
// активной считается запись без served_at и removed_at.
type QueueEntry struct {
	gorm.Model
	PatientID        uint       `gorm:"index;not null"`
	Patient          Patient    `gorm:"foreignKey:PatientID"`
	SpecializationID uint       `gorm:"index;not null"`
	Priority         int        `gorm:"index;not null;default:0"` // 0=обычный, 1=срочный, 2=экстренный, 3=обслужен
	Position         int        `gorm:"index"`                    // Текущая позиция среди активных записей отделения (1..N)
	JoinedAt         time.Time  `gorm:"index;not null"`           // Время постановки в очередь
	ServedAt         *time.Time // Время обслуживания (nil — ещё не обслужен)
	RemovedAt        *time.Time // Время снятия с очереди без обслуживания
	RemovalReason    *string    // Причина снятия
	EstimatedWait    int        // Оценка ожидания в минутах, фиксируется при постановке и не пересчитывается
}

// IsActiveEntry сообщает, находится ли запись в активной очереди.
func (e *QueueEntry) IsActiveEntry() bool {
	return e.ServedAt == nil && e.RemovedAt == nil
}

// ActualWaitMinutes — фактическое ожидание: до момента обслуживания для
// обслуженных, до текущего момента для активных.
func (e *QueueEntry) ActualWaitMinutes() int {
	if e.ServedAt != nil {
		return int(e.ServedAt.Sub(e.JoinedAt).Minutes())
	}
	return int(time.Since(e.JoinedAt).Minutes())
}
