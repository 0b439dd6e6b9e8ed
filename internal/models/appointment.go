package models

import (
	"time"

	"gorm.io/gorm"
)

// Appointment — плановая запись на приём (в отличие от живой очереди).
type Appointment struct {
	gorm.Model
	PatientID          uint           `gorm:"index;not null"`
	Patient            Patient        `gorm:"foreignKey:PatientID"`
	DoctorID           uint           `gorm:"index;not null"`
	Doctor             Doctor         `gorm:"foreignKey:DoctorID"`
	SpecializationID   uint           `gorm:"index;not null"`
	Specialization     Specialization `gorm:"foreignKey:SpecializationID"`
	StartsAt           time.Time      `gorm:"index;not null"` // Начало приёма
	Duration           int            `gorm:"default:30"`     // Длительность в минутах
	Type               string         `gorm:"default:'Regular'"` // 'Regular', 'Follow-up', 'Emergency'
	Reason             string         // Причина обращения
	Notes              string         // Дополнительные заметки
	Status             string         `gorm:"index;default:'Scheduled'"` // 'Scheduled', 'Confirmed', 'Cancelled', 'Completed', 'No-Show'
	CancelledAt        *time.Time     // Время отмены записи
	CancellationReason *string        // Причина отмены
}
