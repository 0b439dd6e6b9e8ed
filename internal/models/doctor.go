package models

import (
	"time"

	"gorm.io/gorm"
)

// Doctor — врач. Связь с отделениями — многие ко многим (врач может вести
// приём по нескольким специализациям).
type Doctor struct {
	gorm.Model
	FullName        string           `gorm:"index;not null"`       // ФИО врача
	Title           string           // Должность/звание (Dr., Prof. и т.п.)
	LicenseNumber   string           `gorm:"uniqueIndex;not null"` // Номер медицинской лицензии
	PhoneNumber     string           // Контактный телефон
	Email           string           // Электронная почта
	Status          string           `gorm:"default:'Active'"` // 'Active', 'Inactive', 'On Leave'
	HireDate        *time.Time       // Дата приёма на работу
	Specializations []Specialization `gorm:"many2many:doctor_specializations;"`
}
