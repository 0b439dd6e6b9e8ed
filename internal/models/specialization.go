package models

import (
	"gorm.io/gorm"
)

// Specialization — отделение (медицинская специализация) со своей живой очередью.
type Specialization struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null"` // Название, например "Кардиология"
	Description string // Описание отделения
	MaxCapacity int    `gorm:"not null;default:10"` // Максимальное число пациентов в очереди
	IsActive    bool   `gorm:"default:true"`        // Принимает ли отделение пациентов
}
