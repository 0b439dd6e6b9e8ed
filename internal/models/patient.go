package models

import (
	"time"

	"gorm.io/gorm"
)

// Patient — карточка пациента. Справочник пациентов ведётся отдельно от очереди:
// движок очереди проверяет только факт существования пациента.
type Patient struct {
	gorm.Model
	FullName         string     `gorm:"index;not null"` // ФИО пациента
	DateOfBirth      *time.Time // Дата рождения
	Gender           string     // Пол ('Male', 'Female', 'Other')
	PhoneNumber      string     // Контактный телефон
	Email            string     // Электронная почта
	Address          string     // Адрес проживания
	EmergencyContact string     // Контакт для экстренной связи
	BloodType        string     // Группа крови
	Allergies        string     // Известные аллергии
	MedicalHistory   string     // Заметки по анамнезу
}
