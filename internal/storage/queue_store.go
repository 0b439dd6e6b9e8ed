package storage

import (
	"errors"

	"hospital_queue/internal/models"
	"hospital_queue/internal/queue"

	"gorm.io/gorm"
)

// QueueEntryStore — реализация queue.EntryStore поверх gorm.
// Отсутствующая запись возвращается как (nil, nil).
type QueueEntryStore struct {
	db *gorm.DB
}

func NewQueueEntryStore(db *gorm.DB) *QueueEntryStore {
	return &QueueEntryStore{db: db}
}

func (s *QueueEntryStore) Insert(entry *models.QueueEntry) error {
	return s.db.Create(entry).Error
}

func (s *QueueEntryStore) Update(entry *models.QueueEntry) error {
	return s.db.Save(entry).Error
}

func (s *QueueEntryStore) ByID(entryID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *QueueEntryStore) Active(specializationID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.
		Where("specialization_id = ? AND served_at IS NULL AND removed_at IS NULL", specializationID).
		Order("priority DESC, joined_at ASC").
		Find(&entries).Error
	return entries, err
}

func (s *QueueEntryStore) All(specializationID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.
		Where("specialization_id = ?", specializationID).
		Order("priority DESC, joined_at ASC").
		Find(&entries).Error
	return entries, err
}

func (s *QueueEntryStore) ActiveForPatient(patientID, specializationID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.
		Where("patient_id = ? AND specialization_id = ? AND served_at IS NULL AND removed_at IS NULL",
			patientID, specializationID).
		Order("joined_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *QueueEntryStore) ActiveAll() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.
		Where("served_at IS NULL AND removed_at IS NULL").
		Order("specialization_id ASC, priority DESC, joined_at ASC").
		Find(&entries).Error
	return entries, err
}

func (s *QueueEntryStore) AllEntries() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.
		Order("specialization_id ASC, priority DESC, joined_at ASC").
		Find(&entries).Error
	return entries, err
}

// PatientDirectory — справочник пациентов поверх gorm.
type PatientDirectory struct {
	db *gorm.DB
}

func NewPatientDirectory(db *gorm.DB) *PatientDirectory {
	return &PatientDirectory{db: db}
}

func (d *PatientDirectory) Exists(patientID uint) (bool, error) {
	var count int64
	if err := d.db.Model(&models.Patient{}).Where("id = ?", patientID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SpecializationRegistry — реестр отделений поверх gorm.
type SpecializationRegistry struct {
	db *gorm.DB
}

func NewSpecializationRegistry(db *gorm.DB) *SpecializationRegistry {
	return &SpecializationRegistry{db: db}
}

func (r *SpecializationRegistry) Get(specializationID uint) (*queue.Department, error) {
	var spec models.Specialization
	if err := r.db.First(&spec, specializationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &queue.Department{
		MaxCapacity: spec.MaxCapacity,
		IsActive:    spec.IsActive,
	}, nil
}
