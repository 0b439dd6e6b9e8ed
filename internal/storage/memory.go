package storage

import (
	"sort"
	"sync"

	"hospital_queue/internal/models"
	"hospital_queue/internal/queue"
)

// MemoryQueueStore — реализация queue.EntryStore в памяти. Используется в
// тестах движка и пригодна для работы без БД: движку всё равно, что за
// хранилище стоит за интерфейсом.
type MemoryQueueStore struct {
	mu      sync.Mutex
	nextID  uint
	entries map[uint]models.QueueEntry
}

func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{
		nextID:  1,
		entries: make(map[uint]models.QueueEntry),
	}
}

func (s *MemoryQueueStore) Insert(entry *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryQueueStore) Update(entry *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryQueueStore) ByID(entryID uint) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryQueueStore) Active(specializationID uint) ([]models.QueueEntry, error) {
	return s.collect(func(e *models.QueueEntry) bool {
		return e.SpecializationID == specializationID && e.IsActiveEntry()
	}), nil
}

func (s *MemoryQueueStore) All(specializationID uint) ([]models.QueueEntry, error) {
	return s.collect(func(e *models.QueueEntry) bool {
		return e.SpecializationID == specializationID
	}), nil
}

func (s *MemoryQueueStore) ActiveForPatient(patientID, specializationID uint) (*models.QueueEntry, error) {
	matches := s.collect(func(e *models.QueueEntry) bool {
		return e.PatientID == patientID && e.SpecializationID == specializationID && e.IsActiveEntry()
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (s *MemoryQueueStore) ActiveAll() ([]models.QueueEntry, error) {
	return s.collect(func(e *models.QueueEntry) bool {
		return e.IsActiveEntry()
	}), nil
}

func (s *MemoryQueueStore) AllEntries() ([]models.QueueEntry, error) {
	return s.collect(func(e *models.QueueEntry) bool {
		return true
	}), nil
}

// collect возвращает копии записей по предикату в порядке создания.
func (s *MemoryQueueStore) collect(match func(*models.QueueEntry) bool) []models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.QueueEntry
	for _, entry := range s.entries {
		if match(&entry) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// StaticPatientDirectory — справочник пациентов по фиксированному набору ID.
type StaticPatientDirectory struct {
	IDs map[uint]bool
}

func (d *StaticPatientDirectory) Exists(patientID uint) (bool, error) {
	return d.IDs[patientID], nil
}

// StaticSpecializationRegistry — реестр отделений по фиксированной карте.
type StaticSpecializationRegistry struct {
	Departments map[uint]queue.Department
}

func (r *StaticSpecializationRegistry) Get(specializationID uint) (*queue.Department, error) {
	dept, ok := r.Departments[specializationID]
	if !ok {
		return nil, nil
	}
	return &dept, nil
}
