package queue

import (
	"sort"
	"sync"
	"time"

	"hospital_queue/internal/models"
)

// AverageServiceMinutes — среднее время приёма одного пациента в минутах,
// используется для оценки ожидания при постановке в очередь.
const AverageServiceMinutes = 15

// EntryStore — хранилище записей очереди. Движку безразлично, стоит ли за ним
// реляционная БД или карта в памяти; требуется лишь чтение своих записей в
// пределах одной операции. Отсутствующая запись возвращается как (nil, nil).
type EntryStore interface {
	Insert(entry *models.QueueEntry) error
	Update(entry *models.QueueEntry) error
	ByID(entryID uint) (*models.QueueEntry, error)
	Active(specializationID uint) ([]models.QueueEntry, error)
	All(specializationID uint) ([]models.QueueEntry, error)
	ActiveForPatient(patientID, specializationID uint) (*models.QueueEntry, error)
	ActiveAll() ([]models.QueueEntry, error)
	AllEntries() ([]models.QueueEntry, error)
}

// PatientDirectory — справочник пациентов, движку нужен только факт существования.
type PatientDirectory interface {
	Exists(patientID uint) (bool, error)
}

// Department — параметры отделения, которые нужны движку очереди.
type Department struct {
	MaxCapacity int
	IsActive    bool
}

// SpecializationRegistry — реестр отделений. Отсутствующее отделение — (nil, nil).
type SpecializationRegistry interface {
	Get(specializationID uint) (*Department, error)
}

// Engine — движок живой очереди: приём в очередь, вызов, снятие, смена
// приоритета и пересчёт позиций. Все мутации по одному отделению
// сериализуются мьютексом этого отделения, поэтому проверка лимита и вставка
// атомарны относительно конкурентных вызовов.
type Engine struct {
	store    EntryStore
	patients PatientDirectory
	depts    SpecializationRegistry

	mu    sync.Mutex // защищает карту locks
	locks map[uint]*sync.Mutex
}

// NewEngine создаёт движок очереди поверх хранилища и двух справочников.
func NewEngine(store EntryStore, patients PatientDirectory, depts SpecializationRegistry) *Engine {
	return &Engine{
		store:    store,
		patients: patients,
		depts:    depts,
		locks:    make(map[uint]*sync.Mutex),
	}
}

// lockFor возвращает мьютекс отделения, создавая его при первом обращении.
func (e *Engine) lockFor(specializationID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[specializationID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[specializationID] = l
	}
	return l
}

// Join ставит пациента в очередь отделения с указанным приоритетом.
// Оценка ожидания фиксируется по состоянию очереди на момент постановки
// и в дальнейшем не пересчитывается.
func (e *Engine) Join(specializationID, patientID uint, priority Priority) (*models.QueueEntry, error) {
	if !priority.IsWaiting() {
		return nil, ErrInvalidPriority
	}

	l := e.lockFor(specializationID)
	l.Lock()
	defer l.Unlock()

	dept, err := e.depts.Get(specializationID)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, ErrSpecializationNotFound
	}
	if !dept.IsActive {
		return nil, ErrSpecializationInactive
	}

	exists, err := e.patients.Exists(patientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	existing, err := e.store.ActiveForPatient(patientID, specializationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateEntryError{Position: existing.Position}
	}

	active, err := e.store.Active(specializationID)
	if err != nil {
		return nil, err
	}
	if len(active) >= dept.MaxCapacity {
		return nil, &CapacityError{Capacity: dept.MaxCapacity}
	}

	entry := &models.QueueEntry{
		PatientID:        patientID,
		SpecializationID: specializationID,
		Priority:         int(priority),
		Position:         len(active) + 1, // уточняется пересчётом ниже
		JoinedAt:         time.Now(),
		EstimatedWait:    estimateWait(active, priority),
	}
	if err := e.store.Insert(entry); err != nil {
		return nil, err
	}

	sorted, err := e.reorderLocked(specializationID)
	if err != nil {
		return nil, err
	}
	for i := range sorted {
		if sorted[i].ID == entry.ID {
			entry.Position = sorted[i].Position
			break
		}
	}
	return entry, nil
}

// Queue возвращает очередь отделения: активные записи по приоритету (убывание)
// и времени постановки (возрастание). На этом же пути чтения позиции
// выравниваются и сохраняются. При activeOnly=false после активных добавляются
// терминальные записи, свежие первыми.
func (e *Engine) Queue(specializationID uint, activeOnly bool) ([]models.QueueEntry, error) {
	l := e.lockFor(specializationID)
	l.Lock()
	defer l.Unlock()

	active, err := e.reorderLocked(specializationID)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		return active, nil
	}

	all, err := e.store.All(specializationID)
	if err != nil {
		return nil, err
	}
	return append(active, terminalByRecency(all)...), nil
}

// AllQueues собирает очереди всех отделений. Срезы по отделениям формируются
// независимо, без общей блокировки и без сохранения позиций.
func (e *Engine) AllQueues(activeOnly bool) (map[uint][]models.QueueEntry, error) {
	var entries []models.QueueEntry
	var err error
	if activeOnly {
		entries, err = e.store.ActiveAll()
	} else {
		entries, err = e.store.AllEntries()
	}
	if err != nil {
		return nil, err
	}

	queues := make(map[uint][]models.QueueEntry)
	for _, entry := range entries {
		queues[entry.SpecializationID] = append(queues[entry.SpecializationID], entry)
	}
	for id, group := range queues {
		active := make([]models.QueueEntry, 0, len(group))
		var terminal []models.QueueEntry
		for _, entry := range group {
			if entry.IsActiveEntry() {
				active = append(active, entry)
			} else {
				terminal = append(terminal, entry)
			}
		}
		sortWaiting(active)
		queues[id] = append(active, terminalByRecency(terminal)...)
	}
	return queues, nil
}

// Serve помечает запись обслуженной и выводит её из активной очереди.
func (e *Engine) Serve(entryID uint) (*models.QueueEntry, error) {
	entry, err := e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	l := e.lockFor(entry.SpecializationID)
	l.Lock()
	defer l.Unlock()

	// Перечитываем под блокировкой: запись могли успеть обслужить или снять.
	entry, err = e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if !entry.IsActiveEntry() {
		return nil, ErrEntryNotActive
	}
	if err := e.markServedLocked(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ServeNext вызывает на приём голову очереди отделения: самый высокий
// приоритет, при равенстве — самое раннее время постановки. Пустая очередь —
// не ошибка, возвращается (nil, nil).
func (e *Engine) ServeNext(specializationID uint) (*models.QueueEntry, error) {
	l := e.lockFor(specializationID)
	l.Lock()
	defer l.Unlock()

	sorted, err := e.reorderLocked(specializationID)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, nil
	}
	next := sorted[0]
	if err := e.markServedLocked(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Remove снимает запись с очереди без обслуживания. Причина опциональна.
func (e *Engine) Remove(entryID uint, reason string) (*models.QueueEntry, error) {
	entry, err := e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	l := e.lockFor(entry.SpecializationID)
	l.Lock()
	defer l.Unlock()

	entry, err = e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if !entry.IsActiveEntry() {
		return nil, ErrEntryNotActive
	}

	now := time.Now()
	entry.RemovedAt = &now
	if reason != "" {
		entry.RemovalReason = &reason
	}
	if err := e.store.Update(entry); err != nil {
		return nil, err
	}
	if _, err := e.reorderLocked(entry.SpecializationID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reprioritize меняет приоритет активной записи в пределах трёх уровней
// ожидания и пересчитывает позиции. Оценка ожидания не пересчитывается.
func (e *Engine) Reprioritize(entryID uint, newPriority Priority) (*models.QueueEntry, error) {
	if !newPriority.IsWaiting() {
		return nil, ErrInvalidPriority
	}

	entry, err := e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	l := e.lockFor(entry.SpecializationID)
	l.Lock()
	defer l.Unlock()

	entry, err = e.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if !entry.IsActiveEntry() {
		return nil, ErrEntryNotActive
	}

	entry.Priority = int(newPriority)
	if err := e.store.Update(entry); err != nil {
		return nil, err
	}
	sorted, err := e.reorderLocked(entry.SpecializationID)
	if err != nil {
		return nil, err
	}
	for i := range sorted {
		if sorted[i].ID == entry.ID {
			entry.Position = sorted[i].Position
			break
		}
	}
	return entry, nil
}

// markServedLocked переводит запись в терминальное состояние "обслужен" и
// пересчитывает позиции оставшихся. Вызывается под блокировкой отделения.
func (e *Engine) markServedLocked(entry *models.QueueEntry) error {
	now := time.Now()
	entry.Priority = int(PriorityServed)
	entry.ServedAt = &now
	if err := e.store.Update(entry); err != nil {
		return err
	}
	_, err := e.reorderLocked(entry.SpecializationID)
	return err
}

// reorderLocked пересортировывает активные записи отделения и присваивает
// позиции 1..N. Всегда полный пересчёт: очередь ограничена max_capacity,
// инкрементальная структура здесь не нужна.
func (e *Engine) reorderLocked(specializationID uint) ([]models.QueueEntry, error) {
	active, err := e.store.Active(specializationID)
	if err != nil {
		return nil, err
	}
	sortWaiting(active)
	for i := range active {
		if active[i].Position != i+1 {
			active[i].Position = i + 1
			if err := e.store.Update(&active[i]); err != nil {
				return nil, err
			}
		}
	}
	return active, nil
}

// sortWaiting сортирует активные записи: приоритет по убыванию, время
// постановки по возрастанию, при полном совпадении — порядок создания.
func sortWaiting(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// terminalByRecency отбирает терминальные записи и сортирует их по убыванию
// времени обслуживания/снятия.
func terminalByRecency(entries []models.QueueEntry) []models.QueueEntry {
	var terminal []models.QueueEntry
	for _, entry := range entries {
		if !entry.IsActiveEntry() {
			terminal = append(terminal, entry)
		}
	}
	sort.SliceStable(terminal, func(i, j int) bool {
		return terminalTime(&terminal[i]).After(terminalTime(&terminal[j]))
	})
	return terminal
}

func terminalTime(entry *models.QueueEntry) time.Time {
	if entry.ServedAt != nil {
		return *entry.ServedAt
	}
	if entry.RemovedAt != nil {
		return *entry.RemovedAt
	}
	return entry.JoinedAt
}

// estimateWait считает оценку ожидания для новой записи: число пациентов
// строго впереди неё (выше приоритет, либо тот же — они встали раньше),
// умноженное на среднее время приёма и коэффициент срочности.
func estimateWait(active []models.QueueEntry, priority Priority) int {
	ahead := 0
	for _, entry := range active {
		if Priority(entry.Priority) >= priority {
			ahead++
		}
	}
	estimated := int(float64(ahead) * AverageServiceMinutes * priority.Multiplier())
	if estimated < 0 {
		estimated = 0
	}
	return estimated
}
