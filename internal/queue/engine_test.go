package queue_test

import (
	"errors"
	"testing"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/queue"
	"hospital_queue/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpecID uint = 1

// newTestEngine собирает движок поверх хранилища в памяти: одно отделение с
// заданным лимитом и пациенты с ID от 1 до patients.
func newTestEngine(capacity int, active bool, patients int) (*queue.Engine, *storage.MemoryQueueStore) {
	store := storage.NewMemoryQueueStore()
	ids := make(map[uint]bool, patients)
	for i := 1; i <= patients; i++ {
		ids[uint(i)] = true
	}
	engine := queue.NewEngine(
		store,
		&storage.StaticPatientDirectory{IDs: ids},
		&storage.StaticSpecializationRegistry{Departments: map[uint]queue.Department{
			testSpecID: {MaxCapacity: capacity, IsActive: active},
		}},
	)
	return engine, store
}

func TestJoinOrdersByPriorityThenArrival(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	second, err := engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)
	urgent, err := engine.Join(testSpecID, 3, queue.PriorityUrgent)
	require.NoError(t, err)
	super, err := engine.Join(testSpecID, 4, queue.PrioritySuperUrgent)
	require.NoError(t, err)

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, super.ID, entries[0].ID)
	assert.Equal(t, urgent.ID, entries[1].ID)
	assert.Equal(t, first.ID, entries[2].ID)
	assert.Equal(t, second.ID, entries[3].ID)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Position)
	}
}

func TestJoinEqualPriorityKeepsArrivalOrder(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	var ids []uint
	for p := uint(1); p <= 5; p++ {
		entry, err := engine.Join(testSpecID, p, queue.PriorityUrgent)
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, entry := range entries {
		assert.Equal(t, ids[i], entry.ID)
	}
}

func TestJoinRejectsDuplicateWithPosition(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	_, err := engine.Join(testSpecID, 1, queue.PrioritySuperUrgent)
	require.NoError(t, err)
	_, err = engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)

	_, err = engine.Join(testSpecID, 2, queue.PriorityUrgent)
	var dup *queue.DuplicateEntryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 2, dup.Position)
	assert.Contains(t, dup.Error(), "позиция 2")
}

func TestJoinRejectsWhenFull(t *testing.T) {
	engine, _ := newTestEngine(2, true, 10)

	_, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)

	_, err = engine.Join(testSpecID, 3, queue.PrioritySuperUrgent)
	var full *queue.CapacityError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 2, full.Capacity)

	// Отказ по лимиту не оставляет следов в очереди.
	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestJoinValidation(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	_, err := engine.Join(testSpecID, 1, queue.PriorityServed)
	assert.ErrorIs(t, err, queue.ErrInvalidPriority)

	_, err = engine.Join(testSpecID, 1, queue.Priority(7))
	assert.ErrorIs(t, err, queue.ErrInvalidPriority)

	_, err = engine.Join(testSpecID, 999, queue.PriorityNormal)
	assert.ErrorIs(t, err, queue.ErrPatientNotFound)

	_, err = engine.Join(42, 1, queue.PriorityNormal)
	assert.ErrorIs(t, err, queue.ErrSpecializationNotFound)
}

func TestJoinRejectsInactiveSpecialization(t *testing.T) {
	engine, _ := newTestEngine(10, false, 10)

	_, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	assert.ErrorIs(t, err, queue.ErrSpecializationInactive)
}

func TestEstimatedWaitSnapshot(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PrioritySuperUrgent)
	require.NoError(t, err)
	assert.Equal(t, 0, first.EstimatedWait)

	_, err = engine.Join(testSpecID, 2, queue.PrioritySuperUrgent)
	require.NoError(t, err)

	// Впереди обычного — оба экстренных: 2 * 15 * 1.0.
	normal, err := engine.Join(testSpecID, 3, queue.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, 30, normal.EstimatedWait)

	// Впереди нового экстренного — только экстренные: 2 * 15 * 0.5.
	super, err := engine.Join(testSpecID, 4, queue.PrioritySuperUrgent)
	require.NoError(t, err)
	assert.Equal(t, 15, super.EstimatedWait)

	// Впереди срочного — два экстренных и он сам уровнем выше обычного:
	// 3 * 15 * 0.7 = 31.5, усечение до 31.
	urgent, err := engine.Join(testSpecID, 5, queue.PriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, 31, urgent.EstimatedWait)

	// Оценка зафиксирована на момент постановки и не пересчитывается.
	_, err = engine.ServeNext(testSpecID)
	require.NoError(t, err)
	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	for _, entry := range entries {
		switch entry.ID {
		case normal.ID:
			assert.Equal(t, 30, entry.EstimatedWait)
		case urgent.ID:
			assert.Equal(t, 31, entry.EstimatedWait)
		}
	}
}

func TestServeNextOrder(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	normal, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	urgentFirst, err := engine.Join(testSpecID, 2, queue.PriorityUrgent)
	require.NoError(t, err)
	urgentSecond, err := engine.Join(testSpecID, 3, queue.PriorityUrgent)
	require.NoError(t, err)

	for _, want := range []uint{urgentFirst.ID, urgentSecond.ID, normal.ID} {
		served, err := engine.ServeNext(testSpecID)
		require.NoError(t, err)
		require.NotNil(t, served)
		assert.Equal(t, want, served.ID)
		assert.Equal(t, int(queue.PriorityServed), served.Priority)
		assert.NotNil(t, served.ServedAt)
	}

	// Пустая очередь — не ошибка.
	served, err := engine.ServeNext(testSpecID)
	require.NoError(t, err)
	assert.Nil(t, served)
}

func TestServeClosesRanksAndBlocksTerminal(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	second, err := engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)

	served, err := engine.Serve(first.ID)
	require.NoError(t, err)
	require.NotNil(t, served.ServedAt)

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, 1, entries[0].Position)

	// Терминальная запись неизменяема.
	_, err = engine.Serve(first.ID)
	assert.ErrorIs(t, err, queue.ErrEntryNotActive)
	_, err = engine.Remove(first.ID, "")
	assert.ErrorIs(t, err, queue.ErrEntryNotActive)
	_, err = engine.Reprioritize(first.ID, queue.PriorityUrgent)
	assert.ErrorIs(t, err, queue.ErrEntryNotActive)

	_, err = engine.Serve(9999)
	assert.ErrorIs(t, err, queue.ErrEntryNotFound)
}

func TestRemoveWithReason(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	second, err := engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)

	removed, err := engine.Remove(first.ID, "пациент ушёл")
	require.NoError(t, err)
	require.NotNil(t, removed.RemovedAt)
	require.NotNil(t, removed.RemovalReason)
	assert.Equal(t, "пациент ушёл", *removed.RemovalReason)
	assert.Nil(t, removed.ServedAt)

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, 1, entries[0].Position)

	// Причина опциональна.
	removedSecond, err := engine.Remove(second.ID, "")
	require.NoError(t, err)
	assert.Nil(t, removedSecond.RemovalReason)
}

func TestRemovedPatientCanRejoin(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Remove(first.ID, "")
	require.NoError(t, err)

	again, err := engine.Join(testSpecID, 1, queue.PriorityUrgent)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
	assert.Equal(t, 1, again.Position)
}

func TestReprioritizeReordersWithoutRecalc(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	second, err := engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)
	third, err := engine.Join(testSpecID, 3, queue.PriorityNormal)
	require.NoError(t, err)
	originalEstimate := third.EstimatedWait

	changed, err := engine.Reprioritize(third.ID, queue.PrioritySuperUrgent)
	require.NoError(t, err)
	assert.Equal(t, int(queue.PrioritySuperUrgent), changed.Priority)
	assert.Equal(t, 1, changed.Position)
	assert.Equal(t, originalEstimate, changed.EstimatedWait)

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, second.ID, entries[2].ID)

	_, err = engine.Reprioritize(first.ID, queue.PriorityServed)
	assert.ErrorIs(t, err, queue.ErrInvalidPriority)
	_, err = engine.Reprioritize(9999, queue.PriorityUrgent)
	assert.ErrorIs(t, err, queue.ErrEntryNotFound)
}

func TestQueueIncludesTerminalAfterActive(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	first, err := engine.Join(testSpecID, 1, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Join(testSpecID, 2, queue.PriorityNormal)
	require.NoError(t, err)
	third, err := engine.Join(testSpecID, 3, queue.PriorityNormal)
	require.NoError(t, err)

	_, err = engine.Serve(first.ID)
	require.NoError(t, err)
	_, err = engine.Remove(third.ID, "не дождался")
	require.NoError(t, err)

	activeOnly, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	assert.Len(t, activeOnly, 1)

	all, err := engine.Queue(testSpecID, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].IsActiveEntry())
	// Терминальные идут после активных, свежие первыми.
	assert.Equal(t, third.ID, all[1].ID)
	assert.Equal(t, first.ID, all[2].ID)
}

func TestAllQueuesGroupsBySpecialization(t *testing.T) {
	store := storage.NewMemoryQueueStore()
	engine := queue.NewEngine(
		store,
		&storage.StaticPatientDirectory{IDs: map[uint]bool{1: true, 2: true, 3: true}},
		&storage.StaticSpecializationRegistry{Departments: map[uint]queue.Department{
			1: {MaxCapacity: 10, IsActive: true},
			2: {MaxCapacity: 10, IsActive: true},
		}},
	)

	_, err := engine.Join(1, 1, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Join(1, 2, queue.PrioritySuperUrgent)
	require.NoError(t, err)
	_, err = engine.Join(2, 3, queue.PriorityUrgent)
	require.NoError(t, err)

	queues, err := engine.AllQueues(true)
	require.NoError(t, err)
	require.Len(t, queues, 2)
	require.Len(t, queues[1], 2)
	require.Len(t, queues[2], 1)
	assert.Equal(t, int(queue.PrioritySuperUrgent), queues[1][0].Priority)
}

func TestStatistics(t *testing.T) {
	engine, store := newTestEngine(20, true, 20)

	now := time.Now()
	servedAt := now.Add(-10 * time.Minute)
	joined := servedAt.Add(-20 * time.Minute)
	served := &models.QueueEntry{
		PatientID:        1,
		SpecializationID: testSpecID,
		Priority:         int(queue.PriorityServed),
		JoinedAt:         joined,
		ServedAt:         &servedAt,
	}
	require.NoError(t, store.Insert(served))

	removedAt := now.Add(-5 * time.Minute)
	removed := &models.QueueEntry{
		PatientID:        2,
		SpecializationID: testSpecID,
		Priority:         int(queue.PriorityNormal),
		JoinedAt:         now.Add(-30 * time.Minute),
		RemovedAt:        &removedAt,
	}
	require.NoError(t, store.Insert(removed))

	longWaiting := &models.QueueEntry{
		PatientID:        3,
		SpecializationID: testSpecID,
		Priority:         int(queue.PriorityUrgent),
		JoinedAt:         now.Add(-45 * time.Minute),
	}
	require.NoError(t, store.Insert(longWaiting))

	_, err := engine.Join(testSpecID, 4, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Join(testSpecID, 5, queue.PrioritySuperUrgent)
	require.NoError(t, err)

	spec := testSpecID
	stats, err := engine.Statistics(&spec, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalActive)
	assert.Equal(t, 1, stats.NormalCount)
	assert.Equal(t, 1, stats.UrgentCount)
	assert.Equal(t, 1, stats.SuperUrgentCount)
	// Единственный обслуженный ждал 20 минут.
	assert.Equal(t, 20, stats.AverageWaitTime)
	assert.GreaterOrEqual(t, stats.LongestWaitTime, 44)

	// Окно по времени постановки отфильтровывает давно вставших.
	from := now.Add(-15 * time.Minute)
	windowed, err := engine.Statistics(&spec, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, windowed.TotalActive)
	assert.Equal(t, 0, windowed.UrgentCount)
	// Среднее обслуженных окно не затрагивает.
	assert.Equal(t, 20, windowed.AverageWaitTime)

	// Без фильтра по отделению — по всем очередям.
	global, err := engine.Statistics(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, global.TotalActive)
}

func TestStatisticsEmpty(t *testing.T) {
	engine, _ := newTestEngine(10, true, 10)

	stats, err := engine.Statistics(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalActive)
	assert.Equal(t, 0, stats.AverageWaitTime)
	assert.Equal(t, 0, stats.LongestWaitTime)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	const capacity = 5
	engine, _ := newTestEngine(capacity, true, 20)

	errs := make(chan error, 20)
	for p := uint(1); p <= 20; p++ {
		go func(patientID uint) {
			_, err := engine.Join(testSpecID, patientID, queue.PriorityNormal)
			errs <- err
		}(p)
	}

	var accepted, rejected int
	for i := 0; i < 20; i++ {
		err := <-errs
		if err == nil {
			accepted++
			continue
		}
		var full *queue.CapacityError
		require.True(t, errors.As(err, &full))
		rejected++
	}
	assert.Equal(t, capacity, accepted)
	assert.Equal(t, 15, rejected)

	entries, err := engine.Queue(testSpecID, true)
	require.NoError(t, err)
	assert.Len(t, entries, capacity)
}

func TestPriorityHelpers(t *testing.T) {
	assert.True(t, queue.PriorityNormal.IsWaiting())
	assert.True(t, queue.PrioritySuperUrgent.IsWaiting())
	assert.False(t, queue.PriorityServed.IsWaiting())
	assert.False(t, queue.Priority(-1).IsWaiting())

	assert.Equal(t, 1.0, queue.PriorityNormal.Multiplier())
	assert.Equal(t, 0.7, queue.PriorityUrgent.Multiplier())
	assert.Equal(t, 0.5, queue.PrioritySuperUrgent.Multiplier())

	assert.Equal(t, "Super-Urgent", queue.PrioritySuperUrgent.String())
	assert.Equal(t, "Served", queue.PriorityServed.String())
}
