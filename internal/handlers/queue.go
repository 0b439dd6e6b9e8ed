package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/queue"
	"hospital_queue/internal/response"
	"hospital_queue/internal/storage"
	"hospital_queue/internal/ws"

	"github.com/gin-gonic/gin"
)

// Engine — движок живой очереди. Инициализируется в main после подключения БД.
var Engine *queue.Engine

// InitQueueEngine собирает движок очереди поверх gorm-хранилища.
func InitQueueEngine() {
	Engine = queue.NewEngine(
		storage.NewQueueEntryStore(storage.DB),
		storage.NewPatientDirectory(storage.DB),
		storage.NewSpecializationRegistry(storage.DB),
	)
}

// QueueEntryView — представление записи очереди в ответах API.
type QueueEntryView struct {
	EntryID          uint       `json:"entry_id"`
	PatientID        uint       `json:"patient_id"`
	SpecializationID uint       `json:"specialization_id"`
	Priority         int        `json:"priority"`
	PriorityText     string     `json:"priority_text"`
	Position         int        `json:"position"`
	JoinedAt         time.Time  `json:"joined_at"`
	ServedAt         *time.Time `json:"served_at,omitempty"`
	RemovedAt        *time.Time `json:"removed_at,omitempty"`
	RemovalReason    *string    `json:"removal_reason,omitempty"`
	EstimatedWait    int        `json:"estimated_wait_minutes"`
}

func entryView(e *models.QueueEntry) QueueEntryView {
	return QueueEntryView{
		EntryID:          e.ID,
		PatientID:        e.PatientID,
		SpecializationID: e.SpecializationID,
		Priority:         e.Priority,
		PriorityText:     queue.Priority(e.Priority).String(),
		Position:         e.Position,
		JoinedAt:         e.JoinedAt,
		ServedAt:         e.ServedAt,
		RemovedAt:        e.RemovedAt,
		RemovalReason:    e.RemovalReason,
		EstimatedWait:    e.EstimatedWait,
	}
}

func entryViews(entries []models.QueueEntry) []QueueEntryView {
	views := make([]QueueEntryView, 0, len(entries))
	for i := range entries {
		views = append(views, entryView(&entries[i]))
	}
	return views
}

// queueError преобразует бизнес-ошибки движка в ответ с кодом.
func queueError(c *gin.Context, err error) {
	var dup *queue.DuplicateEntryError
	var full *queue.CapacityError
	switch {
	case errors.Is(err, queue.ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
	case errors.Is(err, queue.ErrSpecializationNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, queue.ErrSpecializationInactive):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "SPECIALIZATION_INACTIVE",
			Message: err.Error(),
		})
	case errors.Is(err, queue.ErrPatientNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, queue.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ENTRY_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, queue.ErrEntryNotActive):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "ENTRY_NOT_ACTIVE",
			Message: err.Error(),
		})
	case errors.As(err, &dup):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALREADY_IN_QUEUE",
			Message: dup.Error(),
		})
	case errors.As(err, &full):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "QUEUE_FULL",
			Message: full.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при работе с очередью",
			Details: err.Error(),
		})
	}
}

type JoinQueueRequest struct {
	PatientID uint `json:"patient_id" binding:"required"`
	Priority  int  `json:"priority"` // 0=обычный, 1=срочный, 2=экстренный
}

// JoinQueueHandler обрабатывает постановку пациента в очередь отделения
// @Summary		Постановка пациента в очередь
// @Description	Ставит пациента в живую очередь отделения с указанным приоритетом и уведомляет подписчиков отделения
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID отделения"
// @Param			entry	body		JoinQueueRequest	true	"Пациент и приоритет"
// @Security		BearerAuth
// @Success		200	{object}	QueueEntryView			"Созданная запись очереди с позицией и оценкой ожидания"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_SPECIALIZATION_ID, VALIDATION_ERROR, ALREADY_IN_QUEUE, QUEUE_FULL, SPECIALIZATION_INACTIVE)"
// @Failure		404	{object}	response.ErrorResponse	"Отделение или пациент не найдены (SPECIALIZATION_NOT_FOUND, PATIENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/join [post]
func JoinQueueHandler(c *gin.Context) {
	specIDStr := c.Param("id")
	specID, err := strconv.Atoi(specIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	entry, err := Engine.Join(uint(specID), req.PatientID, queue.Priority(req.Priority))
	if err != nil {
		queueError(c, err)
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:        "patient_joined",
		SpecializationID: specIDStr,
		Data: map[string]interface{}{
			"entry_id":               entry.ID,
			"patient_id":             entry.PatientID,
			"position":               entry.Position,
			"priority":               entry.Priority,
			"estimated_wait_minutes": entry.EstimatedWait,
		},
	})

	c.JSON(http.StatusOK, entryView(entry))
}

// GetQueueHandler возвращает очередь отделения
// @Summary		Получение очереди отделения
// @Description	Возвращает записи очереди отделения: активные по приоритету и времени постановки, затем (при active_only=false) обслуженные и снятые
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id			path		string	true	"ID отделения"
// @Param			active_only	query		bool	false	"Только активные записи (по умолчанию true)"
// @Success		200	{array}		QueueEntryView			"Упорядоченный список записей"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_SPECIALIZATION_ID, VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id} [get]
func GetQueueHandler(c *gin.Context) {
	specID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверное значение active_only, ожидается true или false",
			})
			return
		}
		activeOnly = parsed
	}

	entries, err := Engine.Queue(uint(specID), activeOnly)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryViews(entries))
}

// GetAllQueuesHandler возвращает очереди всех отделений
// @Summary		Получение очередей всех отделений
// @Description	Возвращает карту specialization_id -> упорядоченный список записей
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			active_only	query		bool	false	"Только активные записи (по умолчанию true)"
// @Success		200	{object}	map[string][]QueueEntryView	"Очереди по отделениям"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues [get]
func GetAllQueuesHandler(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверное значение active_only, ожидается true или false",
			})
			return
		}
		activeOnly = parsed
	}

	queues, err := Engine.AllQueues(activeOnly)
	if err != nil {
		queueError(c, err)
		return
	}

	result := make(map[string][]QueueEntryView, len(queues))
	for specID, entries := range queues {
		result[strconv.FormatUint(uint64(specID), 10)] = entryViews(entries)
	}
	c.JSON(http.StatusOK, result)
}

// ServeEntryHandler помечает запись очереди обслуженной
// @Summary		Обслуживание записи очереди
// @Description	Помечает запись обслуженной, выводит её из активной очереди и уведомляет подписчиков отделения
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID записи очереди"
// @Security		BearerAuth
// @Success		200	{object}	QueueEntryView			"Обслуженная запись"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ENTRY_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись уже обслужена или снята (ENTRY_NOT_ACTIVE)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/entries/{id}/serve [post]
func ServeEntryHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи очереди",
		})
		return
	}

	entry, err := Engine.Serve(uint(entryID))
	if err != nil {
		queueError(c, err)
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:        "patient_served",
		SpecializationID: strconv.FormatUint(uint64(entry.SpecializationID), 10),
		Data: map[string]interface{}{
			"entry_id":   entry.ID,
			"patient_id": entry.PatientID,
		},
	})

	c.JSON(http.StatusOK, entryView(entry))
}

// ServeNextHandler вызывает на приём голову очереди отделения
// @Summary		Вызов следующего пациента
// @Description	Обслуживает запись с наивысшим приоритетом и самым ранним временем постановки; пустая очередь — не ошибка
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID отделения"
// @Security		BearerAuth
// @Success		200	{object}	QueueEntryView				"Вызванная запись (или сообщение о пустой очереди)"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_SPECIALIZATION_ID)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/serve-next [post]
func ServeNextHandler(c *gin.Context) {
	specIDStr := c.Param("id")
	specID, err := strconv.Atoi(specIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	entry, err := Engine.ServeNext(uint(specID))
	if err != nil {
		queueError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Очередь пуста"})
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:        "patient_called",
		SpecializationID: specIDStr,
		Data: map[string]interface{}{
			"entry_id":   entry.ID,
			"patient_id": entry.PatientID,
		},
	})

	c.JSON(http.StatusOK, entryView(entry))
}

type RemoveEntryRequest struct {
	Reason string `json:"reason"` // Необязательная причина снятия
}

// RemoveEntryHandler снимает запись с очереди без обслуживания
// @Summary		Снятие записи с очереди
// @Description	Снимает активную запись с очереди с необязательной причиной и уведомляет подписчиков отделения
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID записи очереди"
// @Param			body	body		RemoveEntryRequest	false	"Причина снятия"
// @Security		BearerAuth
// @Success		200	{object}	QueueEntryView			"Снятая запись"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ENTRY_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись уже обслужена или снята (ENTRY_NOT_ACTIVE)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/entries/{id}/remove [post]
func RemoveEntryHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи очереди",
		})
		return
	}

	var req RemoveEntryRequest
	_ = c.ShouldBindJSON(&req) // тело опционально

	entry, err := Engine.Remove(uint(entryID), req.Reason)
	if err != nil {
		queueError(c, err)
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:        "patient_removed",
		SpecializationID: strconv.FormatUint(uint64(entry.SpecializationID), 10),
		Data: map[string]interface{}{
			"entry_id":   entry.ID,
			"patient_id": entry.PatientID,
			"reason":     req.Reason,
		},
	})

	c.JSON(http.StatusOK, entryView(entry))
}

type ReprioritizeRequest struct {
	Priority int `json:"priority"` // Новый приоритет: 0, 1 или 2
}

// ReprioritizeHandler меняет приоритет активной записи
// @Summary		Смена приоритета записи
// @Description	Меняет приоритет активной записи в пределах трёх уровней ожидания; оценка ожидания не пересчитывается
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID записи очереди"
// @Param			body	body		ReprioritizeRequest	true	"Новый приоритет"
// @Security		BearerAuth
// @Success		200	{object}	QueueEntryView			"Запись с новым приоритетом и позицией"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ENTRY_ID, VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись уже обслужена или снята (ENTRY_NOT_ACTIVE)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/entries/{id}/priority [put]
func ReprioritizeHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи очереди",
		})
		return
	}

	var req ReprioritizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	entry, err := Engine.Reprioritize(uint(entryID), queue.Priority(req.Priority))
	if err != nil {
		queueError(c, err)
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:        "priority_changed",
		SpecializationID: strconv.FormatUint(uint64(entry.SpecializationID), 10),
		Data: map[string]interface{}{
			"entry_id":   entry.ID,
			"patient_id": entry.PatientID,
			"priority":   entry.Priority,
			"position":   entry.Position,
		},
	})

	c.JSON(http.StatusOK, entryView(entry))
}

// GetQueueStatisticsHandler возвращает сводку по очередям
// @Summary		Статистика очередей
// @Description	Сводка по отделению или по всем отделениям с необязательным окном по времени постановки (RFC3339)
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			specialization_id	query		string	false	"ID отделения"
// @Param			from				query		string	false	"Начало окна (RFC3339)"
// @Param			to					query		string	false	"Конец окна (RFC3339)"
// @Success		200	{object}	queue.Statistics		"Сводка"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/statistics [get]
func GetQueueStatisticsHandler(c *gin.Context) {
	var specID *uint
	if raw := c.Query("specialization_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный идентификатор отделения",
			})
			return
		}
		v := uint(id)
		specID = &v
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат параметра from, ожидается RFC3339",
			})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат параметра to, ожидается RFC3339",
			})
			return
		}
		to = &t
	}

	stats, err := Engine.Statistics(specID, from, to)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
