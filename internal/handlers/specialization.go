package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/response"
	"hospital_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

var ctx = context.Background()

// Ключ кэша списка активных отделений в Redis.
const specializationsCacheKey = "specializations_active"

type SpecializationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxCapacity int    `json:"max_capacity"`
	IsActive    *bool  `json:"is_active"`
}

// invalidateSpecializationsCache сбрасывает кэш списка отделений после мутации.
func invalidateSpecializationsCache() {
	if storage.RedisClient != nil {
		storage.RedisClient.Del(ctx, specializationsCacheKey)
	}
}

// CreateSpecializationHandler создаёт отделение
// @Summary		Создание отделения
// @Description	Создаёт отделение с лимитом очереди (по умолчанию 10)
// @Tags			specializations
// @Accept			json
// @Produce		json
// @Param			specialization	body		SpecializationRequest	true	"Данные отделения"
// @Security		BearerAuth
// @Success		201	{object}	models.Specialization	"Созданное отделение"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, NAME_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/specializations [post]
func CreateSpecializationHandler(c *gin.Context) {
	var req SpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var existing models.Specialization
	if err := storage.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NAME_EXISTS",
			Message: "Отделение с таким названием уже существует",
		})
		return
	}

	spec := models.Specialization{
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
		IsActive:    true,
	}
	if spec.MaxCapacity <= 0 {
		spec.MaxCapacity = 10
	}
	if req.IsActive != nil {
		spec.IsActive = *req.IsActive
	}

	if err := storage.DB.Create(&spec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании отделения",
			Details: err.Error(),
		})
		return
	}

	invalidateSpecializationsCache()
	c.JSON(http.StatusCreated, spec)
}

// ListSpecializationsHandler возвращает список отделений
// @Summary		Список отделений
// @Description	Список активных отделений кэшируется в Redis; active_only=false обходит кэш и возвращает все
// @Tags			specializations
// @Produce		json
// @Param			active_only	query		bool	false	"Только активные отделения (по умолчанию true)"
// @Success		200	{array}		models.Specialization	"Список отделений"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/specializations [get]
func ListSpecializationsHandler(c *gin.Context) {
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

	// Проверка кэша — только для списка активных отделений.
	if activeOnly && storage.RedisClient != nil {
		cached, err := storage.RedisClient.Get(ctx, specializationsCacheKey).Result()
		if err == nil && cached != "" {
			var specs []models.Specialization
			if err := json.Unmarshal([]byte(cached), &specs); err == nil {
				c.JSON(http.StatusOK, specs)
				return
			}
		}
	}

	query := storage.DB.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var specs []models.Specialization
	if err := query.Find(&specs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки отделений",
			Details: err.Error(),
		})
		return
	}

	if activeOnly && storage.RedisClient != nil {
		if payload, err := json.Marshal(specs); err == nil {
			storage.RedisClient.Set(ctx, specializationsCacheKey, string(payload), time.Hour)
		}
	}
	c.JSON(http.StatusOK, specs)
}

// GetSpecializationHandler возвращает отделение
// @Summary		Получение отделения
// @Tags			specializations
// @Produce		json
// @Param			id	path		string	true	"ID отделения"
// @Success		200	{object}	models.Specialization	"Отделение"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_SPECIALIZATION_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Отделение не найдено (SPECIALIZATION_NOT_FOUND)"
// @Router			/api/specializations/{id} [get]
func GetSpecializationHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var spec models.Specialization
	if err := storage.DB.First(&spec, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}
	c.JSON(http.StatusOK, spec)
}

// UpdateSpecializationHandler обновляет отделение
// @Summary		Обновление отделения
// @Description	Меняет название, описание, лимит очереди и флаг активности
// @Tags			specializations
// @Accept			json
// @Produce		json
// @Param			id				path		string					true	"ID отделения"
// @Param			specialization	body		SpecializationRequest	true	"Данные отделения"
// @Security		BearerAuth
// @Success		200	{object}	models.Specialization	"Обновлённое отделение"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_SPECIALIZATION_ID, VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Отделение не найдено (SPECIALIZATION_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/specializations/{id} [put]
func UpdateSpecializationHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var spec models.Specialization
	if err := storage.DB.First(&spec, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}

	var req SpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	spec.Name = req.Name
	spec.Description = req.Description
	if req.MaxCapacity > 0 {
		spec.MaxCapacity = req.MaxCapacity
	}
	if req.IsActive != nil {
		spec.IsActive = *req.IsActive
	}

	if err := storage.DB.Save(&spec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении отделения",
			Details: err.Error(),
		})
		return
	}

	invalidateSpecializationsCache()
	c.JSON(http.StatusOK, spec)
}

// DeleteSpecializationHandler удаляет отделение
// @Summary		Удаление отделения
// @Description	Удаление запрещено, пока в очереди отделения есть активные записи
// @Tags			specializations
// @Produce		json
// @Param			id	path		string	true	"ID отделения"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Отделение удалено"
// @Failure		400	{object}	response.ErrorResponse		"Очередь не пуста (QUEUE_NOT_EMPTY) или неверный ID (INVALID_SPECIALIZATION_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Отделение не найдено (SPECIALIZATION_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/specializations/{id} [delete]
func DeleteSpecializationHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var spec models.Specialization
	if err := storage.DB.First(&spec, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}

	var activeCount int64
	storage.DB.Model(&models.QueueEntry{}).
		Where("specialization_id = ? AND served_at IS NULL AND removed_at IS NULL", id).
		Count(&activeCount)
	if activeCount > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "QUEUE_NOT_EMPTY",
			Message: "В очереди отделения есть активные записи, сначала обслужите или снимите их",
		})
		return
	}

	if err := storage.DB.Delete(&spec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении отделения",
			Details: err.Error(),
		})
		return
	}

	invalidateSpecializationsCache()
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Отделение удалено"})
}
