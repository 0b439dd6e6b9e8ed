package handlers

import (
	"net/http"
	"strconv"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/response"
	"hospital_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

type AppointmentRequest struct {
	PatientID        uint   `json:"patient_id" binding:"required"`
	DoctorID         uint   `json:"doctor_id" binding:"required"`
	SpecializationID uint   `json:"specialization_id" binding:"required"`
	StartsAt         string `json:"starts_at" binding:"required"` // RFC3339
	Duration         int    `json:"duration"`                     // минуты, по умолчанию 30
	Type             string `json:"type"`                         // 'Regular', 'Follow-up', 'Emergency'
	Reason           string `json:"reason"`
	Notes            string `json:"notes"`
}

// hasAppointmentConflict проверяет пересечение нового приёма с уже
// назначенными приёмами врача.
func hasAppointmentConflict(doctorID uint, startsAt time.Time, duration int, excludeID uint) (bool, error) {
	endsAt := startsAt.Add(time.Duration(duration) * time.Minute)

	var appointments []models.Appointment
	err := storage.DB.
		Where("doctor_id = ? AND status IN ? AND id <> ?",
			doctorID, []string{"Scheduled", "Confirmed"}, excludeID).
		Find(&appointments).Error
	if err != nil {
		return false, err
	}

	for _, appt := range appointments {
		apptEnd := appt.StartsAt.Add(time.Duration(appt.Duration) * time.Minute)
		if startsAt.Before(apptEnd) && appt.StartsAt.Before(endsAt) {
			return true, nil
		}
	}
	return false, nil
}

// CreateAppointmentHandler создаёт запись на приём
// @Summary		Создание записи на приём
// @Description	Создаёт плановую запись с проверкой пересечений по врачу
// @Tags			appointments
// @Accept			json
// @Produce		json
// @Param			appointment	body		AppointmentRequest	true	"Данные записи"
// @Security		BearerAuth
// @Success		201	{object}	models.Appointment		"Созданная запись"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Пациент, врач или отделение не найдены"
// @Failure		409	{object}	response.ErrorResponse	"Пересечение по времени у врача (APPOINTMENT_CONFLICT)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/appointments [post]
func CreateAppointmentHandler(c *gin.Context) {
	var req AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат starts_at, ожидается RFC3339",
		})
		return
	}

	if err := storage.DB.First(&models.Patient{}, req.PatientID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}
	if err := storage.DB.First(&models.Doctor{}, req.DoctorID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}
	if err := storage.DB.First(&models.Specialization{}, req.SpecializationID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}

	duration := req.Duration
	if duration <= 0 {
		duration = 30
	}

	conflict, err := hasAppointmentConflict(req.DoctorID, startsAt, duration, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка проверки пересечений",
			Details: err.Error(),
		})
		return
	}
	if conflict {
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "APPOINTMENT_CONFLICT",
			Message: "У врача уже назначен приём на это время",
		})
		return
	}

	appt := models.Appointment{
		PatientID:        req.PatientID,
		DoctorID:         req.DoctorID,
		SpecializationID: req.SpecializationID,
		StartsAt:         startsAt,
		Duration:         duration,
		Type:             req.Type,
		Reason:           req.Reason,
		Notes:            req.Notes,
		Status:           "Scheduled",
	}
	if appt.Type == "" {
		appt.Type = "Regular"
	}

	if err := storage.DB.Create(&appt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании записи на приём",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// ListAppointmentsHandler возвращает записи на приём с фильтрами
// @Summary		Список записей на приём
// @Tags			appointments
// @Produce		json
// @Param			doctor_id	query		string	false	"ID врача"
// @Param			patient_id	query		string	false	"ID пациента"
// @Param			status		query		string	false	"Статус записи"
// @Param			date		query		string	false	"Дата (2006-01-02)"
// @Success		200	{array}		models.Appointment		"Список записей"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/appointments [get]
func ListAppointmentsHandler(c *gin.Context) {
	query := storage.DB.Preload("Patient").Preload("Doctor").Order("starts_at ASC")

	if raw := c.Query("doctor_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			query = query.Where("doctor_id = ?", id)
		}
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			query = query.Where("patient_id = ?", id)
		}
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err == nil {
			query = query.Where("starts_at >= ? AND starts_at < ?", day, day.AddDate(0, 0, 1))
		}
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки записей на приём",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, appointments)
}

type UpdateAppointmentRequest struct {
	StartsAt string `json:"starts_at" binding:"required"` // RFC3339
	Duration int    `json:"duration"`                     // минуты, 0 — оставить прежнюю
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

// UpdateAppointmentHandler переносит запись на приём
// @Summary		Перенос записи на приём
// @Description	Переносит плановую запись на другое время с повторной проверкой пересечений по врачу (сама запись из проверки исключается)
// @Tags			appointments
// @Accept			json
// @Produce		json
// @Param			id			path		string						true	"ID записи"
// @Param			appointment	body		UpdateAppointmentRequest	true	"Новое время и данные записи"
// @Security		BearerAuth
// @Success		200	{object}	models.Appointment		"Перенесённая запись"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_APPOINTMENT_ID, VALIDATION_ERROR) или запись завершена/отменена (APPOINTMENT_NOT_EDITABLE)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (APPOINTMENT_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Пересечение по времени у врача (APPOINTMENT_CONFLICT)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/appointments/{id} [put]
func UpdateAppointmentHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_APPOINTMENT_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	var appt models.Appointment
	if err := storage.DB.First(&appt, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_FOUND",
			Message: "Запись на приём не найдена",
		})
		return
	}

	if appt.Status != "Scheduled" && appt.Status != "Confirmed" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_EDITABLE",
			Message: "Перенести можно только назначенную или подтверждённую запись",
		})
		return
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат starts_at, ожидается RFC3339",
		})
		return
	}

	duration := req.Duration
	if duration <= 0 {
		duration = appt.Duration
	}

	conflict, err := hasAppointmentConflict(appt.DoctorID, startsAt, duration, appt.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка проверки пересечений",
			Details: err.Error(),
		})
		return
	}
	if conflict {
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "APPOINTMENT_CONFLICT",
			Message: "У врача уже назначен приём на это время",
		})
		return
	}

	appt.StartsAt = startsAt
	appt.Duration = duration
	if req.Type != "" {
		appt.Type = req.Type
	}
	if req.Reason != "" {
		appt.Reason = req.Reason
	}
	if req.Notes != "" {
		appt.Notes = req.Notes
	}

	if err := storage.DB.Save(&appt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при переносе записи",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, appt)
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointmentHandler отменяет запись на приём
// @Summary		Отмена записи на приём
// @Tags			appointments
// @Accept			json
// @Produce		json
// @Param			id		path		string						true	"ID записи"
// @Param			body	body		CancelAppointmentRequest	false	"Причина отмены"
// @Security		BearerAuth
// @Success		200	{object}	models.Appointment		"Отменённая запись"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_APPOINTMENT_ID) или запись уже завершена/отменена (APPOINTMENT_NOT_CANCELLABLE)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (APPOINTMENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/appointments/{id}/cancel [post]
func CancelAppointmentHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_APPOINTMENT_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	var appt models.Appointment
	if err := storage.DB.First(&appt, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_FOUND",
			Message: "Запись на приём не найдена",
		})
		return
	}

	if appt.Status == "Cancelled" || appt.Status == "Completed" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_CANCELLABLE",
			Message: "Запись уже завершена или отменена",
		})
		return
	}

	var req CancelAppointmentRequest
	_ = c.ShouldBindJSON(&req) // тело опционально

	now := time.Now()
	appt.Status = "Cancelled"
	appt.CancelledAt = &now
	if req.Reason != "" {
		appt.CancellationReason = &req.Reason
	}

	if err := storage.DB.Save(&appt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при отмене записи",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, appt)
}
