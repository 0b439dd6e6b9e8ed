package handlers

import (
	"net/http"
	"strconv"

	"hospital_queue/internal/models"
	"hospital_queue/internal/response"
	"hospital_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

type DoctorRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	Title         string `json:"title"`
	LicenseNumber string `json:"license_number" binding:"required"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	Status        string `json:"status"` // 'Active', 'Inactive', 'On Leave'
}

// CreateDoctorHandler создаёт врача
// @Summary		Создание врача
// @Tags			doctors
// @Accept			json
// @Produce		json
// @Param			doctor	body		DoctorRequest	true	"Данные врача"
// @Security		BearerAuth
// @Success		201	{object}	models.Doctor			"Созданный врач"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR) или лицензия занята (LICENSE_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors [post]
func CreateDoctorHandler(c *gin.Context) {
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var existing models.Doctor
	if err := storage.DB.Where("license_number = ?", req.LicenseNumber).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "LICENSE_EXISTS",
			Message: "Врач с таким номером лицензии уже существует",
		})
		return
	}

	doctor := models.Doctor{
		FullName:      req.FullName,
		Title:         req.Title,
		LicenseNumber: req.LicenseNumber,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		Status:        req.Status,
	}
	if doctor.Status == "" {
		doctor.Status = "Active"
	}

	if err := storage.DB.Create(&doctor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании врача",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

// ListDoctorsHandler возвращает список врачей
// @Summary		Список врачей
// @Description	Возвращает врачей с отделениями; при specialization_id фильтрует по отделению
// @Tags			doctors
// @Produce		json
// @Param			specialization_id	query		string	false	"ID отделения"
// @Success		200	{array}		models.Doctor			"Список врачей"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors [get]
func ListDoctorsHandler(c *gin.Context) {
	query := storage.DB.Preload("Specializations").Order("full_name ASC")
	if raw := c.Query("specialization_id"); raw != "" {
		specID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "INVALID_SPECIALIZATION_ID",
				Message: "Неверный идентификатор отделения",
			})
			return
		}
		query = query.
			Joins("JOIN doctor_specializations ds ON ds.doctor_id = doctors.id").
			Where("ds.specialization_id = ?", specID)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки врачей",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, doctors)
}

// GetDoctorHandler возвращает врача с его отделениями
// @Summary		Получение врача
// @Tags			doctors
// @Produce		json
// @Param			id	path		string	true	"ID врача"
// @Success		200	{object}	models.Doctor			"Врач"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_DOCTOR_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Врач не найден (DOCTOR_NOT_FOUND)"
// @Router			/api/doctors/{id} [get]
func GetDoctorHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_DOCTOR_ID",
			Message: "Неверный идентификатор врача",
		})
		return
	}

	var doctor models.Doctor
	if err := storage.DB.Preload("Specializations").First(&doctor, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}
	c.JSON(http.StatusOK, doctor)
}

// UpdateDoctorHandler обновляет данные врача
// @Summary		Обновление врача
// @Tags			doctors
// @Accept			json
// @Produce		json
// @Param			id		path		string			true	"ID врача"
// @Param			doctor	body		DoctorRequest	true	"Данные врача"
// @Security		BearerAuth
// @Success		200	{object}	models.Doctor			"Обновлённый врач"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_DOCTOR_ID, VALIDATION_ERROR) или лицензия занята (LICENSE_EXISTS)"
// @Failure		404	{object}	response.ErrorResponse	"Врач не найден (DOCTOR_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors/{id} [put]
func UpdateDoctorHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_DOCTOR_ID",
			Message: "Неверный идентификатор врача",
		})
		return
	}

	var doctor models.Doctor
	if err := storage.DB.First(&doctor, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}

	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var existing models.Doctor
	if err := storage.DB.Where("license_number = ? AND id <> ?", req.LicenseNumber, id).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "LICENSE_EXISTS",
			Message: "Врач с таким номером лицензии уже существует",
		})
		return
	}

	doctor.FullName = req.FullName
	doctor.Title = req.Title
	doctor.LicenseNumber = req.LicenseNumber
	doctor.PhoneNumber = req.PhoneNumber
	doctor.Email = req.Email
	if req.Status != "" {
		doctor.Status = req.Status
	}

	if err := storage.DB.Save(&doctor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении врача",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, doctor)
}

// DeleteDoctorHandler удаляет врача
// @Summary		Удаление врача
// @Description	Удаление запрещено, пока у врача есть назначенные приёмы
// @Tags			doctors
// @Produce		json
// @Param			id	path		string	true	"ID врача"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Врач удалён"
// @Failure		400	{object}	response.ErrorResponse		"У врача есть назначенные приёмы (DOCTOR_HAS_APPOINTMENTS) или неверный ID (INVALID_DOCTOR_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Врач не найден (DOCTOR_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors/{id} [delete]
func DeleteDoctorHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_DOCTOR_ID",
			Message: "Неверный идентификатор врача",
		})
		return
	}

	var doctor models.Doctor
	if err := storage.DB.First(&doctor, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}

	var apptCount int64
	storage.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND status IN ?", id, []string{"Scheduled", "Confirmed"}).
		Count(&apptCount)
	if apptCount > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "DOCTOR_HAS_APPOINTMENTS",
			Message: "У врача есть назначенные приёмы, сначала отмените или завершите их",
		})
		return
	}

	if err := storage.DB.Model(&doctor).Association("Specializations").Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при откреплении врача от отделений",
			Details: err.Error(),
		})
		return
	}
	if err := storage.DB.Delete(&doctor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении врача",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Врач удалён"})
}

// AssignSpecializationHandler прикрепляет врача к отделению
// @Summary		Прикрепление врача к отделению
// @Tags			doctors
// @Produce		json
// @Param			id		path		string	true	"ID врача"
// @Param			spec_id	path		string	true	"ID отделения"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Врач прикреплён"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_DOCTOR_ID, INVALID_SPECIALIZATION_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Врач или отделение не найдены (DOCTOR_NOT_FOUND, SPECIALIZATION_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors/{id}/specializations/{spec_id} [post]
func AssignSpecializationHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_DOCTOR_ID",
			Message: "Неверный идентификатор врача",
		})
		return
	}
	specID, err := strconv.Atoi(c.Param("spec_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var doctor models.Doctor
	if err := storage.DB.First(&doctor, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}
	var spec models.Specialization
	if err := storage.DB.First(&spec, specID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}

	if err := storage.DB.Model(&doctor).Association("Specializations").Append(&spec); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при прикреплении врача к отделению",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Врач прикреплён к отделению"})
}

// RemoveSpecializationHandler открепляет врача от отделения
// @Summary		Открепление врача от отделения
// @Tags			doctors
// @Produce		json
// @Param			id		path		string	true	"ID врача"
// @Param			spec_id	path		string	true	"ID отделения"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Врач откреплён"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_DOCTOR_ID, INVALID_SPECIALIZATION_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Врач или отделение не найдены (DOCTOR_NOT_FOUND, SPECIALIZATION_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/doctors/{id}/specializations/{spec_id} [delete]
func RemoveSpecializationHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_DOCTOR_ID",
			Message: "Неверный идентификатор врача",
		})
		return
	}
	specID, err := strconv.Atoi(c.Param("spec_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SPECIALIZATION_ID",
			Message: "Неверный идентификатор отделения",
		})
		return
	}

	var doctor models.Doctor
	if err := storage.DB.First(&doctor, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "DOCTOR_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}
	var spec models.Specialization
	if err := storage.DB.First(&spec, specID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SPECIALIZATION_NOT_FOUND",
			Message: "Отделение не найдено",
		})
		return
	}

	if err := storage.DB.Model(&doctor).Association("Specializations").Delete(&spec); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при откреплении врача от отделения",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Врач откреплён от отделения"})
}
