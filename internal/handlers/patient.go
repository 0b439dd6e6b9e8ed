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

type PatientRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	DateOfBirth      string `json:"date_of_birth"` // формат 2006-01-02
	Gender           string `json:"gender"`
	PhoneNumber      string `json:"phone_number"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	BloodType        string `json:"blood_type"`
	Allergies        string `json:"allergies"`
	MedicalHistory   string `json:"medical_history"`
}

func applyPatientRequest(p *models.Patient, req *PatientRequest) error {
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return err
		}
		p.DateOfBirth = &dob
	}
	p.FullName = req.FullName
	p.Gender = req.Gender
	p.PhoneNumber = req.PhoneNumber
	p.Email = req.Email
	p.Address = req.Address
	p.EmergencyContact = req.EmergencyContact
	p.BloodType = req.BloodType
	p.Allergies = req.Allergies
	p.MedicalHistory = req.MedicalHistory
	return nil
}

// CreatePatientHandler регистрирует нового пациента
// @Summary		Регистрация пациента
// @Description	Создаёт карточку пациента
// @Tags			patients
// @Accept			json
// @Produce		json
// @Param			patient	body		PatientRequest	true	"Данные пациента"
// @Security		BearerAuth
// @Success		201	{object}	models.Patient			"Созданная карточка"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients [post]
func CreatePatientHandler(c *gin.Context) {
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var patient models.Patient
	if err := applyPatientRequest(&patient, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат даты рождения, ожидается 2006-01-02",
		})
		return
	}

	if err := storage.DB.Create(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании пациента",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// GetPatientHandler возвращает карточку пациента
// @Summary		Получение пациента
// @Tags			patients
// @Produce		json
// @Param			id	path		string	true	"ID пациента"
// @Success		200	{object}	models.Patient			"Карточка пациента"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_PATIENT_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Пациент не найден (PATIENT_NOT_FOUND)"
// @Router			/api/patients/{id} [get]
func GetPatientHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	var patient models.Patient
	if err := storage.DB.First(&patient, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}
	c.JSON(http.StatusOK, patient)
}

// ListPatientsHandler возвращает список пациентов с поиском по ФИО
// @Summary		Список пациентов
// @Description	Возвращает пациентов, при search фильтрует по ФИО
// @Tags			patients
// @Produce		json
// @Param			search	query		string	false	"Подстрока ФИО"
// @Success		200	{array}		models.Patient			"Список пациентов"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients [get]
func ListPatientsHandler(c *gin.Context) {
	query := storage.DB.Order("full_name ASC")
	if search := c.Query("search"); search != "" {
		query = query.Where("full_name ILIKE ?", "%"+search+"%")
	}

	var patients []models.Patient
	if err := query.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки пациентов",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, patients)
}

// UpdatePatientHandler обновляет карточку пациента
// @Summary		Обновление пациента
// @Tags			patients
// @Accept			json
// @Produce		json
// @Param			id		path		string			true	"ID пациента"
// @Param			patient	body		PatientRequest	true	"Данные пациента"
// @Security		BearerAuth
// @Success		200	{object}	models.Patient			"Обновлённая карточка"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_PATIENT_ID, VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Пациент не найден (PATIENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients/{id} [put]
func UpdatePatientHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	var patient models.Patient
	if err := storage.DB.First(&patient, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}

	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}
	if err := applyPatientRequest(&patient, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат даты рождения, ожидается 2006-01-02",
		})
		return
	}

	if err := storage.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении пациента",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, patient)
}

// DeletePatientHandler удаляет карточку пациента
// @Summary		Удаление пациента
// @Description	Удаление запрещено, пока пациент стоит в активной очереди
// @Tags			patients
// @Produce		json
// @Param			id	path		string	true	"ID пациента"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Пациент удалён"
// @Failure		400	{object}	response.ErrorResponse		"Пациент в активной очереди (PATIENT_IN_QUEUE) или неверный ID (INVALID_PATIENT_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Пациент не найден (PATIENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients/{id} [delete]
func DeletePatientHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	var patient models.Patient
	if err := storage.DB.First(&patient, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}

	var activeCount int64
	storage.DB.Model(&models.QueueEntry{}).
		Where("patient_id = ? AND served_at IS NULL AND removed_at IS NULL", id).
		Count(&activeCount)
	if activeCount > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "PATIENT_IN_QUEUE",
			Message: "Пациент стоит в активной очереди, сначала снимите его с очереди",
		})
		return
	}

	if err := storage.DB.Delete(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении пациента",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Пациент удалён"})
}
