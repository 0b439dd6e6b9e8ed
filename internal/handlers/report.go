package handlers

import (
	"net/http"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/response"
	"hospital_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

// DashboardSummary — сводка по больнице для главного экрана.
type DashboardSummary struct {
	TotalPatients         int64 `json:"total_patients"`
	TotalDoctors          int64 `json:"total_doctors"`
	ActiveSpecializations int64 `json:"active_specializations"`
	ActiveQueueEntries    int64 `json:"active_queue_entries"`
	ServedToday           int64 `json:"served_today"`
	AppointmentsToday     int64 `json:"appointments_today"`
}

// startOfDay возвращает полночь дня t в его часовом поясе. Truncate здесь не
// годится: он режет по суткам UTC и сдвигает границу "сегодня" на смещение пояса.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetDashboardSummaryHandler возвращает сводку по больнице
// @Summary		Сводка для главного экрана
// @Description	Счётчики пациентов, врачей, отделений, очередей и приёмов на сегодня
// @Tags			reports
// @Produce		json
// @Success		200	{object}	DashboardSummary		"Сводка"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/reports/dashboard [get]
func GetDashboardSummaryHandler(c *gin.Context) {
	var summary DashboardSummary

	today := startOfDay(time.Now())
	tomorrow := today.AddDate(0, 0, 1)

	queries := []error{
		storage.DB.Model(&models.Patient{}).Count(&summary.TotalPatients).Error,
		storage.DB.Model(&models.Doctor{}).Where("status = ?", "Active").Count(&summary.TotalDoctors).Error,
		storage.DB.Model(&models.Specialization{}).Where("is_active = ?", true).Count(&summary.ActiveSpecializations).Error,
		storage.DB.Model(&models.QueueEntry{}).Where("served_at IS NULL AND removed_at IS NULL").Count(&summary.ActiveQueueEntries).Error,
		storage.DB.Model(&models.QueueEntry{}).Where("served_at >= ? AND served_at < ?", today, tomorrow).Count(&summary.ServedToday).Error,
		storage.DB.Model(&models.Appointment{}).Where("starts_at >= ? AND starts_at < ?", today, tomorrow).Count(&summary.AppointmentsToday).Error,
	}
	for _, err := range queries {
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка сбора сводки",
				Details: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, summary)
}
