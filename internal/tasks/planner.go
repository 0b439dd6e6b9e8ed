package tasks

import (
	"log"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/storage"

	"github.com/robfig/cron/v3"
)

// MarkNoShowAppointments помечает просроченные плановые записи как неявку:
// приём должен был закончиться, а статус так и остался 'Scheduled'.
func MarkNoShowAppointments() {
	now := time.Now()

	var appointments []models.Appointment
	if err := storage.DB.Where("status = ?", "Scheduled").Find(&appointments).Error; err != nil {
		log.Println("Ошибка при поиске просроченных записей на приём:", err)
		return
	}

	marked := 0
	for _, appt := range appointments {
		endsAt := appt.StartsAt.Add(time.Duration(appt.Duration) * time.Minute)
		if endsAt.After(now) {
			continue
		}
		if err := storage.DB.Model(&models.Appointment{}).
			Where("id = ?", appt.ID).
			Update("status", "No-Show").Error; err != nil {
			log.Println("Ошибка при пометке неявки для записи", appt.ID, ":", err)
			continue
		}
		marked++
	}

	if marked > 0 {
		log.Printf("Помечено неявок: %d\n", marked)
	}
}

// CleanOldAppointments удаляет завершённые и отменённые записи на приём
// старше 90 дней. Записи живой очереди не трогаем — они остаются для аудита.
func CleanOldAppointments() {
	threshold := time.Now().AddDate(0, 0, -90)
	result := storage.DB.
		Where("status IN ? AND starts_at < ?", []string{"Completed", "Cancelled", "No-Show"}, threshold).
		Delete(&models.Appointment{})
	if result.Error != nil {
		log.Println("Ошибка при удалении устаревших записей на приём:", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Удалено устаревших записей на приём: %d\n", result.RowsAffected)
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Пометка неявок каждые 30 минут.
	_, err := c.AddFunc("0 */30 * * * *", MarkNoShowAppointments)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи MarkNoShowAppointments:", err)
	}

	// Очистка устаревших записей на приём каждый день в 03:00.
	_, err = c.AddFunc("0 0 3 * * *", CleanOldAppointments)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CleanOldAppointments:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
