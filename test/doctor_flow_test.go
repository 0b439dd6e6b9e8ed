package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"testing"
	"time"

	"hospital_queue/internal/models"
	"hospital_queue/internal/storage"

	"github.com/stretchr/testify/assert"
)

func requestJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		err := json.NewEncoder(&buf).Encode(body)
		assert.NoError(t, err, "Ошибка кодирования тела запроса")
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-UserID", "1")
	res, err := http.DefaultClient.Do(req)
	assert.NoError(t, err, "Ошибка запроса "+url)
	return res
}

func TestDoctorAppointmentFlow(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	// 1. Отделение и пациент — напрямую в БД.
	spec := models.Specialization{
		Name:        fmt.Sprintf("Кардиология_%d", time.Now().UnixNano()),
		MaxCapacity: 10,
		IsActive:    true,
	}
	err := storage.DB.Create(&spec).Error
	assert.NoError(t, err, "Ошибка создания тестового отделения")

	patient := models.Patient{FullName: "Сидоров Сидор Сидорович"}
	err = storage.DB.Create(&patient).Error
	assert.NoError(t, err, "Ошибка создания пациента")

	// 2. Создаем двух врачей.
	license1 := fmt.Sprintf("ЛО-%d", time.Now().UnixNano())
	license2 := license1 + "-2"
	resDoc := requestJSON(t, "POST", ts.URL+"/api/doctors", map[string]interface{}{
		"full_name":      "Айболитов Иван Петрович",
		"license_number": license1,
	})
	defer resDoc.Body.Close()
	assert.Equal(t, http.StatusCreated, resDoc.StatusCode, "Врач 1 не создан")
	var doctor map[string]interface{}
	json.NewDecoder(resDoc.Body).Decode(&doctor)
	doctorID := strconv.Itoa(int(doctor["ID"].(float64)))
	log.Println("Врач 1 создан, ID:", doctorID)

	resDoc2 := requestJSON(t, "POST", ts.URL+"/api/doctors", map[string]interface{}{
		"full_name":      "Пилюлькин Петр Иванович",
		"license_number": license2,
	})
	defer resDoc2.Body.Close()
	assert.Equal(t, http.StatusCreated, resDoc2.StatusCode, "Врач 2 не создан")

	// 3. Обновляем врача 1: должность меняется.
	resUpd := requestJSON(t, "PUT", ts.URL+"/api/doctors/"+doctorID, map[string]interface{}{
		"full_name":      "Айболитов Иван Петрович",
		"title":          "Заведующий отделением",
		"license_number": license1,
	})
	defer resUpd.Body.Close()
	assert.Equal(t, http.StatusOK, resUpd.StatusCode, "Ошибка обновления врача")
	var updated map[string]interface{}
	json.NewDecoder(resUpd.Body).Decode(&updated)
	assert.Equal(t, "Заведующий отделением", updated["Title"], "Должность не обновилась")

	// 4. Чужая лицензия при обновлении отклоняется.
	resLic := requestJSON(t, "PUT", ts.URL+"/api/doctors/"+doctorID, map[string]interface{}{
		"full_name":      "Айболитов Иван Петрович",
		"license_number": license2,
	})
	defer resLic.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resLic.StatusCode, "Чужая лицензия не отклонена")
	var licBody map[string]interface{}
	json.NewDecoder(resLic.Body).Decode(&licBody)
	assert.Equal(t, "LICENSE_EXISTS", licBody["code"], "Неверный код ошибки лицензии")

	// 5. Создаем прием на завтра.
	apptStart := time.Now().AddDate(0, 0, 1).Truncate(time.Hour)
	resAppt := requestJSON(t, "POST", ts.URL+"/api/appointments", map[string]interface{}{
		"patient_id":        patient.ID,
		"doctor_id":         doctor["ID"],
		"specialization_id": spec.ID,
		"starts_at":         apptStart.Format(time.RFC3339),
		"duration":          30,
	})
	defer resAppt.Body.Close()
	assert.Equal(t, http.StatusCreated, resAppt.StatusCode, "Прием не создан")
	var appt map[string]interface{}
	json.NewDecoder(resAppt.Body).Decode(&appt)
	apptID := strconv.Itoa(int(appt["ID"].(float64)))

	// 6. Пересечение при создании отклоняется.
	resConflict := requestJSON(t, "POST", ts.URL+"/api/appointments", map[string]interface{}{
		"patient_id":        patient.ID,
		"doctor_id":         doctor["ID"],
		"specialization_id": spec.ID,
		"starts_at":         apptStart.Add(15 * time.Minute).Format(time.RFC3339),
		"duration":          30,
	})
	defer resConflict.Body.Close()
	assert.Equal(t, http.StatusConflict, resConflict.StatusCode, "Пересечение не отклонено")

	// 7. Переносим прием на два часа позже — свободно.
	resMove := requestJSON(t, "PUT", ts.URL+"/api/appointments/"+apptID, map[string]interface{}{
		"starts_at": apptStart.Add(2 * time.Hour).Format(time.RFC3339),
	})
	defer resMove.Body.Close()
	assert.Equal(t, http.StatusOK, resMove.StatusCode, "Ошибка переноса приема")

	// 8. Второй прием занимает освободившееся время.
	resAppt2 := requestJSON(t, "POST", ts.URL+"/api/appointments", map[string]interface{}{
		"patient_id":        patient.ID,
		"doctor_id":         doctor["ID"],
		"specialization_id": spec.ID,
		"starts_at":         apptStart.Format(time.RFC3339),
		"duration":          30,
	})
	defer resAppt2.Body.Close()
	assert.Equal(t, http.StatusCreated, resAppt2.StatusCode, "Второй прием не создан")
	var appt2 map[string]interface{}
	json.NewDecoder(resAppt2.Body).Decode(&appt2)
	appt2ID := strconv.Itoa(int(appt2["ID"].(float64)))

	// 9. Перенос первого приема на занятое время отклоняется, сам прием из
	// проверки пересечений исключен (перенос на свое же время прошел бы).
	resMoveConflict := requestJSON(t, "PUT", ts.URL+"/api/appointments/"+apptID, map[string]interface{}{
		"starts_at": apptStart.Add(15 * time.Minute).Format(time.RFC3339),
	})
	defer resMoveConflict.Body.Close()
	assert.Equal(t, http.StatusConflict, resMoveConflict.StatusCode, "Перенос на занятое время не отклонен")

	// 10. Врача с назначенными приемами удалить нельзя.
	resDelBusy := requestJSON(t, "DELETE", ts.URL+"/api/doctors/"+doctorID, nil)
	defer resDelBusy.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resDelBusy.StatusCode, "Удаление занятого врача не отклонено")
	var delBody map[string]interface{}
	json.NewDecoder(resDelBusy.Body).Decode(&delBody)
	assert.Equal(t, "DOCTOR_HAS_APPOINTMENTS", delBody["code"], "Неверный код ошибки удаления врача")

	// 11. Отменяем оба приема.
	for _, id := range []string{apptID, appt2ID} {
		resCancel := requestJSON(t, "POST", ts.URL+"/api/appointments/"+id+"/cancel", map[string]interface{}{
			"reason": "тестовая отмена",
		})
		resCancel.Body.Close()
		assert.Equal(t, http.StatusOK, resCancel.StatusCode, "Ошибка отмены приема "+id)
	}

	// 12. Отмененный прием перенести нельзя.
	resMoveCancelled := requestJSON(t, "PUT", ts.URL+"/api/appointments/"+apptID, map[string]interface{}{
		"starts_at": apptStart.Add(3 * time.Hour).Format(time.RFC3339),
	})
	defer resMoveCancelled.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resMoveCancelled.StatusCode, "Перенос отмененного приема не отклонен")
	var movedBody map[string]interface{}
	json.NewDecoder(resMoveCancelled.Body).Decode(&movedBody)
	assert.Equal(t, "APPOINTMENT_NOT_EDITABLE", movedBody["code"], "Неверный код ошибки переноса")

	// 13. Теперь врач удаляется.
	resDel := requestJSON(t, "DELETE", ts.URL+"/api/doctors/"+doctorID, nil)
	defer resDel.Body.Close()
	assert.Equal(t, http.StatusOK, resDel.StatusCode, "Ошибка удаления врача")
}
