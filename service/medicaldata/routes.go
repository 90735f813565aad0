package medicaldata

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Clinical reference ranges; readings outside trigger an alert email.
const (
	minBloodSugar  = 70.0
	maxBloodSugar  = 130.0
	minSystolicBP  = 90
	maxSystolicBP  = 140
	minDiastolicBP = 60
	maxDiastolicBP = 90
	minHeartRate   = 60
	maxHeartRate   = 100
)

type MedicalDataHandler struct {
	db       *gorm.DB
	notifier *notify.Service
}

func NewMedicalDataHandler(db *gorm.DB, notifier *notify.Service) *MedicalDataHandler {
	return &MedicalDataHandler{db: db, notifier: notifier}
}

func (h *MedicalDataHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/medical-data/user/{userId}", h.RecordMedicalData).Methods("POST")
	router.HandleFunc("/medical-data/user/{userId}", h.GetMedicalDataByUser).Methods("GET")
}

func (h *MedicalDataHandler) RecordMedicalData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var recordRequest struct {
		RecordedAt             *time.Time `json:"recorded_at"`
		BloodSugar             *float64   `json:"blood_sugar"`
		SystolicBloodPressure  *int       `json:"systolic_blood_pressure"`
		DiastolicBloodPressure *int       `json:"diastolic_blood_pressure"`
		HeartRate              *int       `json:"heart_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&recordRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	recordedAt := time.Now()
	if recordRequest.RecordedAt != nil {
		recordedAt = *recordRequest.RecordedAt
	}

	data := models.MedicalData{
		UserID:                 user.ID,
		RecordedAt:             recordedAt,
		BloodSugar:             recordRequest.BloodSugar,
		SystolicBloodPressure:  recordRequest.SystolicBloodPressure,
		DiastolicBloodPressure: recordRequest.DiastolicBloodPressure,
		HeartRate:              recordRequest.HeartRate,
	}

	if err := h.db.Create(&data).Error; err != nil {
		log.Printf("Error recording medical data for user %d: %v", user.ID, err)
		http.Error(w, "Error recording medical data", http.StatusInternalServerError)
		return
	}

	// Best effort: a failed alert never fails the write.
	if abnormal := abnormalReadings(&data); len(abnormal) > 0 {
		h.sendAlert(&user, abnormal)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

// abnormalReadings evaluates each present field against its reference range
// and describes every violation.
func abnormalReadings(data *models.MedicalData) []string {
	var abnormal []string

	if data.BloodSugar != nil && (*data.BloodSugar < minBloodSugar || *data.BloodSugar > maxBloodSugar) {
		abnormal = append(abnormal, fmt.Sprintf("Blood sugar %.1f mg/dL (normal range %.0f-%.0f)",
			*data.BloodSugar, minBloodSugar, maxBloodSugar))
	}
	if data.SystolicBloodPressure != nil && (*data.SystolicBloodPressure < minSystolicBP || *data.SystolicBloodPressure > maxSystolicBP) {
		abnormal = append(abnormal, fmt.Sprintf("Systolic blood pressure %d mmHg (normal range %d-%d)",
			*data.SystolicBloodPressure, minSystolicBP, maxSystolicBP))
	}
	if data.DiastolicBloodPressure != nil && (*data.DiastolicBloodPressure < minDiastolicBP || *data.DiastolicBloodPressure > maxDiastolicBP) {
		abnormal = append(abnormal, fmt.Sprintf("Diastolic blood pressure %d mmHg (normal range %d-%d)",
			*data.DiastolicBloodPressure, minDiastolicBP, maxDiastolicBP))
	}
	if data.HeartRate != nil && (*data.HeartRate < minHeartRate || *data.HeartRate > maxHeartRate) {
		abnormal = append(abnormal, fmt.Sprintf("Heart rate %d bpm (normal range %d-%d)",
			*data.HeartRate, minHeartRate, maxHeartRate))
	}

	return abnormal
}

func (h *MedicalDataHandler) sendAlert(user *models.User, abnormal []string) {
	body := fmt.Sprintf("Hello %s,\n\nYour latest health readings are outside the normal range:\n\n%s\n\nPlease contact your doctor if symptoms persist.",
		user.Name, strings.Join(abnormal, "\n"))

	if err := h.notifier.Notify(user, "Abnormal health readings detected", body); err != nil {
		log.Printf("Error sending abnormal readings alert to %s: %v", user.Email, err)
	}
}

func (h *MedicalDataHandler) GetMedicalDataByUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	records := []models.MedicalData{}
	if err := h.db.Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Find(&records).Error; err != nil {
		http.Error(w, "Error retrieving medical data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
