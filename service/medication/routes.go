package medication

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type MedicationHandler struct {
	db *gorm.DB
}

func NewMedicationHandler(db *gorm.DB) *MedicationHandler {
	return &MedicationHandler{db: db}
}

func (h *MedicationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/medications/user/{userId}", h.AddMedication).Methods("POST")
	router.HandleFunc("/medications", utils.RequireRole(models.RoleDoctor, h.AddMedicationForPatient)).Methods("POST")
	router.HandleFunc("/medications/user/{userId}", h.GetMedicationsByUser).Methods("GET")
	router.HandleFunc("/medications/{id}", h.GetMedication).Methods("GET")
	router.HandleFunc("/medications/{id}", h.UpdateMedication).Methods("PUT")
	router.HandleFunc("/medications/{id}", utils.RequireRole(models.RoleDoctor, h.DeleteMedication)).Methods("DELETE")
	router.HandleFunc("/medications/{id}/intakes", h.LogIntake).Methods("POST")
	router.HandleFunc("/medications/{id}/intakes", h.GetIntakes).Methods("GET")
}

type medicationRequest struct {
	Name              string     `json:"name"`
	Dosage            string     `json:"dosage"`
	NextReminderTime  *time.Time `json:"next_reminder_time"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
	Patient           string     `json:"patient,omitempty"`
}

func (h *MedicationHandler) AddMedication(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.createMedication(w, uint(userID), &req)
}

// AddMedicationForPatient lets a doctor assign a medication; the patient is
// referenced as "id:<number>" in the request body.
func (h *MedicationHandler) AddMedicationForPatient(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patientID, err := parsePatientID(req.Patient)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.createMedication(w, patientID, &req)
}

func parsePatientID(patient string) (uint, error) {
	if !strings.HasPrefix(patient, "id:") {
		return 0, fmt.Errorf("patient reference must be in the format 'id:<number>'")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(patient, "id:")), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid patient reference: %s", patient)
	}
	return uint(id), nil
}

func (h *MedicationHandler) createMedication(w http.ResponseWriter, userID uint, req *medicationRequest) {
	var fieldErrors utils.FieldErrors
	fieldErrors.RequireNotBlank("name", req.Name)
	if !fieldErrors.Empty() {
		fieldErrors.WriteBadRequest(w)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	medication := models.Medication{
		UserID:           user.ID,
		Name:             req.Name,
		Dosage:           req.Dosage,
		NextReminderTime: req.NextReminderTime,
	}

	if err := h.db.Create(&medication).Error; err != nil {
		log.Printf("Error creating medication for user %d: %v", user.ID, err)
		http.Error(w, "Error creating medication", http.StatusInternalServerError)
		return
	}

	// A reminder row drives the dispatcher; the medication keeps a mirror of
	// its next due time for display.
	if req.NextReminderTime != nil {
		reminder := models.MedicationReminder{
			MedicationID:      medication.ID,
			ReminderTime:      *req.NextReminderTime,
			IsRecurring:       req.IsRecurring,
			RecurrencePattern: req.RecurrencePattern,
		}
		if err := h.db.Create(&reminder).Error; err != nil {
			log.Printf("Error creating reminder for medication %d: %v", medication.ID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(medication)
}

func (h *MedicationHandler) GetMedicationsByUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var medications []models.Medication
	if err := h.db.Where("user_id = ?", userID).Find(&medications).Error; err != nil {
		http.Error(w, "Error retrieving medications", http.StatusInternalServerError)
		return
	}

	if len(medications) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(medications)
}

func (h *MedicationHandler) GetMedication(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	medicationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid medication ID", http.StatusBadRequest)
		return
	}

	var medication models.Medication
	if err := h.db.First(&medication, medicationID).Error; err != nil {
		http.Error(w, "Medication not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(medication)
}

func (h *MedicationHandler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	medicationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid medication ID", http.StatusBadRequest)
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors utils.FieldErrors
	fieldErrors.RequireNotBlank("name", req.Name)
	if !fieldErrors.Empty() {
		fieldErrors.WriteBadRequest(w)
		return
	}

	var medication models.Medication
	if err := h.db.First(&medication, medicationID).Error; err != nil {
		http.Error(w, "Medication not found", http.StatusNotFound)
		return
	}

	medication.Name = req.Name
	medication.Dosage = req.Dosage
	medication.NextReminderTime = req.NextReminderTime

	if err := h.db.Save(&medication).Error; err != nil {
		http.Error(w, "Error updating medication", http.StatusInternalServerError)
		return
	}

	if err := h.syncReminder(&medication, req); err != nil {
		log.Printf("Error syncing reminder for medication %d: %v", medication.ID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(medication)
}

// syncReminder keeps the dispatcher's reminder row in step with the
// medication's next due time: rescheduling rewrites the pending row (or
// creates one), clearing the time removes pending rows.
func (h *MedicationHandler) syncReminder(medication *models.Medication, req medicationRequest) error {
	if req.NextReminderTime == nil {
		return h.db.Where("medication_id = ? AND sent = ?", medication.ID, false).
			Delete(&models.MedicationReminder{}).Error
	}

	var reminder models.MedicationReminder
	err := h.db.Where("medication_id = ? AND sent = ?", medication.ID, false).
		First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reminder = models.MedicationReminder{MedicationID: medication.ID}
	} else if err != nil {
		return err
	}

	reminder.ReminderTime = *req.NextReminderTime
	reminder.IsRecurring = req.IsRecurring
	reminder.RecurrencePattern = req.RecurrencePattern
	reminder.Sent = false
	return h.db.Save(&reminder).Error
}

// DeleteMedication removes a medication with its reminders and intake log in
// one transaction.
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	medicationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid medication ID", http.StatusBadRequest)
		return
	}

	tx := h.db.Begin()

	var medication models.Medication
	if err := tx.First(&medication, medicationID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Medication not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error retrieving medication", http.StatusInternalServerError)
		}
		return
	}

	if err := tx.Where("medication_id = ?", medication.ID).
		Delete(&models.MedicationReminder{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting medication reminders", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("medication_id = ?", medication.ID).
		Delete(&models.MedicationIntake{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting medication intakes", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&medication).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting medication", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error completing deletion", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MedicationHandler) LogIntake(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	medicationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid medication ID", http.StatusBadRequest)
		return
	}

	var intakeRequest struct {
		IntakeTime    *time.Time `json:"intake_time"`
		MedicalDataID *uint      `json:"medical_data_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&intakeRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var medication models.Medication
	if err := h.db.First(&medication, medicationID).Error; err != nil {
		http.Error(w, "Medication not found", http.StatusNotFound)
		return
	}

	intakeTime := time.Now()
	if intakeRequest.IntakeTime != nil {
		intakeTime = *intakeRequest.IntakeTime
	}

	intake := models.MedicationIntake{
		MedicationID:  medication.ID,
		MedicalDataID: intakeRequest.MedicalDataID,
		IntakeTime:    intakeTime,
	}
	if err := h.db.Create(&intake).Error; err != nil {
		http.Error(w, "Error logging intake", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(intake)
}

func (h *MedicationHandler) GetIntakes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	medicationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid medication ID", http.StatusBadRequest)
		return
	}

	intakes := []models.MedicationIntake{}
	if err := h.db.Where("medication_id = ?", medicationID).
		Order("intake_time DESC").
		Find(&intakes).Error; err != nil {
		http.Error(w, "Error retrieving intakes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(intakes)
}
