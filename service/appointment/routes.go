package appointment

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Reminders are generated this long before the appointment.
const reminderOffset = 24 * time.Hour

type AppointmentHandler struct {
	db *gorm.DB
}

func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{db: db}
}

func (h *AppointmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointments/user/{userId}", h.CreateAppointment).Methods("POST")
	router.HandleFunc("/appointments/user/{userId}", h.GetPatientAppointments).Methods("GET")
	router.HandleFunc("/appointments/doctor/{doctorId}", h.GetDoctorAppointments).Methods("GET")
	router.HandleFunc("/appointments/{id}/doctor/{doctorId}/status", h.UpdateAppointmentStatus).Methods("PUT")
	router.HandleFunc("/appointments/{id}", utils.RequireRole(models.RolePatient, h.DeleteAppointment)).Methods("DELETE")
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	patientID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var bookingRequest struct {
		DoctorID        uint       `json:"doctor_id"`
		AppointmentDate *time.Time `json:"appointment_date"`
		Reason          string     `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&bookingRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors utils.FieldErrors
	if bookingRequest.AppointmentDate == nil {
		fieldErrors.Add("appointment_date", "appointment_date is required")
	}
	fieldErrors.RequireNotBlank("reason", bookingRequest.Reason)
	if bookingRequest.DoctorID == 0 {
		fieldErrors.Add("doctor_id", "doctor_id is required")
	}
	if !fieldErrors.Empty() {
		fieldErrors.WriteBadRequest(w)
		return
	}

	var patient models.User
	if err := h.db.First(&patient, patientID).Error; err != nil {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}

	var doctor models.User
	if err := h.db.First(&doctor, bookingRequest.DoctorID).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}
	if doctor.Role != models.RoleDoctor {
		http.Error(w, "Referenced user is not a doctor", http.StatusBadRequest)
		return
	}

	if !bookingRequest.AppointmentDate.After(time.Now()) {
		http.Error(w, "Appointment date must be in the future", http.StatusBadRequest)
		return
	}

	appointment := models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: *bookingRequest.AppointmentDate,
		Reason:          bookingRequest.Reason,
		IsAccepted:      false,
	}

	if err := h.db.Create(&appointment).Error; err != nil {
		log.Printf("Error creating appointment: %v", err)
		http.Error(w, "Error creating appointment", http.StatusInternalServerError)
		return
	}

	// Best effort: a failed reminder never fails the booking.
	h.createReminder(&appointment)

	if err := h.db.Preload("Patient").Preload("Doctor").
		First(&appointment, appointment.ID).Error; err != nil {
		// The booking itself succeeded; respond with the bare row.
		log.Printf("Error loading appointment %d participants: %v", appointment.ID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appointment)
}

// createReminder schedules a reminder 24 hours before the appointment. If
// that moment has already passed, the appointment gets no reminder at all.
func (h *AppointmentHandler) createReminder(appointment *models.Appointment) {
	reminderTime := appointment.AppointmentDate.Add(-reminderOffset)
	if !reminderTime.After(time.Now()) {
		return
	}

	reminder := models.AppointmentReminder{
		AppointmentID: appointment.ID,
		ReminderTime:  reminderTime,
		Sent:          false,
	}
	if err := h.db.Create(&reminder).Error; err != nil {
		log.Printf("Error creating reminder for appointment %d: %v", appointment.ID, err)
	}
}

func (h *AppointmentHandler) GetPatientAppointments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	patientID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	appointments := []models.Appointment{}
	if err := h.db.Where("patient_id = ?", patientID).
		Preload("Doctor").
		Order("appointment_date DESC").
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

func (h *AppointmentHandler) GetDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := strconv.ParseUint(vars["doctorId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	appointments := []models.Appointment{}
	if err := h.db.Where("doctor_id = ?", doctorID).
		Preload("Patient").
		Order("appointment_date DESC").
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

// UpdateAppointmentStatus lets the owning doctor accept or reject a booking.
func (h *AppointmentHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}
	doctorID, err := strconv.ParseUint(vars["doctorId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	var statusRequest struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&statusRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var appointment models.Appointment
	if err := h.db.First(&appointment, appointmentID).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if appointment.DoctorID != uint(doctorID) {
		http.Error(w, "Appointment does not belong to this doctor", http.StatusBadRequest)
		return
	}

	appointment.IsAccepted = statusRequest.Accept
	if err := h.db.Save(&appointment).Error; err != nil {
		http.Error(w, "Error updating appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointment)
}

// DeleteAppointment cancels a booking, removing its reminders in the same
// transaction.
func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}

	tx := h.db.Begin()

	var appointment models.Appointment
	if err := tx.First(&appointment, appointmentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error retrieving appointment", http.StatusInternalServerError)
		}
		return
	}

	if err := tx.Where("appointment_id = ?", appointment.ID).
		Delete(&models.AppointmentReminder{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting appointment reminders", http.StatusInternalServerError)
		return
	}

	if err := tx.Delete(&appointment).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting appointment", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error completing cancellation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Appointment canceled successfully!"))
}
