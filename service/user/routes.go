package user

import (
	"encoding/json"
	"net/http"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users/profile", h.GetProfile).Methods("GET")
	router.HandleFunc("/users/profile", h.UpdateProfile).Methods("PUT")
	router.HandleFunc("/users/patientCount", utils.RequireRole(models.RoleDoctor, h.GetPatientCount)).Methods("GET")
	router.HandleFunc("/doctors", utils.RequireRole(models.RolePatient, h.GetDoctors)).Methods("GET")
	router.HandleFunc("/patient/profile", h.GetPatientProfile).Methods("GET")
	router.HandleFunc("/patient/profile", h.SavePatientProfile).Methods("POST")
}

// GetProfile returns the authenticated user's own record.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	email, err := utils.GetUserEmailFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := h.db.Preload("Specialization").Where("email = ?", email).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UpdateProfile changes name and phone number only; email and password are
// immutable here.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email, err := utils.GetUserEmailFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var updateRequest struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if updateRequest.Name != "" {
		user.Name = updateRequest.Name
	}
	if updateRequest.PhoneNumber != "" {
		user.PhoneNumber = updateRequest.PhoneNumber
	}

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) GetPatientCount(w http.ResponseWriter, r *http.Request) {
	var count int64
	if err := h.db.Model(&models.User{}).Where("role = ?", models.RolePatient).Count(&count).Error; err != nil {
		http.Error(w, "Error counting patients", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(count)
}

// GetDoctors lists every doctor with their specialization, for patients
// choosing who to book.
func (h *Handler) GetDoctors(w http.ResponseWriter, r *http.Request) {
	var doctors []models.User
	if err := h.db.Preload("Specialization").
		Where("role = ?", models.RoleDoctor).
		Find(&doctors).Error; err != nil {
		http.Error(w, "Error retrieving doctors", http.StatusInternalServerError)
		return
	}

	response := make([]models.DoctorDTO, 0, len(doctors))
	for _, doctor := range doctors {
		dto := models.DoctorDTO{
			ID:          doctor.ID,
			Name:        doctor.Name,
			Email:       doctor.Email,
			PhoneNumber: doctor.PhoneNumber,
		}
		if doctor.Specialization != nil {
			dto.SpecializationName = doctor.Specialization.Name
		}
		response = append(response, dto)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) GetPatientProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	var profile models.PatientProfile
	if err := h.db.Where("email = ?", email).First(&profile).Error; err != nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// SavePatientProfile creates or replaces the extended profile for a patient.
func (h *Handler) SavePatientProfile(w http.ResponseWriter, r *http.Request) {
	var profileRequest models.PatientProfile
	if err := json.NewDecoder(r.Body).Decode(&profileRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if profileRequest.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	var existing models.PatientProfile
	if err := h.db.Where("email = ?", profileRequest.Email).First(&existing).Error; err == nil {
		existing.Address = profileRequest.Address
		existing.EmergencyContact = profileRequest.EmergencyContact
		existing.BloodType = profileRequest.BloodType
		existing.Allergies = profileRequest.Allergies
		if err := h.db.Save(&existing).Error; err != nil {
			http.Error(w, "Error saving profile", http.StatusInternalServerError)
			return
		}
		profileRequest = existing
	} else {
		if err := h.db.Create(&profileRequest).Error; err != nil {
			http.Error(w, "Error saving profile", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profileRequest)
}
