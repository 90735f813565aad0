package specialization

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type SpecializationHandler struct {
	db *gorm.DB
}

func NewSpecializationHandler(db *gorm.DB) *SpecializationHandler {
	return &SpecializationHandler{db: db}
}

func (h *SpecializationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/specializations", h.GetSpecializations).Methods("GET")
	router.HandleFunc("/specializations/{id}", h.GetSpecialization).Methods("GET")
	router.HandleFunc("/specializations", h.CreateSpecialization).Methods("POST")
	router.HandleFunc("/specializations/{id}", h.DeleteSpecialization).Methods("DELETE")
}

func (h *SpecializationHandler) GetSpecializations(w http.ResponseWriter, r *http.Request) {
	specializations := []models.Specialization{}
	if err := h.db.Find(&specializations).Error; err != nil {
		http.Error(w, "Error retrieving specializations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(specializations)
}

func (h *SpecializationHandler) GetSpecialization(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	specializationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid specialization ID", http.StatusBadRequest)
		return
	}

	var specialization models.Specialization
	if err := h.db.First(&specialization, specializationID).Error; err != nil {
		http.Error(w, "Specialization not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(specialization)
}

func (h *SpecializationHandler) CreateSpecialization(w http.ResponseWriter, r *http.Request) {
	var specialization models.Specialization
	if err := json.NewDecoder(r.Body).Decode(&specialization); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if specialization.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	if err := h.db.Create(&specialization).Error; err != nil {
		http.Error(w, "Error creating specialization", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(specialization)
}

func (h *SpecializationHandler) DeleteSpecialization(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	specializationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid specialization ID", http.StatusBadRequest)
		return
	}

	result := h.db.Delete(&models.Specialization{}, specializationID)
	if result.Error != nil {
		http.Error(w, "Error deleting specialization", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Specialization not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
