package medicalrecord

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type MedicalRecordHandler struct {
	db *gorm.DB
}

func NewMedicalRecordHandler(db *gorm.DB) *MedicalRecordHandler {
	return &MedicalRecordHandler{db: db}
}

func (h *MedicalRecordHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/medical-records/user/{userId}", h.GetRecordsByUser).Methods("GET")
	router.HandleFunc("/medical-records/{id:[0-9]+}", h.GetRecord).Methods("GET")
	router.HandleFunc("/medical-records/user/{userId}", h.UpsertRecord).Methods("PUT")
}

// recordResponse exposes the stored JSON text columns as proper lists.
type recordResponse struct {
	ID             uint     `json:"id"`
	UserID         uint     `json:"user_id"`
	DiseaseHistory []string `json:"disease_history"`
	Symptoms       []string `json:"symptoms"`
}

func toResponse(record *models.MedicalRecord) recordResponse {
	resp := recordResponse{
		ID:             record.ID,
		UserID:         record.UserID,
		DiseaseHistory: []string{},
		Symptoms:       []string{},
	}
	if record.DiseaseHistory != "" {
		if err := json.Unmarshal([]byte(record.DiseaseHistory), &resp.DiseaseHistory); err != nil {
			log.Printf("Error decoding disease history for record %d: %v", record.ID, err)
		}
	}
	if record.Symptoms != "" {
		if err := json.Unmarshal([]byte(record.Symptoms), &resp.Symptoms); err != nil {
			log.Printf("Error decoding symptoms for record %d: %v", record.ID, err)
		}
	}
	return resp
}

func (h *MedicalRecordHandler) GetRecordsByUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var records []models.MedicalRecord
	if err := h.db.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		http.Error(w, "Error retrieving medical records", http.StatusInternalServerError)
		return
	}

	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	responses := make([]recordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toResponse(&records[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (h *MedicalRecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	recordID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid record ID", http.StatusBadRequest)
		return
	}

	var record models.MedicalRecord
	if err := h.db.First(&record, recordID).Error; err != nil {
		http.Error(w, "Medical record not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toResponse(&record))
}

// UpsertRecord creates or updates the symptoms and disease history lists for
// a user. An explicit recordId query parameter targets an existing row.
func (h *MedicalRecordHandler) UpsertRecord(w http.ResponseWriter, r *http.Request) {
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

	var updateRequest struct {
		Symptoms       []string `json:"symptoms"`
		DiseaseHistory []string `json:"diseaseHistory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record models.MedicalRecord
	if recordIDParam := r.URL.Query().Get("recordId"); recordIDParam != "" {
		recordID, err := strconv.ParseUint(recordIDParam, 10, 64)
		if err != nil {
			http.Error(w, "Invalid record ID", http.StatusBadRequest)
			return
		}
		if err := h.db.First(&record, recordID).Error; err != nil {
			http.Error(w, "Medical record not found", http.StatusNotFound)
			return
		}
		// A record id belonging to a different user is treated as unknown.
		if record.UserID != uint(userID) {
			http.Error(w, "Medical record not found", http.StatusNotFound)
			return
		}
	} else {
		err := h.db.Where("user_id = ?", userID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = models.MedicalRecord{UserID: user.ID}
		} else if err != nil {
			http.Error(w, "Error retrieving medical record", http.StatusInternalServerError)
			return
		}
	}

	if updateRequest.Symptoms != nil {
		encoded, _ := json.Marshal(updateRequest.Symptoms)
		record.Symptoms = string(encoded)
	}
	if updateRequest.DiseaseHistory != nil {
		encoded, _ := json.Marshal(updateRequest.DiseaseHistory)
		record.DiseaseHistory = string(encoded)
	}

	if err := h.db.Save(&record).Error; err != nil {
		http.Error(w, "Error saving medical record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toResponse(&record))
}
