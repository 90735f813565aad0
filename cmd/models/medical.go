package models

import (
	"time"

	"gorm.io/gorm"
)

type MedicalData struct {
	gorm.Model
	UserID                 uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	RecordedAt             time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
	BloodSugar             *float64  `gorm:"column:blood_sugar" json:"blood_sugar,omitempty"`
	SystolicBloodPressure  *int      `gorm:"column:systolic_blood_pressure" json:"systolic_blood_pressure,omitempty"`
	DiastolicBloodPressure *int      `gorm:"column:diastolic_blood_pressure" json:"diastolic_blood_pressure,omitempty"`
	HeartRate              *int      `gorm:"column:heart_rate" json:"heart_rate,omitempty"`
}

// MedicalRecord keeps disease history and symptoms as JSON-encoded string
// lists so ordering is preserved.
type MedicalRecord struct {
	gorm.Model
	UserID         uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	DiseaseHistory string `gorm:"column:disease_history;type:text" json:"-"`
	Symptoms       string `gorm:"column:symptoms;type:text" json:"-"`
}
