package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
)

type User struct {
	gorm.Model
	Email            string     `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash     string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role             string     `gorm:"column:role;size:20;not null" json:"role"`
	Name             string     `gorm:"column:name;size:255;not null" json:"name"`
	PhoneNumber      string     `gorm:"column:phone_number;size:20;not null" json:"phone_number"`
	Birthday         *time.Time `gorm:"column:birthday" json:"birthday,omitempty"`
	SpecializationID *uint      `gorm:"column:specialization_id" json:"specialization_id,omitempty"`

	Specialization *Specialization `gorm:"foreignKey:SpecializationID" json:"specialization,omitempty"`
}

type Specialization struct {
	gorm.Model
	Name string `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
}

// DoctorDTO is the shape returned to patients browsing the doctor list.
type DoctorDTO struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	PhoneNumber        string `json:"phone_number"`
	SpecializationName string `json:"specialization_name,omitempty"`
}

type PatientProfile struct {
	gorm.Model
	UserID           uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Email            string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Address          string `gorm:"column:address;size:500" json:"address"`
	EmergencyContact string `gorm:"column:emergency_contact;size:255" json:"emergency_contact"`
	BloodType        string `gorm:"column:blood_type;size:10" json:"blood_type"`
	Allergies        string `gorm:"column:allergies;type:text" json:"allergies"`
}

type BlacklistedToken struct {
	ID            uint      `gorm:"primaryKey"`
	Token         string    `gorm:"size:512;not null;uniqueIndex"`
	BlacklistedAt time.Time `gorm:"not null"`
	ExpiryDate    time.Time `gorm:"not null"`
}
