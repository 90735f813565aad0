package models

import (
	"time"

	"gorm.io/gorm"
)

type Appointment struct {
	gorm.Model
	PatientID       uint      `gorm:"column:patient_id;not null;index" json:"patient_id"`
	DoctorID        uint      `gorm:"column:doctor_id;not null;index" json:"doctor_id"`
	AppointmentDate time.Time `gorm:"column:appointment_date;not null" json:"appointment_date"`
	Reason          string    `gorm:"column:reason;size:500;not null" json:"reason"`
	IsAccepted      bool      `gorm:"column:is_accepted;default:false" json:"is_accepted"`

	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

type AppointmentReminder struct {
	gorm.Model
	AppointmentID uint      `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	ReminderTime  time.Time `gorm:"column:reminder_time;not null;index" json:"reminder_time"`
	Sent          bool      `gorm:"column:sent;default:false" json:"sent"`
}
