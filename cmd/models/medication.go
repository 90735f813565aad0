package models

import (
	"time"

	"gorm.io/gorm"
)

type Medication struct {
	gorm.Model
	UserID           uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	Name             string     `gorm:"column:name;size:255;not null" json:"name"`
	Dosage           string     `gorm:"column:dosage;size:255" json:"dosage"`
	NextReminderTime *time.Time `gorm:"column:next_reminder_time;index" json:"next_reminder_time,omitempty"`
}

// Recurrence patterns understood by the reminder dispatcher.
const (
	RecurrenceDaily  = "DAILY"
	RecurrenceWeekly = "WEEKLY"
)

type MedicationReminder struct {
	gorm.Model
	MedicationID      uint      `gorm:"column:medication_id;not null;index" json:"medication_id"`
	ReminderTime      time.Time `gorm:"column:reminder_time;not null;index" json:"reminder_time"`
	IsRecurring       bool      `gorm:"column:is_recurring;default:false" json:"is_recurring"`
	RecurrencePattern string    `gorm:"column:recurrence_pattern;size:50" json:"recurrence_pattern,omitempty"`
	Sent              bool      `gorm:"column:sent;default:false" json:"sent"`
}

type MedicationIntake struct {
	gorm.Model
	MedicationID  uint      `gorm:"column:medication_id;not null;index" json:"medication_id"`
	MedicalDataID *uint     `gorm:"column:medical_data_id" json:"medical_data_id,omitempty"`
	IntakeTime    time.Time `gorm:"column:intake_time;not null" json:"intake_time"`
}
