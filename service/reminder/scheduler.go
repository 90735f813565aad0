package reminder

import (
	"fmt"
	"log"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"gorm.io/gorm"
)

const DefaultInterval = 60 * time.Second

// Scheduler sweeps due appointment and medication reminders on a fixed
// interval and dispatches them through the notifier. Delivery is
// at-least-once; the sent flag keeps duplicates out of overlapping windows.
type Scheduler struct {
	db       *gorm.DB
	notifier *notify.Service
	interval time.Duration
	stop     chan struct{}
}

func NewScheduler(db *gorm.DB, notifier *notify.Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		db:       db,
		notifier: notifier,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.dispatchDue(time.Now())
			case <-s.stop:
				return
			}
		}
	}()
	log.Printf("Reminder scheduler started, interval %s", s.interval)
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

// dispatchDue runs one tick over the window [now, now+interval).
func (s *Scheduler) dispatchDue(now time.Time) {
	end := now.Add(s.interval)

	s.dispatchAppointmentReminders(now, end)
	s.dispatchMedicationReminders(now, end)
	s.cleanupExpiredTokens(now)
}

func (s *Scheduler) dispatchAppointmentReminders(start, end time.Time) {
	var reminders []models.AppointmentReminder
	if err := s.db.Where("reminder_time >= ? AND reminder_time < ? AND sent = ?", start, end, false).
		Find(&reminders).Error; err != nil {
		log.Printf("Error selecting due appointment reminders: %v", err)
		return
	}

	for i := range reminders {
		reminder := &reminders[i]

		var appointment models.Appointment
		if err := s.db.Preload("Patient").Preload("Doctor").
			First(&appointment, reminder.AppointmentID).Error; err != nil {
			log.Printf("Appointment %d missing for reminder %d: %v", reminder.AppointmentID, reminder.ID, err)
			continue
		}
		if appointment.Patient == nil || appointment.Doctor == nil {
			log.Printf("Appointment %d has a dangling user reference", appointment.ID)
			continue
		}

		body := fmt.Sprintf("Reminder: you have an appointment with Dr. %s on %s.\nReason: %s",
			appointment.Doctor.Name,
			appointment.AppointmentDate.Format("Mon, 02 Jan 2006 at 15:04"),
			appointment.Reason)

		if err := s.notifier.Notify(appointment.Patient, "Appointment reminder", body); err != nil {
			// Left unsent so the next tick retries.
			log.Printf("Error dispatching reminder %d: %v", reminder.ID, err)
			continue
		}

		reminder.Sent = true
		if err := s.db.Save(reminder).Error; err != nil {
			log.Printf("Error marking reminder %d sent: %v", reminder.ID, err)
		}
	}
}

func (s *Scheduler) dispatchMedicationReminders(start, end time.Time) {
	var reminders []models.MedicationReminder
	if err := s.db.Where("reminder_time >= ? AND reminder_time < ? AND sent = ?", start, end, false).
		Find(&reminders).Error; err != nil {
		log.Printf("Error selecting due medication reminders: %v", err)
		return
	}

	for i := range reminders {
		reminder := &reminders[i]

		var medication models.Medication
		if err := s.db.First(&medication, reminder.MedicationID).Error; err != nil {
			log.Printf("Medication %d missing for reminder %d: %v", reminder.MedicationID, reminder.ID, err)
			continue
		}
		var user models.User
		if err := s.db.First(&user, medication.UserID).Error; err != nil {
			log.Printf("User %d missing for medication %d: %v", medication.UserID, medication.ID, err)
			continue
		}

		body := fmt.Sprintf("Reminder: time to take %s", medication.Name)
		if medication.Dosage != "" {
			body = fmt.Sprintf("%s (%s)", body, medication.Dosage)
		}

		if err := s.notifier.Notify(&user, "Medication reminder", body); err != nil {
			log.Printf("Error dispatching medication reminder %d: %v", reminder.ID, err)
			continue
		}

		if reminder.IsRecurring {
			next := nextOccurrence(reminder.ReminderTime, reminder.RecurrencePattern)
			reminder.ReminderTime = next
			medication.NextReminderTime = &next
			if err := s.db.Save(&medication).Error; err != nil {
				log.Printf("Error advancing medication %d: %v", medication.ID, err)
			}
		} else {
			reminder.Sent = true
		}
		if err := s.db.Save(reminder).Error; err != nil {
			log.Printf("Error updating medication reminder %d: %v", reminder.ID, err)
		}
	}
}

// nextOccurrence advances a recurring reminder past its current due time.
// Unknown patterns fall back to daily.
func nextOccurrence(current time.Time, pattern string) time.Time {
	switch pattern {
	case models.RecurrenceWeekly:
		return current.AddDate(0, 0, 7)
	case models.RecurrenceDaily:
		return current.AddDate(0, 0, 1)
	default:
		return current.AddDate(0, 0, 1)
	}
}

// cleanupExpiredTokens drops blacklist rows whose tokens have expired on
// their own; they can no longer pass signature validation anyway.
func (s *Scheduler) cleanupExpiredTokens(now time.Time) {
	result := s.db.Where("expiry_date < ?", now).Delete(&models.BlacklistedToken{})
	if result.Error != nil {
		log.Printf("Error cleaning up expired blacklisted tokens: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Removed %d expired blacklisted tokens", result.RowsAffected)
	}
}
