package reminder

import (
	"fmt"
	"testing"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// recordingMailer captures outgoing mail instead of dialing SMTP.
type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Appointment{}, &models.AppointmentReminder{},
		&models.Medication{}, &models.MedicationReminder{}, &models.BlacklistedToken{},
		&models.Device{}, &models.NotificationHistory{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setupScheduler(t *testing.T) (*Scheduler, *gorm.DB, *recordingMailer) {
	t.Helper()
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	scheduler := NewScheduler(db, notify.NewService(db, mailer, nil), time.Minute)
	return scheduler, db, mailer
}

func createUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Name:         "Test User",
		PhoneNumber:  "0241234567",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestDispatchSendsDueAppointmentReminder(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	patient := createUser(t, db, "patient@example.com", models.RolePatient)
	doctor := createUser(t, db, "doctor@example.com", models.RoleDoctor)

	now := time.Now()
	appointment := models.Appointment{PatientID: patient.ID, DoctorID: doctor.ID,
		AppointmentDate: now.Add(24 * time.Hour), Reason: "Annual checkup"}
	assert.NoError(t, db.Create(&appointment).Error)
	reminder := models.AppointmentReminder{AppointmentID: appointment.ID,
		ReminderTime: now.Add(30 * time.Second)}
	assert.NoError(t, db.Create(&reminder).Error)

	scheduler.dispatchDue(now)

	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, "patient@example.com", mailer.sent[0].To)
	assert.Equal(t, "Appointment reminder", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "Test User")
	assert.Contains(t, mailer.sent[0].Body, "Annual checkup")

	var updated models.AppointmentReminder
	assert.NoError(t, db.First(&updated, reminder.ID).Error)
	assert.True(t, updated.Sent)
}

func TestDispatchIgnoresRemindersOutsideWindow(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	patient := createUser(t, db, "patient@example.com", models.RolePatient)
	doctor := createUser(t, db, "doctor@example.com", models.RoleDoctor)

	now := time.Now()
	appointment := models.Appointment{PatientID: patient.ID, DoctorID: doctor.ID,
		AppointmentDate: now.Add(48 * time.Hour), Reason: "Checkup"}
	assert.NoError(t, db.Create(&appointment).Error)

	past := models.AppointmentReminder{AppointmentID: appointment.ID,
		ReminderTime: now.Add(-5 * time.Minute)}
	future := models.AppointmentReminder{AppointmentID: appointment.ID,
		ReminderTime: now.Add(5 * time.Minute)}
	assert.NoError(t, db.Create(&past).Error)
	assert.NoError(t, db.Create(&future).Error)

	scheduler.dispatchDue(now)

	assert.Empty(t, mailer.sent)

	var count int64
	db.Model(&models.AppointmentReminder{}).Where("sent = ?", true).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDispatchSkipsAlreadySentReminders(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	patient := createUser(t, db, "patient@example.com", models.RolePatient)
	doctor := createUser(t, db, "doctor@example.com", models.RoleDoctor)

	now := time.Now()
	appointment := models.Appointment{PatientID: patient.ID, DoctorID: doctor.ID,
		AppointmentDate: now.Add(24 * time.Hour), Reason: "Checkup"}
	assert.NoError(t, db.Create(&appointment).Error)
	reminder := models.AppointmentReminder{AppointmentID: appointment.ID,
		ReminderTime: now.Add(30 * time.Second), Sent: true}
	assert.NoError(t, db.Create(&reminder).Error)

	scheduler.dispatchDue(now)

	assert.Empty(t, mailer.sent)
}

func TestDispatchLeavesReminderUnsentOnMailFailure(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	mailer.err = fmt.Errorf("smtp unreachable")
	patient := createUser(t, db, "patient@example.com", models.RolePatient)
	doctor := createUser(t, db, "doctor@example.com", models.RoleDoctor)

	now := time.Now()
	appointment := models.Appointment{PatientID: patient.ID, DoctorID: doctor.ID,
		AppointmentDate: now.Add(24 * time.Hour), Reason: "Checkup"}
	assert.NoError(t, db.Create(&appointment).Error)
	reminder := models.AppointmentReminder{AppointmentID: appointment.ID,
		ReminderTime: now.Add(30 * time.Second)}
	assert.NoError(t, db.Create(&reminder).Error)

	scheduler.dispatchDue(now)

	var updated models.AppointmentReminder
	assert.NoError(t, db.First(&updated, reminder.ID).Error)
	assert.False(t, updated.Sent)

	// Next tick retries once the mailer recovers.
	mailer.err = nil
	scheduler.dispatchDue(now)
	assert.Len(t, mailer.sent, 1)

	assert.NoError(t, db.First(&updated, reminder.ID).Error)
	assert.True(t, updated.Sent)
}

func TestDispatchSendsMedicationReminder(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	patient := createUser(t, db, "patient@example.com", models.RolePatient)

	now := time.Now()
	medication := models.Medication{UserID: patient.ID, Name: "Metformin", Dosage: "500mg"}
	assert.NoError(t, db.Create(&medication).Error)
	reminder := models.MedicationReminder{MedicationID: medication.ID,
		ReminderTime: now.Add(30 * time.Second)}
	assert.NoError(t, db.Create(&reminder).Error)

	scheduler.dispatchDue(now)

	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, "Medication reminder", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "Metformin")
	assert.Contains(t, mailer.sent[0].Body, "500mg")

	var updated models.MedicationReminder
	assert.NoError(t, db.First(&updated, reminder.ID).Error)
	assert.True(t, updated.Sent)
}

func TestDispatchAdvancesRecurringMedicationReminder(t *testing.T) {
	scheduler, db, mailer := setupScheduler(t)
	patient := createUser(t, db, "patient@example.com", models.RolePatient)

	now := time.Now()
	due := now.Add(30 * time.Second)
	medication := models.Medication{UserID: patient.ID, Name: "Lisinopril",
		NextReminderTime: &due}
	assert.NoError(t, db.Create(&medication).Error)
	reminder := models.MedicationReminder{MedicationID: medication.ID,
		ReminderTime: due, IsRecurring: true, RecurrencePattern: models.RecurrenceDaily}
	assert.NoError(t, db.Create(&reminder).Error)

	scheduler.dispatchDue(now)

	assert.Len(t, mailer.sent, 1)

	var updated models.MedicationReminder
	assert.NoError(t, db.First(&updated, reminder.ID).Error)
	assert.False(t, updated.Sent)
	assert.WithinDuration(t, due.AddDate(0, 0, 1), updated.ReminderTime, time.Second)

	var updatedMedication models.Medication
	assert.NoError(t, db.First(&updatedMedication, medication.ID).Error)
	assert.NotNil(t, updatedMedication.NextReminderTime)
	assert.WithinDuration(t, due.AddDate(0, 0, 1), *updatedMedication.NextReminderTime, time.Second)
}

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, base.AddDate(0, 0, 1), nextOccurrence(base, models.RecurrenceDaily))
	assert.Equal(t, base.AddDate(0, 0, 7), nextOccurrence(base, models.RecurrenceWeekly))
	assert.Equal(t, base.AddDate(0, 0, 1), nextOccurrence(base, "UNKNOWN"))
}

func TestCleanupRemovesExpiredBlacklistedTokens(t *testing.T) {
	scheduler, db, _ := setupScheduler(t)

	now := time.Now()
	expired := models.BlacklistedToken{Token: "expired-token",
		BlacklistedAt: now.Add(-48 * time.Hour), ExpiryDate: now.Add(-24 * time.Hour)}
	active := models.BlacklistedToken{Token: "active-token",
		BlacklistedAt: now.Add(-1 * time.Hour), ExpiryDate: now.Add(23 * time.Hour)}
	assert.NoError(t, db.Create(&expired).Error)
	assert.NoError(t, db.Create(&active).Error)

	scheduler.dispatchDue(now)

	var tokens []models.BlacklistedToken
	assert.NoError(t, db.Find(&tokens).Error)
	assert.Len(t, tokens, 1)
	assert.Equal(t, "active-token", tokens[0].Token)
}

func TestNewSchedulerDefaultsInterval(t *testing.T) {
	db := setupTestDB(t)
	scheduler := NewScheduler(db, notify.NewService(db, &recordingMailer{}, nil), 0)
	assert.Equal(t, DefaultInterval, scheduler.interval)
}
