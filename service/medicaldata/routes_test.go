package medicaldata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"github.com/gorilla/mux"
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

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func setupTest(t *testing.T) (*mux.Router, *gorm.DB, *recordingMailer) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.MedicalData{},
		&models.Device{}, &models.NotificationHistory{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	mailer := &recordingMailer{}
	router := mux.NewRouter()
	NewMedicalDataHandler(db, notify.NewService(db, mailer, nil)).RegisterRoutes(router)
	return router, db, mailer
}

func createUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Email:        "patient@example.com",
		PasswordHash: "x",
		Role:         models.RolePatient,
		Name:         "Test User",
		PhoneNumber:  "0241234567",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func recordBody(t *testing.T, fields map[string]interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestRecordNormalReadingsSendsNoAlert(t *testing.T) {
	router, db, mailer := setupTest(t)
	user := createUser(t, db)

	req := httptest.NewRequest("POST", fmt.Sprintf("/medical-data/user/%d", user.ID),
		recordBody(t, map[string]interface{}{
			"blood_sugar":              100.0,
			"systolic_blood_pressure":  120,
			"diastolic_blood_pressure": 80,
			"heart_rate":               72,
		}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, mailer.sent)

	var count int64
	db.Model(&models.MedicalData{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordHighBloodSugarSendsAlert(t *testing.T) {
	router, db, mailer := setupTest(t)
	user := createUser(t, db)

	req := httptest.NewRequest("POST", fmt.Sprintf("/medical-data/user/%d", user.ID),
		recordBody(t, map[string]interface{}{"blood_sugar": 250.0}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, "patient@example.com", mailer.sent[0].To)
	assert.Equal(t, "Abnormal health readings detected", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "Blood sugar 250.0")
}

func TestRecordMultipleAbnormalReadingsListsAll(t *testing.T) {
	router, db, mailer := setupTest(t)
	user := createUser(t, db)

	req := httptest.NewRequest("POST", fmt.Sprintf("/medical-data/user/%d", user.ID),
		recordBody(t, map[string]interface{}{
			"blood_sugar":             60.0,
			"systolic_blood_pressure": 160,
			"heart_rate":              45,
		}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "Blood sugar 60.0")
	assert.Contains(t, mailer.sent[0].Body, "Systolic blood pressure 160")
	assert.Contains(t, mailer.sent[0].Body, "Heart rate 45")
}

func TestRecordBoundaryReadingsAreNormal(t *testing.T) {
	router, db, mailer := setupTest(t)
	user := createUser(t, db)

	req := httptest.NewRequest("POST", fmt.Sprintf("/medical-data/user/%d", user.ID),
		recordBody(t, map[string]interface{}{
			"blood_sugar":              70.0,
			"systolic_blood_pressure":  140,
			"diastolic_blood_pressure": 60,
			"heart_rate":               100,
		}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, mailer.sent)
}

func TestRecordRejectsUnknownUser(t *testing.T) {
	router, _, _ := setupTest(t)

	req := httptest.NewRequest("POST", "/medical-data/user/999",
		recordBody(t, map[string]interface{}{"blood_sugar": 100.0}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestRecordDefaultsRecordedAt(t *testing.T) {
	router, db, _ := setupTest(t)
	user := createUser(t, db)

	before := time.Now()
	req := httptest.NewRequest("POST", fmt.Sprintf("/medical-data/user/%d", user.ID),
		recordBody(t, map[string]interface{}{"heart_rate": 72}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var stored models.MedicalData
	assert.NoError(t, db.First(&stored).Error)
	assert.False(t, stored.RecordedAt.Before(before.Add(-time.Second)))
}

func TestGetMedicalDataOrderedNewestFirst(t *testing.T) {
	router, db, _ := setupTest(t)
	user := createUser(t, db)

	older := models.MedicalData{UserID: user.ID, RecordedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.MedicalData{UserID: user.ID, RecordedAt: time.Now().Add(-1 * time.Hour)}
	assert.NoError(t, db.Create(&older).Error)
	assert.NoError(t, db.Create(&newer).Error)

	req := httptest.NewRequest("GET", fmt.Sprintf("/medical-data/user/%d", user.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var records []models.MedicalData
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}
