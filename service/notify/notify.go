package notify

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// Mailer sends a plain-text email.
type Mailer interface {
	Send(to, subject, body string) error
}

// PushClient publishes a push message. Satisfied by *expo.PushClient.
type PushClient interface {
	Publish(message *expo.PushMessage) (expo.PushResponse, error)
}

// SMTPMailer delivers mail through the SMTP server configured in the
// environment.
type SMTPMailer struct{}

func (SMTPMailer) Send(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %v", err)
	}
	d := gomail.NewDialer(smtpHost, port, smtpUser, smtpPass)

	return d.DialAndSend(m)
}

// Service fans a notification out to a user's email address and registered
// devices, recording history rows for pushes.
type Service struct {
	db   *gorm.DB
	mail Mailer
	push PushClient
}

func NewService(db *gorm.DB, mail Mailer, push PushClient) *Service {
	return &Service{db: db, mail: mail, push: push}
}

// NewSMTPService wires the production mailer and expo push client.
func NewSMTPService(db *gorm.DB) *Service {
	return &Service{db: db, mail: SMTPMailer{}, push: expo.NewPushClient(nil)}
}

func (s *Service) SendEmail(to, subject, body string) error {
	return s.mail.Send(to, subject, body)
}

// SendPush delivers a push notification to every device registered for the
// user. Invalid tokens are removed, and a history row records the outcome.
func (s *Service) SendPush(userID uint, title, body string) error {
	var devices []models.Device
	if err := s.db.Where("user_id = ?", userID).Find(&devices).Error; err != nil {
		return err
	}
	if len(devices) == 0 || s.push == nil {
		return nil
	}

	var validTokens []expo.ExponentPushToken
	for _, device := range devices {
		pushToken, err := expo.NewExponentPushToken(device.Token)
		if err != nil {
			log.Printf("Removing invalid push token for user %d: %v", userID, err)
			s.db.Delete(&models.Device{}, device.ID)
			continue
		}
		validTokens = append(validTokens, pushToken)
	}
	if len(validTokens) == 0 {
		return nil
	}

	pushMessage := &expo.PushMessage{
		To:       validTokens,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	}

	status := "sent"
	response, err := s.push.Publish(pushMessage)
	if err != nil {
		status = "failed"
	} else if validationErr := response.ValidateResponse(); validationErr != nil {
		log.Printf("Push notification validation error: %v", validationErr)
		status = "failed"
	}

	history := models.NotificationHistory{
		UserID: userID,
		Title:  title,
		Body:   body,
		Status: status,
		SentAt: time.Now(),
	}
	if dbErr := s.db.Create(&history).Error; dbErr != nil {
		log.Printf("Error creating notification history: %v", dbErr)
	}

	return err
}

// Notify sends both email and push, logging push failures since email is the
// primary channel.
func (s *Service) Notify(user *models.User, subject, body string) error {
	if err := s.SendEmail(user.Email, subject, body); err != nil {
		return err
	}
	if err := s.SendPush(user.ID, subject, body); err != nil {
		log.Printf("Error sending push notification to user %d: %v", user.ID, err)
	}
	return nil
}
