package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/api"
	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/db"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"github.com/KBoateng5/CliniCore-server/service/reminder"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		case "clear-db":
			runDatabaseClear()
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer()
}

func runMigrations() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {
	migrations := map[interface{}]string{
		&models.User{}:                "User",
		&models.Specialization{}:      "Specialization",
		&models.PatientProfile{}:      "PatientProfile",
		&models.Appointment{}:         "Appointment",
		&models.AppointmentReminder{}: "AppointmentReminder",
		&models.MedicalData{}:         "MedicalData",
		&models.MedicalRecord{}:       "MedicalRecord",
		&models.Medication{}:          "Medication",
		&models.MedicationReminder{}:  "MedicationReminder",
		&models.MedicationIntake{}:    "MedicationIntake",
		&models.BlacklistedToken{}:    "BlacklistedToken",
		&models.Device{}:              "Device",
		&models.NotificationHistory{}: "NotificationHistory",
	}

	log.Println("Starting database migrations...")
	for model, name := range migrations {
		log.Printf("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		log.Printf("%s migration successful", name)
	}

	log.Println("All migrations completed successfully")
	return nil
}

func startServer() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	notifier := notify.NewSMTPService(DB)

	scheduler := reminder.NewScheduler(DB, notifier, schedulerInterval())
	scheduler.Start()
	defer scheduler.Stop()

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	server := api.NewApiServer(":"+port, DB, notifier)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-quit
	log.Println("Shutting down server...")
}

func schedulerInterval() time.Duration {
	seconds, err := strconv.Atoi(os.Getenv("REMINDER_INTERVAL_SECONDS"))
	if err != nil || seconds <= 0 {
		return reminder.DefaultInterval
	}
	return time.Duration(seconds) * time.Second
}

func clearDatabase(DB *gorm.DB, tables []interface{}) error {
	if len(tables) == 0 {
		tables = []interface{}{
			&models.AppointmentReminder{},
			&models.Appointment{},
			&models.MedicationIntake{},
			&models.MedicationReminder{},
			&models.Medication{},
			&models.MedicalData{},
			&models.MedicalRecord{},
			&models.PatientProfile{},
			&models.Device{},
			&models.NotificationHistory{},
			&models.BlacklistedToken{},
			&models.User{},
			&models.Specialization{},
		}
	}

	log.Println("Dropping tables...")

	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			log.Printf("Warning dropping table %T: %v", table, err)
		} else {
			log.Printf("Table %T dropped", table)
		}
	}

	return nil
}

func runDatabaseClear() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	var tableNames string
	fmt.Print("Enter table names to clear (comma separated) or leave blank to clear all: ")
	fmt.Scanln(&tableNames)

	var tables []interface{}
	if tableNames != "" {
		for _, table := range strings.Split(tableNames, ",") {
			switch strings.TrimSpace(table) {
			case "User":
				tables = append(tables, &models.User{})
			case "Specialization":
				tables = append(tables, &models.Specialization{})
			case "PatientProfile":
				tables = append(tables, &models.PatientProfile{})
			case "Appointment":
				tables = append(tables, &models.Appointment{})
			case "AppointmentReminder":
				tables = append(tables, &models.AppointmentReminder{})
			case "MedicalData":
				tables = append(tables, &models.MedicalData{})
			case "MedicalRecord":
				tables = append(tables, &models.MedicalRecord{})
			case "Medication":
				tables = append(tables, &models.Medication{})
			case "MedicationReminder":
				tables = append(tables, &models.MedicationReminder{})
			case "MedicationIntake":
				tables = append(tables, &models.MedicationIntake{})
			case "BlacklistedToken":
				tables = append(tables, &models.BlacklistedToken{})
			case "Device":
				tables = append(tables, &models.Device{})
			case "NotificationHistory":
				tables = append(tables, &models.NotificationHistory{})
			default:
				log.Printf("Unknown table: %s", table)
			}
		}
	}

	if err := clearDatabase(DB, tables); err != nil {
		log.Fatalf("Error clearing database: %v", err)
	}

	log.Println("Database cleared successfully")
}
