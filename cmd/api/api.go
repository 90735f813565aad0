package api

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/KBoateng5/CliniCore-server/cmd/utils"
	"github.com/KBoateng5/CliniCore-server/service/appointment"
	"github.com/KBoateng5/CliniCore-server/service/auth"
	"github.com/KBoateng5/CliniCore-server/service/medicaldata"
	"github.com/KBoateng5/CliniCore-server/service/medicalrecord"
	"github.com/KBoateng5/CliniCore-server/service/medication"
	"github.com/KBoateng5/CliniCore-server/service/notification"
	"github.com/KBoateng5/CliniCore-server/service/notify"
	"github.com/KBoateng5/CliniCore-server/service/specialization"
	"github.com/KBoateng5/CliniCore-server/service/user"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address  string
	db       *gorm.DB
	notifier *notify.Service
}

func NewApiServer(address string, db *gorm.DB, notifier *notify.Service) *APIServer {
	return &APIServer{
		address:  address,
		db:       db,
		notifier: notifier,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api").Subrouter()

	// Auth endpoints and the specialization catalog are reachable without a
	// token; everything else requires one.
	authHandler := auth.NewHandler(s.db)
	authHandler.RegisterRoutes(subrouter)

	specializationHandler := specialization.NewSpecializationHandler(s.db)
	specializationHandler.RegisterRoutes(subrouter)

	protected := subrouter.NewRoute().Subrouter()
	protected.Use(utils.AuthMiddleware(s.db))

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(protected)

	appointmentHandler := appointment.NewAppointmentHandler(s.db)
	appointmentHandler.RegisterRoutes(protected)

	medicalDataHandler := medicaldata.NewMedicalDataHandler(s.db, s.notifier)
	medicalDataHandler.RegisterRoutes(protected)

	medicationHandler := medication.NewMedicationHandler(s.db)
	medicationHandler.RegisterRoutes(protected)

	medicalRecordHandler := medicalrecord.NewMedicalRecordHandler(s.db)
	medicalRecordHandler.RegisterRoutes(protected)

	notificationHandler := notification.NewNotificationHandler(s.db)
	notificationHandler.RegisterRoutes(protected)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, corsHandler()(router))
}

// corsHandler builds the allow-list CORS wrapper for the frontend origins.
func corsHandler() func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000", "http://localhost:3001"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{"Authorization"}),
		handlers.AllowCredentials(),
		handlers.MaxAge(3600),
	)
}
