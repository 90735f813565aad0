package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/KBoateng5/CliniCore-server/cmd/models"
	"github.com/KBoateng5/CliniCore-server/cmd/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/signup", h.HandleSignup).Methods("POST")
	router.HandleFunc("/auth/login", h.HandleLogin).Methods("POST")
	router.HandleFunc("/auth/logout", h.HandleLogout).Methods("POST")
}

// AuthResponse is the body returned by signup and login.
type AuthResponse struct {
	Message     string     `json:"message"`
	Jwt         string     `json:"jwt,omitempty"`
	Role        string     `json:"role,omitempty"`
	UserID      uint       `json:"user_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthResponse{Message: message})
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var signupRequest struct {
		Email            string     `json:"email"`
		Password         string     `json:"password"`
		Role             string     `json:"role"`
		Name             string     `json:"name"`
		PhoneNumber      string     `json:"phone_number"`
		Birthday         *time.Time `json:"birthday"`
		SpecializationID *uint      `json:"specialization_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&signupRequest); err != nil {
		writeAuthError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrors utils.FieldErrors
	fieldErrors.RequireNotBlank("email", signupRequest.Email)
	fieldErrors.RequireNotBlank("name", signupRequest.Name)
	fieldErrors.RequireNotBlank("phone_number", signupRequest.PhoneNumber)
	if !fieldErrors.Empty() {
		fieldErrors.WriteBadRequest(w)
		return
	}

	if signupRequest.Password == "" {
		writeAuthError(w, http.StatusBadRequest, "Password cannot be null or empty")
		return
	}

	role := strings.ToUpper(signupRequest.Role)
	if role != models.RolePatient && role != models.RoleDoctor {
		writeAuthError(w, http.StatusBadRequest, "Role must be PATIENT or DOCTOR")
		return
	}

	var existingUser models.User
	if result := h.db.Where("email = ?", signupRequest.Email).First(&existingUser); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			writeAuthError(w, http.StatusInternalServerError, "Signup failed")
			return
		}
		log.Printf("Signup attempt with duplicate email: %s", signupRequest.Email)
		writeAuthError(w, http.StatusBadRequest, "Email already exists with another account")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(signupRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	user := models.User{
		Email:            signupRequest.Email,
		PasswordHash:     string(passwordHash),
		Role:             role,
		Name:             signupRequest.Name,
		PhoneNumber:      signupRequest.PhoneNumber,
		Birthday:         signupRequest.Birthday,
		SpecializationID: signupRequest.SpecializationID,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "duplicate key") {
			writeAuthError(w, http.StatusBadRequest, "Email already exists with another account")
			return
		}
		log.Printf("Error creating user: %v", err)
		writeAuthError(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	token, err := GenerateToken(user.Email, user.Role)
	if err != nil {
		log.Printf("Error generating token for %s: %v", user.Email, err)
		writeAuthError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Message:     "Signup success",
		Jwt:         token,
		Role:        user.Role,
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Birthday:    user.Birthday,
		PhoneNumber: user.PhoneNumber,
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		writeAuthError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", loginRequest.Email).First(&user).Error; err != nil {
		writeAuthError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		writeAuthError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !strings.EqualFold(user.Role, loginRequest.Role) {
		writeAuthError(w, http.StatusBadRequest, "Invalid role for this user")
		return
	}

	token, err := GenerateToken(user.Email, user.Role)
	if err != nil {
		log.Printf("Error generating token for %s: %v", user.Email, err)
		writeAuthError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Message:     "Login success",
		Jwt:         token,
		Role:        user.Role,
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Birthday:    user.Birthday,
		PhoneNumber: user.PhoneNumber,
	})
}

// HandleLogout blacklists the presented token until its natural expiry.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		http.Error(w, "Missing or invalid Authorization header", http.StatusBadRequest)
		return
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	// A signed token without an expiry claim cannot be blacklisted until a
	// known point in time; reject it outright.
	if claims.ExpiresAt == nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	blacklisted := models.BlacklistedToken{
		Token:         tokenString,
		BlacklistedAt: time.Now(),
		ExpiryDate:    claims.ExpiresAt.Time,
	}
	if err := h.db.Create(&blacklisted).Error; err != nil {
		log.Printf("Error blacklisting token: %v", err)
		http.Error(w, "Error logging out", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Logged out successfully",
	})
}

// GenerateToken issues an HS256 token embedding the user's email and role.
func GenerateToken(email, role string) (string, error) {
	claims := &utils.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}
