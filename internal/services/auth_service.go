package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shaadisync/backend/internal/middleware"
	"github.com/shaadisync/backend/internal/models"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *validator.Validate
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // Account email
	Password string `json:"password" validate:"required,min=6" example:"password123"`   // Account password
	Role     string `json:"role" validate:"required,oneof=user artist" example:"user"`  // Account kind
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email" example:"user@example.com"`
	Password    string `json:"password" validate:"required,min=6" example:"password123"`
	Role        string `json:"role" validate:"required,oneof=user artist" example:"user"`
	FirstName   string `json:"firstName" validate:"required_if=Role user,omitempty,min=2" example:"Priya"`
	LastName    string `json:"lastName" validate:"required_if=Role user,omitempty,min=2" example:"Sharma"`
	StudioName  string `json:"studioName" validate:"required_if=Role artist,omitempty,min=2" example:"Lens & Light Studios"`
	Category    string `json:"category" validate:"required_if=Role artist" example:"Photography"`
	PhoneNumber string `json:"phoneNumber" validate:"required" example:"+919812345678"`
	OTP         string `json:"otp" validate:"required,len=6"` // phone verification code
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	ID    int    `json:"id" example:"1"`
	Email string `json:"email" example:"user@example.com"`
	Role  string `json:"role" example:"user"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: validator.New(),
	}
}

func (s *AuthService) sendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	SendErrorResponse(w, message, statusCode, validationErr)
}

// Register handles user and artist registration
// @Summary Register an account
// @Description Register a new user or artist account after OTP phone verification
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} AuthResponse "Registration successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid or expired OTP"
// @Failure 409 {string} string "Email already exists"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !s.consumeOTP(r.Context(), req.PhoneNumber, req.OTP) {
		log.Printf("[AUTH] Invalid OTP for phone number: %s", req.PhoneNumber)
		s.sendErrorResponse(w, "Invalid or expired OTP", http.StatusUnauthorized, nil)
		return
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	email := strings.ToLower(req.Email)
	var accountID int
	if req.Role == middleware.RoleArtist {
		err = s.db.QueryRow(`
			INSERT INTO artists (email, password, studio_name, phone_number, category)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			email, hashedPassword, req.StudioName, req.PhoneNumber, req.Category).Scan(&accountID)
	} else {
		err = s.db.QueryRow(`
			INSERT INTO users (email, password, first_name, last_name, phone_number)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			email, hashedPassword, req.FirstName, req.LastName, req.PhoneNumber).Scan(&accountID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			log.Printf("[AUTH] Duplicate email on registration: %s", email)
			s.sendErrorResponse(w, "Email Already Exists", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] Account creation failed for %s: %v", email, err)
		s.sendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Account created successfully - ID: %d, Email: %s, Role: %s", accountID, email, req.Role)

	token, err := generateJWT(accountID, req.Role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for account %d: %v", accountID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, AuthResponse{Token: token, ID: accountID, Email: email, Role: req.Role})
}

// Login handles authentication for users and artists
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(req.Email)

	var accountID int
	var role, hashedPassword string
	var err error
	if req.Role == middleware.RoleArtist {
		role = middleware.RoleArtist
		err = s.db.QueryRow("SELECT id, password FROM artists WHERE email = $1", email).
			Scan(&accountID, &hashedPassword)
	} else {
		// users.role distinguishes admins from regular users
		err = s.db.QueryRow("SELECT id, role, password FROM users WHERE email = $1", email).
			Scan(&accountID, &role, &hashedPassword)
	}
	if err != nil {
		log.Printf("[AUTH] Account not found for email: %s (%s)", email, req.Role)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for account: %s", email)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := generateJWT(accountID, role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for account %d: %v", accountID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for account %d (%s)", accountID, role)
	SendJSON(w, http.StatusOK, AuthResponse{Token: token, ID: accountID, Email: email, Role: role})
}

// Logout handles logout
// @Summary Logout
// @Description Logout and blacklist the presented token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			// Blacklist token until its expiration
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// SendOTP generates a phone verification code for signup
// @Summary Send signup OTP
// @Description Generate a one-time code for phone verification (delivery is out of scope; the code is logged)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{phoneNumber=string} true "OTP request"
// @Success 200 {object} map[string]interface{} "OTP sent"
// @Failure 400 {string} string "Invalid request"
// @Router /auth/send-otp [post]
func (s *AuthService) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber" validate:"required,min=8,max=16"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	otp := generateOTP()
	key := fmt.Sprintf("signup_otp:%s", req.PhoneNumber)

	if s.redis != nil {
		if err := s.redis.Set(r.Context(), key, otp, 10*time.Minute).Err(); err != nil {
			log.Printf("[AUTH] Failed to store OTP in Redis: %v", err)
			s.sendErrorResponse(w, "Failed to generate OTP", http.StatusInternalServerError, nil)
			return
		}
	}

	// Delivery is an external concern; an SMS gateway would pick this up.
	log.Printf("[AUTH] OTP generated for phone %s: %s", req.PhoneNumber, otp)

	SendJSON(w, http.StatusOK, map[string]any{
		"message": "OTP Sent Successfully",
		"valid":   true,
	})
}

// VerifyOTP checks a phone verification code without consuming it
// @Summary Verify signup OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{phoneNumber=string,otp=string} true "OTP verification request"
// @Success 200 {object} map[string]interface{} "OTP valid"
// @Failure 401 {string} string "Invalid or expired OTP"
// @Router /auth/verify-otp [post]
func (s *AuthService) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber" validate:"required,min=8,max=16"`
		OTP         string `json:"otp" validate:"required,len=6"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if s.redis != nil {
		key := fmt.Sprintf("signup_otp:%s", req.PhoneNumber)
		storedOTP, err := s.redis.Get(r.Context(), key).Result()
		if err != nil || storedOTP != req.OTP {
			log.Printf("[AUTH] Invalid OTP for phone %s", req.PhoneNumber)
			s.sendErrorResponse(w, "Invalid or expired OTP", http.StatusUnauthorized, nil)
			return
		}
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"message": "OTP Verified Successfully",
		"valid":   true,
	})
}

// GetAccount returns the authenticated account
// @Summary Get account details
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "Account details"
// @Failure 401 {string} string "Unauthorized"
// @Router /auth/account [get]
func (s *AuthService) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(r)
	if !ok {
		s.sendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	role, _ := r.Context().Value(middleware.RoleKey).(string)

	if role == middleware.RoleArtist {
		var artist models.Artist
		err := s.db.QueryRow(`
			SELECT id, email, studio_name, phone_number, category, balance_cents, max_charge_cents, is_verified, is_blocked, created_at, updated_at
			FROM artists WHERE id = $1`, accountID).
			Scan(&artist.ID, &artist.Email, &artist.StudioName, &artist.PhoneNumber, &artist.Category,
				&artist.BalanceCents, &artist.MaxChargeCents, &artist.IsVerified, &artist.IsBlocked,
				&artist.CreatedAt, &artist.UpdatedAt)
		if err != nil {
			s.sendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
			return
		}
		SendJSON(w, http.StatusOK, artist)
		return
	}

	var user models.User
	err := s.db.QueryRow(`
		SELECT id, email, first_name, last_name, phone_number, role, sync_coins, created_at, updated_at
		FROM users WHERE id = $1`, accountID).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PhoneNumber,
			&user.Role, &user.SyncCoins, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		s.sendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	SendJSON(w, http.StatusOK, user)
}

// consumeOTP checks and deletes a signup OTP. Without Redis (dev mode) the
// check is skipped.
func (s *AuthService) consumeOTP(ctx context.Context, phoneNumber, otp string) bool {
	if s.redis == nil {
		return true
	}

	key := fmt.Sprintf("signup_otp:%s", phoneNumber)
	stored, err := s.redis.Get(ctx, key).Result()
	if err != nil || stored != otp {
		return false
	}

	s.redis.Del(ctx, key)
	return true
}

func generateJWT(accountID int, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": accountID,
		"role":    role,
		"exp":     time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}

func generateOTP() string {
	b := make([]byte, 4)
	cryptorand.Read(b)
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(b)%1000000)
}
