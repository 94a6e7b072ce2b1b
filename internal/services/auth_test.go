package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	// nil Redis skips OTP verification (dev mode)
	service := NewAuthService(db, nil)

	t.Run("successful user registration", func(t *testing.T) {
		req := RegisterRequest{
			Email:       "priya@example.com",
			Password:    "password123",
			Role:        "user",
			FirstName:   "Priya",
			LastName:    "Sharma",
			PhoneNumber: "+919812345678",
			OTP:         "123456",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Email, sqlmock.AnyArg(), req.FirstName, req.LastName, req.PhoneNumber).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, req.Email, response.Email)
		assert.Equal(t, "user", response.Role)
	})

	t.Run("successful artist registration", func(t *testing.T) {
		req := RegisterRequest{
			Email:       "studio@example.com",
			Password:    "password123",
			Role:        "artist",
			StudioName:  "Lens & Light Studios",
			Category:    "Photography",
			PhoneNumber: "+919812345679",
			OTP:         "123456",
		}

		mock.ExpectQuery("INSERT INTO artists").
			WithArgs(req.Email, sqlmock.AnyArg(), req.StudioName, req.PhoneNumber, req.Category).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 7, response.ID)
		assert.Equal(t, "artist", response.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := RegisterRequest{
			Email:       "priya@example.com",
			Password:    "password123",
			Role:        "user",
			FirstName:   "Priya",
			LastName:    "Sharma",
			PhoneNumber: "+919812345678",
			OTP:         "123456",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Email, sqlmock.AnyArg(), req.FirstName, req.LastName, req.PhoneNumber).
			WillReturnError(&pq.Error{Code: "23505"})

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("artist registration without studio name", func(t *testing.T) {
		req := RegisterRequest{
			Email:       "studio2@example.com",
			Password:    "password123",
			Role:        "artist",
			Category:    "Photography",
			PhoneNumber: "+919812345680",
			OTP:         "123456",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	service := NewAuthService(db, nil)

	t.Run("successful user login", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, role, password FROM users").
			WithArgs("priya@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "password"}).
				AddRow(1, "user", hashedPassword))

		req := LoginRequest{
			Email:    "priya@example.com",
			Password: "password123",
			Role:     "user",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "user", response.Role)
	})

	t.Run("successful artist login", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, password FROM artists").
			WithArgs("studio@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password"}).
				AddRow(7, hashedPassword))

		req := LoginRequest{
			Email:    "studio@example.com",
			Password: "password123",
			Role:     "artist",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "artist", response.Role)
	})

	t.Run("account not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, role, password FROM users").
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		req := LoginRequest{
			Email:    "nobody@example.com",
			Password: "password123",
			Role:     "user",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, role, password FROM users").
			WithArgs("priya@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "password"}).
				AddRow(1, "user", hashedPassword))

		req := LoginRequest{
			Email:    "priya@example.com",
			Password: "wrong-password",
			Role:     "user",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	hashed, err := hashPassword("secret-password")
	assert.NoError(t, err)
	assert.NotEqual(t, "secret-password", hashed)

	assert.True(t, verifyPassword("secret-password", hashed))
	assert.False(t, verifyPassword("other-password", hashed))
	assert.False(t, verifyPassword("secret-password", "malformed"))

	// each hash gets a fresh salt
	hashed2, err := hashPassword("secret-password")
	assert.NoError(t, err)
	assert.NotEqual(t, hashed, hashed2)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		otp := generateOTP()
		assert.Len(t, otp, 6)
		for _, c := range otp {
			assert.True(t, c >= '0' && c <= '9', "OTP %q contains non-digit", otp)
		}
	}
}
