package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"teamsync-server/internal/middleware"
	"teamsync-server/internal/model"
	"teamsync-server/pkg/config"
	"teamsync-server/pkg/database"
	"teamsync-server/pkg/jwtutil"
	"teamsync-server/pkg/mailer"
	"teamsync-server/pkg/otp"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeSender records delivered mail and can be told to fail.
type fakeSender struct {
	mu       sync.Mutex
	messages []fakeMessage
	fail     bool
}

type fakeMessage struct {
	To      string
	Subject string
	Body    string
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errSendFailed
	}
	f.messages = append(f.messages, fakeMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeSender) sent() []fakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

var errSendFailed = &sendError{}

type sendError struct{}

func (e *sendError) Error() string { return "smtp unavailable" }

// newTestServer wires an echo instance against an in-memory database with
// the same route table as main.
func newTestServer(t *testing.T) (*echo.Echo, *fakeSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	otp.Initialize(&config.OTPConfig{TTL: 5 * time.Minute, Length: 6})

	sender := &fakeSender{}
	mailer.SetSender(sender)

	e := echo.New()

	auth := e.Group("/api/auth")
	auth.POST("/signup", Signup)
	auth.POST("/login", Login)
	auth.POST("/forgot-password", ForgotPassword)
	auth.POST("/verify-otp", VerifyOTP)
	auth.GET("/me", GetProfile, middleware.AuthMiddleware)

	admin := e.Group("/api/admin", middleware.AuthMiddleware, middleware.RequireAdmin)
	admin.GET("/users", ListUsers)
	admin.PUT("/users/:id", UpdateUser)
	admin.DELETE("/users/:id", DeleteUser)
	admin.PUT("/users/:id/terminate", TerminateUser)
	admin.PUT("/users/:id/unlock", UnlockUser)
	admin.GET("/audit", ListAuditLog)

	e.POST("/api/support", SupportChat)

	return e, sender
}

// doJSON performs a request against the test server.
func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// createUser inserts a user directly, bypassing the signup endpoint.
func createUser(t *testing.T, email, companyID, role, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		FullName:      "Test User",
		CompanyID:     companyID,
		DOB:           time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Email:         email,
		Gender:        "Other",
		Role:          role,
		Password:      string(hash),
		ContactNumber: "1234567890",
	}
	require.NoError(t, database.GetDB().Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return token
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
