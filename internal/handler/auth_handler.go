package handler

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"teamsync-server/internal/middleware"
	"teamsync-server/internal/model"
	"teamsync-server/pkg/database"
	"teamsync-server/pkg/jwtutil"
	"teamsync-server/pkg/logger"
	"teamsync-server/pkg/mailer"
	"teamsync-server/pkg/otp"
	"teamsync-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	contactNumberRe = regexp.MustCompile(`^[0-9]{10}$`)
	companyIDRe     = regexp.MustCompile(`^TS[0-9]{5}$`)

	errDuplicateUser = errors.New("user with email or company ID already exists")
)

// ageAt computes full years between dob and now, counting a birthday that
// falls on now's month/day as already reached.
func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// findByIdentifier looks a user up by email or company ID.
func findByIdentifier(email, companyID string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ? OR company_id = ?", email, companyID).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	// Parse request
	var req struct {
		FullName      string `json:"fullName"`
		CompanyID     string `json:"companyID"`
		DOB           string `json:"dob"`
		Email         string `json:"email"`
		Gender        string `json:"gender"`
		Role          string `json:"role"`
		Password      string `json:"password"`
		ContactNumber string `json:"contactNumber"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please fill all fields"})
	}

	if req.FullName == "" || req.CompanyID == "" || req.DOB == "" || req.Email == "" ||
		req.Gender == "" || req.Role == "" || req.Password == "" || req.ContactNumber == "" {
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please fill all fields"})
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		prometheus.RecordAuthError("invalid_dob")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid date of birth."})
	}

	// Age validation (must be at least 18)
	if ageAt(dob, time.Now()) < 18 {
		prometheus.RecordAuthError("underage")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "You must be at least 18 years old to sign up."})
	}

	// Contact number validation (must have exactly 10 digits)
	if !contactNumberRe.MatchString(req.ContactNumber) {
		prometheus.RecordAuthError("invalid_contact_number")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Contact number must have exactly 10 digits."})
	}

	if !companyIDRe.MatchString(req.CompanyID) {
		prometheus.RecordAuthError("invalid_company_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Company ID must be TS followed by 5 digits."})
	}

	if !model.ValidGender(req.Gender) {
		prometheus.RecordAuthError("invalid_gender")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid gender."})
	}

	if !model.ValidRole(req.Role) {
		prometheus.RecordAuthError("invalid_role")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid role."})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	user := model.User{
		FullName:      req.FullName,
		CompanyID:     req.CompanyID,
		DOB:           dob,
		Email:         req.Email,
		Gender:        req.Gender,
		Role:          req.Role,
		Password:      string(hashedPassword),
		ContactNumber: req.ContactNumber,
	}

	// Existence check and insert run in one transaction so concurrent
	// signups can't both pass the check. The unique indexes on email and
	// company_id are the backstop.
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).
			Where("email = ? OR company_id = ?", req.Email, req.CompanyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateUser
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, errDuplicateUser) {
			log.Error("User already exists", zap.String("email", req.Email), zap.String("company_id", req.CompanyID))
			prometheus.RecordAuthError("user_already_exists")
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "User with Email or CompanyID already exists."})
		}
		log.Error("Failed to create user", zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	log.Info("User registered", zap.String("email", user.Email), zap.String("company_id", user.CompanyID))
	return c.JSON(http.StatusCreated, echo.Map{"msg": "Signup Complete"})
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email     string `json:"email"`
		CompanyID string `json:"companyID"`
		Password  string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please enter CompanyID/Email and Password."})
	}

	if (req.Email == "" && req.CompanyID == "") || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please enter CompanyID/Email and Password."})
	}

	// Unknown identifier and wrong password return the same response, so
	// login never confirms whether an account exists.
	user, err := findByIdentifier(req.Email, req.CompanyID)
	if err != nil {
		log.Error("User not found", zap.String("email", req.Email), zap.String("company_id", req.CompanyID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "CompanyID/Email or Password incorrect!"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", user.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "CompanyID/Email or Password incorrect!"})
	}

	// The lock check runs after password verification so a locked response
	// only reaches callers holding valid credentials.
	if user.Locked {
		log.Error("Locked account login attempt", zap.String("email", user.Email))
		prometheus.RecordAuthError("account_locked")
		return c.JSON(http.StatusForbidden, echo.Map{"msg": "Your account has been locked. Please contact an administrator."})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in", zap.String("email", user.Email), zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"msg":       "Login successful!",
		"token":     token,
		"role":      user.Role,
		"fullName":  user.FullName,
		"companyID": user.CompanyID,
	})
}

// GetProfile returns the authenticated user's record minus the password
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get(middleware.UserIDKey).(uint)
	if !ok {
		prometheus.RecordAuthError("missing_identity")
		return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Invalid token"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("Profile user not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
	}

	return c.JSON(http.StatusOK, user)
}

func ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.ForgotPasswordCounter.Inc()

	var req struct {
		Email     string `json:"email"`
		CompanyID string `json:"companyID"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse forgot-password request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please enter CompanyID/Email."})
	}

	user, err := findByIdentifier(req.Email, req.CompanyID)
	if err != nil {
		log.Error("Forgot-password user not found", zap.String("email", req.Email), zap.String("company_id", req.CompanyID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found!"})
	}

	code, err := otp.NewCode()
	if err != nil {
		log.Error("Failed to generate OTP", zap.Error(err))
		prometheus.RecordAuthError("otp_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	// One outstanding code per email: issuing a new one invalidates any
	// earlier codes. The code is always linked to the resolved email, not
	// the identifier the caller supplied.
	record := model.OneTimePassword{Email: user.Email, Code: code, IssuedAt: time.Now()}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", user.Email).Delete(&model.OneTimePassword{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		log.Error("Failed to store OTP", zap.Error(err))
		prometheus.RecordAuthError("otp_store_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	// The code is useless if it never arrives, so mail failure fails the
	// request. Deleting the stored code keeps the store consistent.
	if err := mailer.SendOTP(c.Request().Context(), user.Email, code, otp.TTL()); err != nil {
		log.Error("Email sending error", zap.Error(err))
		if delErr := database.GetDB().Delete(&model.OneTimePassword{}, record.ID).Error; delErr != nil {
			log.Error("Failed to remove undelivered OTP", zap.Error(delErr))
		}
		prometheus.RecordAuthError("otp_mail_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Error sending OTP via email"})
	}

	log.Info("OTP sent", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"msg": "OTP sent successfully to your email!"})
}

func VerifyOTP(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.VerifyOTPCounter.Inc()

	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse verify-otp request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please provide email, OTP, and new password."})
	}

	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		prometheus.RecordAuthError("incomplete_verify_otp")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Please provide email, OTP, and new password."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var record model.OneTimePassword
	result := database.GetDB().Where("email = ? AND code = ?", req.Email, req.OTP).First(&record)
	if result.Error != nil {
		log.Error("OTP not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_otp")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid or expired OTP."})
	}

	// Expiry is checked against the clock, not left to storage lifetime.
	if record.Expired(time.Now(), otp.TTL()) {
		if err := database.GetDB().Delete(&model.OneTimePassword{}, record.ID).Error; err != nil {
			log.Error("Failed to delete expired OTP", zap.Error(err))
		}
		prometheus.RecordAuthError("expired_otp")
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid or expired OTP."})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	// Replace the password and consume the code in one transaction so the
	// code is single-use even under concurrent verification attempts.
	var user model.User
	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", req.Email).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.OneTimePassword{}, record.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("OTP already consumed or user missing", zap.String("email", req.Email))
			prometheus.RecordAuthError("invalid_otp")
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid or expired OTP."})
		}
		log.Error("Failed to reset password", zap.Error(err))
		prometheus.RecordAuthError("password_reset_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	// Best-effort confirmation; delivery failure is logged, not surfaced.
	mailer.SendResetConfirmation(user.Email, user.FullName)

	log.Info("Password reset", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password successfully reset!"})
}
