package handler

import (
	"net/http"
	"time"

	"teamsync-server/internal/middleware"
	"teamsync-server/internal/model"
	"teamsync-server/pkg/database"
	"teamsync-server/pkg/logger"
	"teamsync-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// actorID returns the authenticated admin's user ID from the context.
func actorID(c echo.Context) uint {
	id, _ := c.Get(middleware.UserIDKey).(uint)
	return id
}

// recordAudit appends an audit row for an admin mutation. A failed append
// is logged but never fails the action that triggered it.
func recordAudit(c echo.Context, action string, targetID uint, detail string) {
	entry := model.AuditLog{
		ActorID:  actorID(c),
		Action:   action,
		TargetID: targetID,
		Detail:   detail,
	}
	if err := database.GetDB().Create(&entry).Error; err != nil {
		logger.FromContext(c).Error("Failed to record audit entry",
			zap.String("action", action), zap.Uint("target_id", targetID), zap.Error(err))
	}
}

// ListUsers returns all users minus their password hashes
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAdminOperation("list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if result := database.GetDB().Order("id").Find(&users); result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	return c.JSON(http.StatusOK, users)
}

// UpdateUser applies a partial update to a user record
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAdminOperation("update")

	var req struct {
		FullName      *string `json:"fullName"`
		CompanyID     *string `json:"companyID"`
		DOB           *string `json:"dob"`
		Email         *string `json:"email"`
		Gender        *string `json:"gender"`
		Role          *string `json:"role"`
		ContactNumber *string `json:"contactNumber"`
		Locked        *bool   `json:"locked"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.CompanyID != nil {
		if !companyIDRe.MatchString(*req.CompanyID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Company ID must be TS followed by 5 digits."})
		}
		updates["company_id"] = *req.CompanyID
	}
	if req.DOB != nil {
		dob, err := time.Parse("2006-01-02", *req.DOB)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid date of birth."})
		}
		updates["dob"] = dob
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Gender != nil {
		if !model.ValidGender(*req.Gender) {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid gender."})
		}
		updates["gender"] = *req.Gender
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid role."})
		}
		updates["role"] = *req.Role
	}
	if req.ContactNumber != nil {
		if !contactNumberRe.MatchString(*req.ContactNumber) {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Contact number must have exactly 10 digits."})
		}
		updates["contact_number"] = *req.ContactNumber
	}
	if req.Locked != nil {
		updates["locked"] = *req.Locked
	}

	if len(updates) > 0 {
		if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
			log.Error("Failed to update user", zap.Uint("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
		}
	}

	recordAudit(c, model.AuditActionUpdate, user.ID, "user details updated")
	log.Info("User updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"msg": "User updated successfully!", "user": user})
}

// DeleteUser removes a user record permanently
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAdminOperation("delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
	}

	if err := database.GetDB().Delete(&user).Error; err != nil {
		log.Error("Failed to delete user", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	recordAudit(c, model.AuditActionDelete, user.ID, "user deleted")
	log.Info("User deleted", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"msg": "User deleted successfully!"})
}

// setLocked flips the lock flag. Both transitions are idempotent.
func setLocked(c echo.Context, locked bool) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"msg": "User not found"})
	}

	if err := database.GetDB().Model(&user).Update("locked", locked).Error; err != nil {
		log.Error("Failed to change lock state", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}
	user.Locked = locked

	if locked {
		recordAudit(c, model.AuditActionTerminate, user.ID, "account locked")
		log.Info("User account locked", zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusOK, echo.Map{"msg": "User account locked", "user": user})
	}

	recordAudit(c, model.AuditActionUnlock, user.ID, "account unlocked")
	log.Info("User account unlocked", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"msg": "User account unlocked", "user": user})
}

// TerminateUser locks a user account, blocking authentication
func TerminateUser(c echo.Context) error {
	prometheus.RecordAdminOperation("terminate")
	return setLocked(c, true)
}

// UnlockUser clears the lock flag on a user account
func UnlockUser(c echo.Context) error {
	prometheus.RecordAdminOperation("unlock")
	return setLocked(c, false)
}

// ListAuditLog returns the audit trail, newest entries first
func ListAuditLog(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAdminOperation("audit")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var entries []model.AuditLog
	if result := database.GetDB().Order("id DESC").Find(&entries); result.Error != nil {
		log.Error("Failed to list audit log", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "Server Error"})
	}

	return c.JSON(http.StatusOK, entries)
}
