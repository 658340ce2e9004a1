package model

import (
	"time"
)

// Gender values accepted at signup.
var Genders = []string{"Male", "Female", "Other"}

// Roles a user can hold. Admin is the only role with access to the
// user-management endpoints.
var Roles = []string{"Employee", "Business owner", "Team Leads", "HR", "Admin", "IT support", "Manager"}

const RoleAdmin = "Admin"

// User represents the user model stored in the database
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FullName      string    `json:"fullName" gorm:"type:varchar(100);not null"`
	CompanyID     string    `json:"companyID" gorm:"type:varchar(20);uniqueIndex;not null"`
	DOB           time.Time `json:"dob" gorm:"not null"`
	Email         string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Gender        string    `json:"gender" gorm:"type:varchar(10);not null"`
	Role          string    `json:"role" gorm:"type:varchar(30);not null"`
	Password      string    `json:"-" gorm:"type:varchar(255);not null"`
	ContactNumber string    `json:"contactNumber" gorm:"type:varchar(10);not null"`
	Locked        bool      `json:"locked" gorm:"default:false"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	for _, v := range Genders {
		if v == g {
			return true
		}
	}
	return false
}

// ValidRole reports whether r is one of the accepted roles.
func ValidRole(r string) bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}
