package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RolePatient:
		return true
	}
	return false
}

// DaySchedule is the working window for a single weekday.
type DaySchedule struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// WeekSchedule maps lowercase weekday names to their working windows.
type WeekSchedule map[string]DaySchedule

func (s WeekSchedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *WeekSchedule) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for WeekSchedule: %T", src)
	}
	return json.Unmarshal(b, s)
}

// DefaultWeekSchedule is the schedule assigned to new staff accounts:
// weekdays 09:00-17:00, weekends off.
func DefaultWeekSchedule() WeekSchedule {
	return WeekSchedule{
		"monday":    {Start: "09:00", End: "17:00", Available: true},
		"tuesday":   {Start: "09:00", End: "17:00", Available: true},
		"wednesday": {Start: "09:00", End: "17:00", Available: true},
		"thursday":  {Start: "09:00", End: "17:00", Available: true},
		"friday":    {Start: "09:00", End: "17:00", Available: true},
		"saturday":  {Start: "10:00", End: "14:00", Available: false},
		"sunday":    {Start: "10:00", End: "14:00", Available: false},
	}
}

// User represents a system user
type User struct {
	Base
	Username     string         `json:"username" db:"username"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Role         Role           `json:"role" db:"role"`
	Schedule     WeekSchedule   `json:"schedule,omitempty" db:"schedule"`
	Specialties  pq.StringArray `json:"specialties,omitempty" db:"specialties"`
	Phone        *string        `json:"phone,omitempty" db:"phone"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Avatar       *string        `json:"avatar,omitempty" db:"avatar"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty" db:"last_login_at"`
}

// AuthorLabel resolves the display label used when the user authors a
// reply: username first, then email, then role.
func (u *User) AuthorLabel() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return string(u.Role)
}

// RegisterRequest represents self-service account creation parameters
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateStaffRequest represents staff account creation parameters
type CreateStaffRequest struct {
	Username    string       `json:"username" binding:"required"`
	Email       string       `json:"email" binding:"required,email"`
	Password    string       `json:"password" binding:"required,min=8"`
	Role        Role         `json:"role" binding:"omitempty,oneof=admin staff"`
	Specialties []string     `json:"specialties"`
	Schedule    WeekSchedule `json:"schedule"`
}

// UpdateStaffRequest represents staff account update parameters
type UpdateStaffRequest struct {
	Username    *string      `json:"username"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	Password    *string      `json:"password" binding:"omitempty,min=8"`
	Role        *Role        `json:"role" binding:"omitempty,oneof=admin staff patient"`
	Specialties []string     `json:"specialties"`
	Schedule    WeekSchedule `json:"schedule"`
}

// UpdateProfileRequest represents self-service profile update parameters
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

// ChangePasswordRequest represents a password change for the current user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}
