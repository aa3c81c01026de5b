package dto

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"gatepass_backend/internals/constants"
	uModel "gatepass_backend/internals/features/users/model"
)

var validate = validator.New()

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// RegisterRequest — self-register untuk parent
type RegisterRequest struct {
	UserName       string   `json:"user_name" validate:"required,min=3,max=100"`
	UserEmail      string   `json:"user_email" validate:"required,email,max=255"`
	UserPhone      string   `json:"user_phone" validate:"required,min=7,max=30"`
	UserPassword   string   `json:"user_password" validate:"required,min=8"`
	UserAddress    string   `json:"user_address" validate:"omitempty,max=500"`
	LinkedStudents []string `json:"linked_students" validate:"omitempty,dive,min=1"`
}

func (r *RegisterRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.UserEmail = strings.TrimSpace(strings.ToLower(r.UserEmail))
	r.UserPhone = strings.TrimSpace(r.UserPhone)
	r.UserAddress = strings.TrimSpace(r.UserAddress)
}

func (r *RegisterRequest) Validate() error { return validate.Struct(r) }

// ToModel — hash password di controller
func (r *RegisterRequest) ToModel() *uModel.UserModel {
	m := &uModel.UserModel{
		UserRole:     constants.RoleParent,
		UserName:     r.UserName,
		UserEmail:    r.UserEmail,
		UserPhone:    r.UserPhone,
		UserPassword: r.UserPassword,
		UserAddress:  r.UserAddress,
	}
	if len(r.LinkedStudents) > 0 {
		m.UserLinkedStudents = datatypes.NewJSONSlice(r.LinkedStudents)
	}
	return m
}

type LoginRequest struct {
	UserEmail    string `json:"user_email" validate:"required,email"`
	UserPassword string `json:"user_password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.UserEmail = strings.TrimSpace(strings.ToLower(r.UserEmail))
}

func (r *LoginRequest) Validate() error { return validate.Struct(r) }

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (r *ChangePasswordRequest) Validate() error { return validate.Struct(r) }

// UpdateProfileRequest — partial update (pointer = bedakan omit vs null)
type UpdateProfileRequest struct {
	UserName       *string   `json:"user_name,omitempty" validate:"omitempty,min=3,max=100"`
	UserPhone      *string   `json:"user_phone,omitempty" validate:"omitempty,min=7,max=30"`
	UserAddress    *string   `json:"user_address,omitempty" validate:"omitempty,max=500"`
	LinkedStudents *[]string `json:"linked_students,omitempty" validate:"omitempty,dive,min=1"`
}

func (r *UpdateProfileRequest) Normalize() {
	if r.UserName != nil {
		v := strings.TrimSpace(*r.UserName)
		r.UserName = &v
	}
	if r.UserPhone != nil {
		v := strings.TrimSpace(*r.UserPhone)
		r.UserPhone = &v
	}
	if r.UserAddress != nil {
		v := strings.TrimSpace(*r.UserAddress)
		r.UserAddress = &v
	}
}

func (r *UpdateProfileRequest) Validate() error { return validate.Struct(r) }

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type UserResponse struct {
	UserID         uuid.UUID  `json:"user_id"`
	UserRole       string     `json:"user_role"`
	UserName       string     `json:"user_name"`
	UserEmail      string     `json:"user_email"`
	UserPhone      string     `json:"user_phone"`
	UserAddress    string     `json:"user_address,omitempty"`
	UserSchoolID   *uuid.UUID `json:"user_school_id,omitempty"`
	LinkedStudents []string   `json:"linked_students,omitempty"`
	UserIsActive   bool       `json:"user_is_active"`
	UserLastLogin  *time.Time `json:"user_last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func FromModel(m *uModel.UserModel) UserResponse {
	return UserResponse{
		UserID:         m.UserID,
		UserRole:       m.UserRole,
		UserName:       m.UserName,
		UserEmail:      m.UserEmail,
		UserPhone:      m.UserPhone,
		UserAddress:    m.UserAddress,
		UserSchoolID:   m.UserSchoolID,
		LinkedStudents: m.UserLinkedStudents,
		UserIsActive:   m.UserIsActive,
		UserLastLogin:  m.UserLastLogin,
		CreatedAt:      m.CreatedAt,
	}
}
