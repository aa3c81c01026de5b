package dto

import (
	"strings"

	"github.com/google/uuid"

	"gatepass_backend/internals/constants"
	uModel "gatepass_backend/internals/features/users/model"
)

// CreateSchoolUserRequest — school admin menambah akun staf
// (security atau school_admin lain) untuk sekolahnya sendiri.
type CreateSchoolUserRequest struct {
	UserName     string `json:"user_name" validate:"required,min=3,max=100"`
	UserEmail    string `json:"user_email" validate:"required,email,max=255"`
	UserPhone    string `json:"user_phone" validate:"required,min=7,max=30"`
	UserPassword string `json:"user_password" validate:"required,min=8"`
	UserRole     string `json:"user_role" validate:"required,oneof=security school_admin"`
}

func (r *CreateSchoolUserRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.UserEmail = strings.TrimSpace(strings.ToLower(r.UserEmail))
	r.UserPhone = strings.TrimSpace(r.UserPhone)
}

func (r *CreateSchoolUserRequest) Validate() error { return validate.Struct(r) }

func (r *CreateSchoolUserRequest) ToModel(schoolID uuid.UUID) *uModel.UserModel {
	role := r.UserRole
	if role == "" {
		role = constants.RoleSecurity
	}
	return &uModel.UserModel{
		UserRole:     role,
		UserName:     r.UserName,
		UserEmail:    r.UserEmail,
		UserPhone:    r.UserPhone,
		UserPassword: r.UserPassword,
		UserSchoolID: &schoolID,
		UserIsActive: true,
	}
}

// UpdateSchoolUserRequest — partial update akun staf
type UpdateSchoolUserRequest struct {
	UserName     *string `json:"user_name,omitempty" validate:"omitempty,min=3,max=100"`
	UserPhone    *string `json:"user_phone,omitempty" validate:"omitempty,min=7,max=30"`
	UserIsActive *bool   `json:"user_is_active,omitempty"`
}

func (r *UpdateSchoolUserRequest) Validate() error { return validate.Struct(r) }
