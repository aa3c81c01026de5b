package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
)

// UserModel merepresentasikan tabel users di database
type UserModel struct {
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	UserRole string    `gorm:"column:user_role;type:varchar(20);not null;index" json:"user_role"`

	UserName     string `gorm:"column:user_name;size:100;not null" json:"user_name"`
	UserEmail    string `gorm:"column:user_email;size:255;unique;not null" json:"user_email"`
	UserPhone    string `gorm:"column:user_phone;size:30;not null" json:"user_phone"`
	UserPassword string `gorm:"column:user_password;not null" json:"-"`
	UserAddress  string `gorm:"column:user_address;type:text" json:"user_address,omitempty"`

	// Tenant scope — hanya untuk role school_admin / security
	UserSchoolID *uuid.UUID `gorm:"column:user_school_id;type:uuid;index" json:"user_school_id,omitempty"`

	// Hanya untuk parent (invariant dijaga di BeforeSave)
	UserLinkedStudents datatypes.JSONSlice[string] `gorm:"column:user_linked_students" json:"user_linked_students,omitempty"`

	UserIsActive  bool       `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`
	UserLastLogin *time.Time `gorm:"column:user_last_login" json:"user_last_login,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (UserModel) TableName() string { return "users" }

var (
	ErrInvalidRole        = errors.New("user_role tidak dikenal")
	ErrSchoolScopeMissing = errors.New("role ini wajib terikat satu sekolah")
)

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// BeforeSave jaga invariant: linked students hanya untuk parent,
// role school-scoped wajib punya school_id.
func (u *UserModel) BeforeSave(tx *gorm.DB) error {
	valid := false
	for _, r := range constants.AllRoles {
		if u.UserRole == r {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidRole
	}

	if u.UserRole != constants.RoleParent {
		u.UserLinkedStudents = nil
	}
	if constants.IsSchoolScoped(u.UserRole) && u.UserSchoolID == nil {
		return ErrSchoolScopeMissing
	}
	return nil
}

func (u *UserModel) IsParent() bool { return u.UserRole == constants.RoleParent }
