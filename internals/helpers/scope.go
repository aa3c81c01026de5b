package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Scope adalah identitas caller yang SUDAH diresolve middleware.
// Semua operasi inti menerima scope eksplisit ini — tidak pernah
// membaca ulang token/ambient state sendiri.
type Scope struct {
	UserID   uuid.UUID
	Role     string
	SchoolID uuid.UUID // uuid.Nil untuk role tanpa sekolah (parent, system_admin)
}

func (s Scope) HasSchool() bool { return s.SchoolID != uuid.Nil }

// Nama locals — diisi oleh middleware auth, dibaca di sini saja
const (
	LocUserID   = "user_id"
	LocUserRole = "user_role"
	LocSchoolID = "school_id"
)

func GetUserUUID(c *fiber.Ctx) uuid.UUID {
	if v, ok := c.Locals(LocUserID).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func GetUserRole(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocUserRole).(string); ok {
		return v
	}
	return ""
}

func GetSchoolUUID(c *fiber.Ctx) uuid.UUID {
	if v, ok := c.Locals(LocSchoolID).(string); ok && v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// ParseUUIDParam baca path param sebagai UUID.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// GetScope merakit Scope dari locals. Middleware auth wajib jalan duluan.
func GetScope(c *fiber.Ctx) Scope {
	return Scope{
		UserID:   GetUserUUID(c),
		Role:     GetUserRole(c),
		SchoolID: GetSchoolUUID(c),
	}
}
