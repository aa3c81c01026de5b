package constants

import "fmt"

// Role names — seragam dengan kolom user_role di DB
const (
	RoleParent      = "parent"
	RoleSchoolAdmin = "school_admin"
	RoleSecurity    = "security"
	RoleSystemAdmin = "system_admin"
)

// Template pesan error role
const (
	ErrOnlyParentsCanAccess     = "Hanya parent yang boleh mengakses fitur %s."
	ErrOnlySchoolAdminCanAccess = "Hanya school admin yang boleh mengakses fitur %s."
	ErrOnlySecurityCanAccess    = "Hanya petugas security yang boleh mengakses fitur %s."
	ErrOnlySystemAdminCanAccess = "Hanya system admin yang boleh mengakses fitur %s."
)

func RoleErrorParent(feature string) string {
	return fmt.Sprintf(ErrOnlyParentsCanAccess, feature)
}

func RoleErrorSchoolAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlySchoolAdminCanAccess, feature)
}

func RoleErrorSecurity(feature string) string {
	return fmt.Sprintf(ErrOnlySecurityCanAccess, feature)
}

func RoleErrorSystemAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlySystemAdminCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleParent,
		RoleSchoolAdmin,
		RoleSecurity,
		RoleSystemAdmin,
	}

	// Role yang terikat ke satu sekolah (tenant scope)
	SchoolScopedRoles = []string{
		RoleSchoolAdmin,
		RoleSecurity,
	}

	SchoolAdminAndAbove = []string{
		RoleSchoolAdmin,
		RoleSystemAdmin,
	}

	SecurityOnly = []string{
		RoleSecurity,
	}

	ParentOnly = []string{
		RoleParent,
	}

	SystemAdminOnly = []string{
		RoleSystemAdmin,
	}
)

func IsSchoolScoped(role string) bool {
	for _, r := range SchoolScopedRoles {
		if r == role {
			return true
		}
	}
	return false
}
