package model

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"gatepass_backend/internals/constants"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&UserModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestLinkedStudentsOnlyForParents(t *testing.T) {
	db := openTestDB(t)

	schoolID := uuid.New()
	admin := UserModel{
		UserID:             uuid.New(),
		UserRole:           constants.RoleSchoolAdmin,
		UserName:           "Admin",
		UserEmail:          "admin@school.test",
		UserPhone:          "0788000001",
		UserPassword:       "hashed",
		UserSchoolID:       &schoolID,
		UserLinkedStudents: datatypes.NewJSONSlice([]string{"STD-1"}),
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	var got UserModel
	if err := db.First(&got, "user_id = ?", admin.UserID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if len(got.UserLinkedStudents) != 0 {
		t.Errorf("linked students must be cleared for non-parent, got %v", got.UserLinkedStudents)
	}

	parent := UserModel{
		UserID:             uuid.New(),
		UserRole:           constants.RoleParent,
		UserName:           "Parent",
		UserEmail:          "parent@home.test",
		UserPhone:          "0788000002",
		UserPassword:       "hashed",
		UserLinkedStudents: datatypes.NewJSONSlice([]string{"STD-1", "STD-2"}),
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("create parent: %v", err)
	}
	var gotParent UserModel
	if err := db.First(&gotParent, "user_id = ?", parent.UserID).Error; err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if len(gotParent.UserLinkedStudents) != 2 {
		t.Errorf("parent linked students lost: %v", gotParent.UserLinkedStudents)
	}
}

func TestSchoolScopedRoleRequiresSchool(t *testing.T) {
	db := openTestDB(t)

	sec := UserModel{
		UserID:       uuid.New(),
		UserRole:     constants.RoleSecurity,
		UserName:     "Guard",
		UserEmail:    "guard@school.test",
		UserPhone:    "0788000003",
		UserPassword: "hashed",
	}
	if err := db.Create(&sec).Error; err == nil {
		t.Fatal("security user without school must be rejected")
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	db := openTestDB(t)

	u := UserModel{
		UserID:       uuid.New(),
		UserRole:     "janitor",
		UserName:     "X",
		UserEmail:    "x@x.test",
		UserPhone:    "0788000004",
		UserPassword: "hashed",
	}
	if err := db.Create(&u).Error; err == nil {
		t.Fatal("unknown role must be rejected")
	}
}
