package model

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&SchoolModel{}, &VisitingDayModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestVisitingDayUniquePerSchoolDate(t *testing.T) {
	db := openTestDB(t)
	schoolID := uuid.New()
	date := NormalizeDate(time.Now().AddDate(0, 0, 7))

	if err := db.Create(&VisitingDayModel{
		VisitingDaySchoolID: schoolID,
		VisitingDayDate:     date,
	}).Error; err != nil {
		t.Fatalf("first create: %v", err)
	}

	// tanggal sama + sekolah sama → ditolak constraint
	err := db.Create(&VisitingDayModel{
		VisitingDaySchoolID: schoolID,
		VisitingDayDate:     date,
	}).Error
	if err == nil {
		t.Fatal("duplicate visiting day accepted")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "unique") {
		t.Fatalf("err = %v, want unique constraint violation", err)
	}

	// sekolah lain boleh pakai tanggal yang sama
	if err := db.Create(&VisitingDayModel{
		VisitingDaySchoolID: uuid.New(),
		VisitingDayDate:     date,
	}).Error; err != nil {
		t.Fatalf("other school same date: %v", err)
	}
}

func TestNormalizeDateDropsTime(t *testing.T) {
	loc := time.FixedZone("CAT", 2*3600)
	in := time.Date(2026, 3, 14, 17, 45, 12, 0, loc)
	got := NormalizeDate(in)

	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Fatalf("time component not dropped: %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", got.Location())
	}
	// 17:45 CAT = 15:45 UTC → hari kalender UTC sama
	if got.Day() != 14 {
		t.Fatalf("day = %d, want 14", got.Day())
	}
}

func TestVisitFeeOrDefault(t *testing.T) {
	s := &SchoolModel{}
	if s.VisitFeeOrDefault() != DefaultVisitFee {
		t.Fatalf("default fee = %d, want %d", s.VisitFeeOrDefault(), DefaultVisitFee)
	}
	s.SchoolVisitFee = 500
	if s.VisitFeeOrDefault() != 500 {
		t.Fatalf("fee = %d, want 500", s.VisitFeeOrDefault())
	}
}
