package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisitingDayModel: tanggal kunjungan per sekolah.
// Koleksi terpisah ber-key (school_id, date) — bukan array embedded —
// supaya uniqueness tanggal dijaga constraint DB, bukan mutasi array.
type VisitingDayModel struct {
	VisitingDayID       uuid.UUID `gorm:"column:visiting_day_id;type:uuid;primaryKey" json:"visiting_day_id"`
	VisitingDaySchoolID uuid.UUID `gorm:"column:visiting_day_school_id;type:uuid;not null;uniqueIndex:uq_visiting_days_school_date" json:"visiting_day_school_id"`

	// Disimpan sebagai tengah malam UTC tanggal tersebut
	VisitingDayDate        time.Time `gorm:"column:visiting_day_date;not null;uniqueIndex:uq_visiting_days_school_date" json:"visiting_day_date"`
	VisitingDayDescription string    `gorm:"column:visiting_day_description;type:text" json:"visiting_day_description,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (VisitingDayModel) TableName() string { return "visiting_days" }

func (d *VisitingDayModel) BeforeCreate(tx *gorm.DB) error {
	if d.VisitingDayID == uuid.Nil {
		d.VisitingDayID = uuid.New()
	}
	return nil
}

// NormalizeDate buang komponen jam: semua tanggal katalog disimpan seragam.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
