package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Constants ===================== */

const (
	StudentDataMethodAPI = "api"
	StudentDataMethodCSV = "csv"

	DefaultVisitFee            = 200 // RWF
	DefaultMaxVisitorsPerVisit = 2
	DefaultAdvanceBookingDays  = 30
)

/* ===================== Model ===================== */

type SchoolModel struct {
	SchoolID   uuid.UUID `gorm:"column:school_id;type:uuid;primaryKey" json:"school_id"`
	SchoolName string    `gorm:"column:school_name;size:150;not null" json:"school_name"`

	SchoolAddress       string `gorm:"column:school_address;type:text" json:"school_address,omitempty"`
	SchoolPhone         string `gorm:"column:school_phone;size:30" json:"school_phone,omitempty"`
	SchoolEmail         string `gorm:"column:school_email;size:255" json:"school_email,omitempty"`
	SchoolLeader        string `gorm:"column:school_leader;size:150" json:"school_leader,omitempty"`
	SchoolContactPerson string `gorm:"column:school_contact_person;size:150" json:"school_contact_person,omitempty"`
	SchoolContactPhone  string `gorm:"column:school_contact_phone;size:30" json:"school_contact_phone,omitempty"`

	// Integrasi direktori siswa (opsional)
	SchoolStudentDataMethod string `gorm:"column:school_student_data_method;type:varchar(10);default:'api'" json:"school_student_data_method"`
	SchoolApiURL            string `gorm:"column:school_api_url;size:255" json:"school_api_url,omitempty"`
	SchoolApiKey            string `gorm:"column:school_api_key;size:255" json:"-"`
	SchoolCsvFilePath       string `gorm:"column:school_csv_file_path;size:255" json:"school_csv_file_path,omitempty"`

	SchoolTimezone string `gorm:"column:school_timezone;size:50;default:'Africa/Kigali'" json:"school_timezone"`
	SchoolIsActive bool   `gorm:"column:school_is_active;not null;default:true" json:"school_is_active"`

	// Settings kunjungan
	SchoolVisitFee            int  `gorm:"column:school_visit_fee;not null;default:200" json:"school_visit_fee"`
	SchoolMaxVisitorsPerVisit int  `gorm:"column:school_max_visitors_per_visit;not null;default:2" json:"school_max_visitors_per_visit"`
	SchoolAdvanceBookingDays  int  `gorm:"column:school_advance_booking_days;not null;default:30" json:"school_advance_booking_days"`
	SchoolRequireApproval     bool `gorm:"column:school_require_approval;not null;default:false" json:"school_require_approval"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (SchoolModel) TableName() string { return "schools" }

func (s *SchoolModel) BeforeCreate(tx *gorm.DB) error {
	if s.SchoolID == uuid.Nil {
		s.SchoolID = uuid.New()
	}
	return nil
}

// VisitFeeOrDefault: fee sekolah, fallback default saat belum diset
func (s *SchoolModel) VisitFeeOrDefault() int {
	if s.SchoolVisitFee > 0 {
		return s.SchoolVisitFee
	}
	return DefaultVisitFee
}

// HasDirectory true bila lookup siswa via API dikonfigurasi
func (s *SchoolModel) HasDirectory() bool {
	return s.SchoolStudentDataMethod == StudentDataMethodAPI && s.SchoolApiURL != ""
}
