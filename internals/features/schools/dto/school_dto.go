package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	sModel "gatepass_backend/internals/features/schools/model"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

var ErrBadDate = errors.New("date must be in YYYY-MM-DD format")

/* =======================================================
   School DTOs
   ======================================================= */

// CreateSchoolRequest — hanya system_admin
type CreateSchoolRequest struct {
	SchoolName          string `json:"school_name" validate:"required,min=3,max=150"`
	SchoolAddress       string `json:"school_address" validate:"omitempty,max=500"`
	SchoolPhone         string `json:"school_phone" validate:"omitempty,min=7,max=30"`
	SchoolEmail         string `json:"school_email" validate:"omitempty,email,max=255"`
	SchoolLeader        string `json:"school_leader" validate:"omitempty,max=150"`
	SchoolContactPerson string `json:"school_contact_person" validate:"omitempty,max=150"`
	SchoolContactPhone  string `json:"school_contact_phone" validate:"omitempty,min=7,max=30"`
	SchoolTimezone      string `json:"school_timezone" validate:"omitempty,max=50"`
}

func (r *CreateSchoolRequest) Normalize() {
	r.SchoolName = strings.TrimSpace(r.SchoolName)
	r.SchoolAddress = strings.TrimSpace(r.SchoolAddress)
	r.SchoolEmail = strings.TrimSpace(strings.ToLower(r.SchoolEmail))
}

func (r *CreateSchoolRequest) Validate() error { return validate.Struct(r) }

func (r *CreateSchoolRequest) ToModel() *sModel.SchoolModel {
	m := &sModel.SchoolModel{
		SchoolName:                r.SchoolName,
		SchoolAddress:             r.SchoolAddress,
		SchoolPhone:               r.SchoolPhone,
		SchoolEmail:               r.SchoolEmail,
		SchoolLeader:              r.SchoolLeader,
		SchoolContactPerson:       r.SchoolContactPerson,
		SchoolContactPhone:        r.SchoolContactPhone,
		SchoolStudentDataMethod:   sModel.StudentDataMethodAPI,
		SchoolIsActive:            true,
		SchoolVisitFee:            sModel.DefaultVisitFee,
		SchoolMaxVisitorsPerVisit: sModel.DefaultMaxVisitorsPerVisit,
		SchoolAdvanceBookingDays:  sModel.DefaultAdvanceBookingDays,
	}
	if r.SchoolTimezone != "" {
		m.SchoolTimezone = r.SchoolTimezone
	}
	return m
}

// UpdateSchoolRequest — partial update profil + settings + direktori
type UpdateSchoolRequest struct {
	SchoolName          *string `json:"school_name,omitempty" validate:"omitempty,min=3,max=150"`
	SchoolAddress       *string `json:"school_address,omitempty" validate:"omitempty,max=500"`
	SchoolPhone         *string `json:"school_phone,omitempty" validate:"omitempty,min=7,max=30"`
	SchoolEmail         *string `json:"school_email,omitempty" validate:"omitempty,email,max=255"`
	SchoolLeader        *string `json:"school_leader,omitempty" validate:"omitempty,max=150"`
	SchoolContactPerson *string `json:"school_contact_person,omitempty" validate:"omitempty,max=150"`
	SchoolContactPhone  *string `json:"school_contact_phone,omitempty" validate:"omitempty,min=7,max=30"`
	SchoolTimezone      *string `json:"school_timezone,omitempty" validate:"omitempty,max=50"`

	SchoolStudentDataMethod *string `json:"school_student_data_method,omitempty" validate:"omitempty,oneof=api csv"`
	SchoolApiURL            *string `json:"school_api_url,omitempty" validate:"omitempty,url,max=255"`
	SchoolApiKey            *string `json:"school_api_key,omitempty" validate:"omitempty,max=255"`
	SchoolCsvFilePath       *string `json:"school_csv_file_path,omitempty" validate:"omitempty,max=255"`

	SchoolVisitFee            *int  `json:"school_visit_fee,omitempty" validate:"omitempty,min=0"`
	SchoolMaxVisitorsPerVisit *int  `json:"school_max_visitors_per_visit,omitempty" validate:"omitempty,min=1,max=20"`
	SchoolAdvanceBookingDays  *int  `json:"school_advance_booking_days,omitempty" validate:"omitempty,min=1,max=365"`
	SchoolRequireApproval     *bool `json:"school_require_approval,omitempty"`
}

func (r *UpdateSchoolRequest) Validate() error { return validate.Struct(r) }

// Apply salin field non-nil ke model
func (r *UpdateSchoolRequest) Apply(m *sModel.SchoolModel) {
	if r.SchoolName != nil {
		m.SchoolName = strings.TrimSpace(*r.SchoolName)
	}
	if r.SchoolAddress != nil {
		m.SchoolAddress = *r.SchoolAddress
	}
	if r.SchoolPhone != nil {
		m.SchoolPhone = *r.SchoolPhone
	}
	if r.SchoolEmail != nil {
		m.SchoolEmail = strings.TrimSpace(strings.ToLower(*r.SchoolEmail))
	}
	if r.SchoolLeader != nil {
		m.SchoolLeader = *r.SchoolLeader
	}
	if r.SchoolContactPerson != nil {
		m.SchoolContactPerson = *r.SchoolContactPerson
	}
	if r.SchoolContactPhone != nil {
		m.SchoolContactPhone = *r.SchoolContactPhone
	}
	if r.SchoolTimezone != nil {
		m.SchoolTimezone = *r.SchoolTimezone
	}
	if r.SchoolStudentDataMethod != nil {
		m.SchoolStudentDataMethod = *r.SchoolStudentDataMethod
	}
	if r.SchoolApiURL != nil {
		m.SchoolApiURL = *r.SchoolApiURL
	}
	if r.SchoolApiKey != nil {
		m.SchoolApiKey = *r.SchoolApiKey
	}
	if r.SchoolCsvFilePath != nil {
		m.SchoolCsvFilePath = *r.SchoolCsvFilePath
	}
	if r.SchoolVisitFee != nil {
		m.SchoolVisitFee = *r.SchoolVisitFee
	}
	if r.SchoolMaxVisitorsPerVisit != nil {
		m.SchoolMaxVisitorsPerVisit = *r.SchoolMaxVisitorsPerVisit
	}
	if r.SchoolAdvanceBookingDays != nil {
		m.SchoolAdvanceBookingDays = *r.SchoolAdvanceBookingDays
	}
	if r.SchoolRequireApproval != nil {
		m.SchoolRequireApproval = *r.SchoolRequireApproval
	}
}

/* =======================================================
   Visiting day DTOs
   ======================================================= */

type AddVisitingDayRequest struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func (r *AddVisitingDayRequest) Validate() error { return validate.Struct(r) }

func (r *AddVisitingDayRequest) ParseDate() (time.Time, error) {
	parsed, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return sModel.NormalizeDate(parsed), nil
}

type UpdateVisitingDayRequest struct {
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

func (r *UpdateVisitingDayRequest) Validate() error { return validate.Struct(r) }

func (r *UpdateVisitingDayRequest) ParseDate() (time.Time, error) {
	parsed, err := time.Parse(dateLayout, *r.Date)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return sModel.NormalizeDate(parsed), nil
}
