package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"gatepass_backend/internals/features/visits/service"
)

var validate = validator.New()

// Format tanggal request: YYYY-MM-DD (jam diabaikan)
const dateLayout = "2006-01-02"

var ErrBadDate = errors.New("visit_date must be in YYYY-MM-DD format")

/* =======================================================
   REQUEST DTOs
   ======================================================= */

type RequestVisitRequest struct {
	SchoolID      string   `json:"school_id" validate:"required,uuid4"`
	StudentID     string   `json:"student_id" validate:"required,min=1,max=50"`
	VisitDate     string   `json:"visit_date" validate:"required"`
	NumVisitors   int      `json:"num_visitors" validate:"omitempty,min=1,max=20"`
	Reason        string   `json:"reason" validate:"omitempty,max=500"`
	VisitorNames  []string `json:"visitor_names" validate:"omitempty,dive,min=1,max=150"`
	VisitorPhones []string `json:"visitor_phones" validate:"omitempty,dive,min=5,max=30"`
}

func (r *RequestVisitRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Reason = strings.TrimSpace(r.Reason)
	for i := range r.VisitorNames {
		r.VisitorNames[i] = strings.TrimSpace(r.VisitorNames[i])
	}
	for i := range r.VisitorPhones {
		r.VisitorPhones[i] = strings.TrimSpace(r.VisitorPhones[i])
	}
}

func (r *RequestVisitRequest) Validate() error { return validate.Struct(r) }

// ToInput parse field string ke tipe domain service.
func (r *RequestVisitRequest) ToInput() (service.RequestVisitInput, error) {
	schoolID, err := uuid.Parse(r.SchoolID)
	if err != nil {
		return service.RequestVisitInput{}, errors.New("invalid school_id")
	}
	date, err := time.Parse(dateLayout, r.VisitDate)
	if err != nil {
		return service.RequestVisitInput{}, ErrBadDate
	}
	return service.RequestVisitInput{
		SchoolID:      schoolID,
		StudentID:     r.StudentID,
		VisitDate:     date,
		NumVisitors:   r.NumVisitors,
		Reason:        r.Reason,
		VisitorNames:  r.VisitorNames,
		VisitorPhones: r.VisitorPhones,
	}, nil
}

type ApproveVisitRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=500"`
}

func (r *ApproveVisitRequest) Validate() error { return validate.Struct(r) }

type RejectVisitRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func (r *RejectVisitRequest) Validate() error { return validate.Struct(r) }

type CancelVisitRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

func (r *CancelVisitRequest) Validate() error { return validate.Struct(r) }

type CheckInRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=500"`
}

func (r *CheckInRequest) Validate() error { return validate.Struct(r) }
