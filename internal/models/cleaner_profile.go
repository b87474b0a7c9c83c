package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"clean-cloak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type ApprovalEntry struct {
	Status    ApprovalStatus `bson:"status" json:"status"`
	Notes     string         `bson:"notes,omitempty" json:"notes,omitempty"`
	AdminID   string         `bson:"admin_id,omitempty" json:"admin_id,omitempty"`
	ChangedAt time.Time      `bson:"changed_at" json:"changed_at"`
}

type Verification struct {
	IDVerified        bool       `bson:"id_verified" json:"id_verified"`
	IDNumber          string     `bson:"id_number,omitempty" json:"id_number,omitempty"`
	IDDocumentFront   string     `bson:"id_document_front,omitempty" json:"id_document_front,omitempty"`
	IDDocumentBack    string     `bson:"id_document_back,omitempty" json:"id_document_back,omitempty"`
	PoliceCheck       bool       `bson:"police_check" json:"police_check"`
	PoliceCertificate string     `bson:"police_certificate,omitempty" json:"police_certificate,omitempty"`
	References        []string   `bson:"references,omitempty" json:"references,omitempty"`
	InsuranceCoverage bool       `bson:"insurance_coverage" json:"insurance_coverage"`
	InsuranceDocument string     `bson:"insurance_document,omitempty" json:"insurance_document,omitempty"`
	VerifiedAt        *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

type WorkingHours struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

type CleanerProfile struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	FirstName         string             `bson:"first_name" json:"first_name" validate:"required,max=50"`
	LastName          string             `bson:"last_name" json:"last_name" validate:"required,max=50"`
	Phone             string             `bson:"phone" json:"phone" validate:"required"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	ProfileImage      string             `bson:"profile_image,omitempty" json:"profile_image,omitempty"`
	PassportPhoto     string             `bson:"passport_photo,omitempty" json:"passport_photo,omitempty"`
	FullBodyPhoto     string             `bson:"full_body_photo,omitempty" json:"full_body_photo,omitempty"`
	Services          []string           `bson:"services" json:"services" validate:"dive,oneof=car-detailing home-cleaning"`
	Bio               string             `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=500"`
	Address           string             `bson:"address,omitempty" json:"address,omitempty"`
	City              string             `bson:"city,omitempty" json:"city,omitempty"`
	Portfolio         []string           `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	BeforeAfterPhotos []string           `bson:"before_after_photos,omitempty" json:"before_after_photos,omitempty"`
	ApprovalStatus    ApprovalStatus     `bson:"approval_status" json:"approval_status"`
	ApprovalNotes     string             `bson:"approval_notes,omitempty" json:"approval_notes,omitempty"`
	ApprovalHistory   []ApprovalEntry    `bson:"approval_history" json:"approval_history"`
	ApprovedAt        *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RejectedAt        *time.Time         `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	TotalJobs         int                `bson:"total_jobs" json:"total_jobs"`
	CompletedJobs     int                `bson:"completed_jobs" json:"completed_jobs"`
	Rating            float64            `bson:"rating" json:"rating"`
	TotalRatings      int                `bson:"total_ratings" json:"total_ratings"`
	Verified          bool               `bson:"verified" json:"verified"`
	Verification      Verification       `bson:"verification" json:"verification"`
	MpesaPhoneNumber  string             `bson:"mpesa_phone_number,omitempty" json:"mpesa_phone_number,omitempty" validate:"omitempty,mpesa"`
	IsAvailable       bool               `bson:"is_available" json:"is_available"`
	WorkingHours      WorkingHours       `bson:"working_hours" json:"working_hours"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

func NewCleanerProfile(userID string) *CleanerProfile {
	return &CleanerProfile{
		UserID:          userID,
		ApprovalStatus:  ApprovalPending,
		ApprovalHistory: []ApprovalEntry{},
		IsAvailable:     true,
		WorkingHours:    WorkingHours{Start: "08:00", End: "18:00"},
	}
}

func (p *CleanerProfile) Validate() error {
	return utils.ValidateStruct(p, ErrValidation)
}

// UpdateRating folds a new rating into the running average. The average is
// kept at full precision and only rounded for display.
func (p *CleanerProfile) UpdateRating(rating int) error {
	if err := ValidateRating(rating); err != nil {
		return err
	}
	total := p.Rating*float64(p.TotalRatings) + float64(rating)
	p.TotalRatings++
	p.Rating = total / float64(p.TotalRatings)
	return nil
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

// RoundRating rounds an average to two decimals.
func RoundRating(r float64) float64 {
	return math.Round(r*100) / 100
}

func (p CleanerProfile) MarshalJSON() ([]byte, error) {
	type plain CleanerProfile
	out := plain(p)
	out.Rating = RoundRating(p.Rating)
	return json.Marshal(out)
}

// Approve marks the profile approved and records the decision.
func (p *CleanerProfile) Approve(adminID, notes string, at time.Time) error {
	if p.ApprovalStatus == ApprovalApproved {
		return fmt.Errorf("%w: profile is already approved", ErrInvalidState)
	}
	p.ApprovalStatus = ApprovalApproved
	p.ApprovalNotes = notes
	p.ApprovedAt = &at
	p.RejectedAt = nil
	p.Verified = true
	p.appendHistory(adminID, notes, at)
	return nil
}

func (p *CleanerProfile) Reject(adminID, notes string, at time.Time) error {
	if p.ApprovalStatus == ApprovalRejected {
		return fmt.Errorf("%w: profile is already rejected", ErrInvalidState)
	}
	if notes == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	p.ApprovalStatus = ApprovalRejected
	p.ApprovalNotes = notes
	p.RejectedAt = &at
	p.ApprovedAt = nil
	p.Verified = false
	p.appendHistory(adminID, notes, at)
	return nil
}

func (p *CleanerProfile) appendHistory(adminID, notes string, at time.Time) {
	p.ApprovalHistory = append(p.ApprovalHistory, ApprovalEntry{
		Status:    p.ApprovalStatus,
		Notes:     notes,
		AdminID:   adminID,
		ChangedAt: at,
	})
}

// ApplyUpdate copies the fields present in u. Absent fields keep their value.
func (p *CleanerProfile) ApplyUpdate(u *CleanerProfileInput) {
	setString(&p.FirstName, u.FirstName)
	setString(&p.LastName, u.LastName)
	setString(&p.Phone, u.Phone)
	setString(&p.Email, u.Email)
	setString(&p.Bio, u.Bio)
	setString(&p.Address, u.Address)
	setString(&p.City, u.City)
	setString(&p.MpesaPhoneNumber, u.MpesaPhoneNumber)
	setString(&p.Verification.IDNumber, u.IDNumber)
	if u.Services != nil {
		p.Services = u.Services
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
	if u.WorkingHours != nil {
		p.WorkingHours = *u.WorkingHours
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// CleanerProfileInput is the body of a profile create or edit. Nil fields were
// not sent.
type CleanerProfileInput struct {
	FirstName        *string       `json:"first_name"`
	LastName         *string       `json:"last_name"`
	Phone            *string       `json:"phone"`
	Email            *string       `json:"email"`
	Services         []string      `json:"services"`
	Bio              *string       `json:"bio"`
	Address          *string       `json:"address"`
	City             *string       `json:"city"`
	MpesaPhoneNumber *string       `json:"mpesa_phone_number"`
	IsAvailable      *bool         `json:"is_available"`
	WorkingHours     *WorkingHours `json:"working_hours"`
	IDNumber         *string       `json:"id_number"`
}

// Fields maps the present fields to their stored paths.
func (u *CleanerProfileInput) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	put := func(path string, v *string) {
		if v != nil {
			fields[path] = *v
		}
	}
	put("first_name", u.FirstName)
	put("last_name", u.LastName)
	put("phone", u.Phone)
	put("email", u.Email)
	put("bio", u.Bio)
	put("address", u.Address)
	put("city", u.City)
	put("mpesa_phone_number", u.MpesaPhoneNumber)
	put("verification.id_number", u.IDNumber)
	if u.Services != nil {
		fields["services"] = u.Services
	}
	if u.IsAvailable != nil {
		fields["is_available"] = *u.IsAvailable
	}
	if u.WorkingHours != nil {
		fields["working_hours"] = *u.WorkingHours
	}
	return fields
}

type CleanerFilter struct {
	Service   string
	City      string
	MinRating float64
}

// CleanerQuery selects profiles for the admin listings.
type CleanerQuery struct {
	Status  ApprovalStatus
	City    string
	Service string
}

type ApprovalDecision struct {
	Notes string `json:"notes"`
}

// DocumentKind names an uploadable profile document.
type DocumentKind string

const (
	DocProfileImage      DocumentKind = "profile_image"
	DocPassportPhoto     DocumentKind = "passport_photo"
	DocFullBodyPhoto     DocumentKind = "full_body_photo"
	DocIDFront           DocumentKind = "id_document_front"
	DocIDBack            DocumentKind = "id_document_back"
	DocPoliceCertificate DocumentKind = "police_certificate"
	DocInsurance         DocumentKind = "insurance_document"
	DocPortfolio         DocumentKind = "portfolio"
	DocBeforeAfter       DocumentKind = "before_after_photos"
)

// Field returns the bson path the document URL is stored under and whether
// the field holds a list.
func (k DocumentKind) Field() (string, bool, bool) {
	switch k {
	case DocProfileImage, DocPassportPhoto, DocFullBodyPhoto:
		return string(k), false, true
	case DocIDFront, DocIDBack, DocPoliceCertificate, DocInsurance:
		return "verification." + string(k), false, true
	case DocPortfolio, DocBeforeAfter:
		return string(k), true, true
	}
	return "", false, false
}
