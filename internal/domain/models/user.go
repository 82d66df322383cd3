// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleRegular = "regular"
	RoleAdmin   = "admin"
)

// Sponsor types a donor can declare.
const (
	SponsorStudent = "Student"
	SponsorGeneral = "General"
	SponsorBoth    = "Both"
)

// OTP holds the one-time codes sent at registration.
//
// OTP and User.OTPExpiry are written and cleared together; a user never
// carries a code without an expiry or an expiry without a code.
type OTP struct {
	OTPEmail  string `bson:"otp_email,omitempty" json:"-"`
	OTPMobile string `bson:"otp_mobile,omitempty" json:"-"`
}

// User is a donor/sponsor account or an administrator.
//
// Credential material (password hash, OTP codes, reset token hash) is never
// serialized to JSON.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	GoogleID     string `bson:"google_id,omitempty" json:"-"`

	Role       string `bson:"role" json:"role"` // regular | admin
	IsVerified bool   `bson:"is_verified" json:"is_verified"`

	OTP       *OTP       `bson:"otp,omitempty" json:"-"`
	OTPExpiry *time.Time `bson:"otp_expiry,omitempty" json:"-"`

	ResetTokenHash   string     `bson:"reset_token_hash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty" json:"-"`

	Profile `bson:",inline"`

	ProfileImage string `bson:"profile_image,omitempty" json:"profile_image,omitempty"`

	Donations         []primitive.ObjectID `bson:"donations" json:"donations"`
	SponsoredStudents []primitive.ObjectID `bson:"sponsored_students" json:"sponsored_students"`
	TotalDonation     float64              `bson:"total_donation" json:"total_donation"`
	LastDonationDate  *time.Time           `bson:"last_donation_date,omitempty" json:"last_donation_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Profile holds the self-service attributes a donor can edit.
type Profile struct {
	Name                string     `bson:"name" json:"name"`
	ContactNumber       string     `bson:"contact_number,omitempty" json:"contact_number,omitempty"`
	Address             string     `bson:"address,omitempty" json:"address,omitempty"`
	DateOfBirth         *time.Time `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Gender              string     `bson:"gender,omitempty" json:"gender,omitempty"`
	CurrentJob          string     `bson:"current_job,omitempty" json:"current_job,omitempty"`
	GovernmentOfficial  bool       `bson:"government_official" json:"government_official"`
	ISMPassout          bool       `bson:"ism_passout" json:"ism_passout"`
	Batch               string     `bson:"batch,omitempty" json:"batch,omitempty"`
	KartavyaVolunteer   bool       `bson:"kartavya_volunteer" json:"kartavya_volunteer"`
	YearsOfServiceStart string     `bson:"years_of_service_start,omitempty" json:"years_of_service_start,omitempty"`
	YearsOfServiceEnd   string     `bson:"years_of_service_end,omitempty" json:"years_of_service_end,omitempty"`
	TypeOfSponsor       string     `bson:"type_of_sponsor,omitempty" json:"type_of_sponsor,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// HasDonation reports whether id is in the user's donation list.
func (u *User) HasDonation(id primitive.ObjectID) bool {
	for _, d := range u.Donations {
		if d == id {
			return true
		}
	}
	return false
}

// ValidSponsorType reports whether t is an accepted sponsor type.
func ValidSponsorType(t string) bool {
	switch t {
	case SponsorStudent, SponsorGeneral, SponsorBoth:
		return true
	}
	return false
}
