// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is a sponsored (or sponsorable) child record.
type Student struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentName       string             `bson:"student_name" json:"student_name"`
	RollNumber        string             `bson:"roll_number" json:"roll_number"`
	Gender            string             `bson:"gender" json:"gender"` // Male | Female | Other
	DOB               time.Time          `bson:"dob" json:"dob"`
	ProfilePhoto      string             `bson:"profile_photo,omitempty" json:"profile_photo,omitempty"`
	Result            string             `bson:"result,omitempty" json:"result,omitempty"`
	Class             string             `bson:"class,omitempty" json:"class,omitempty"`
	School            string             `bson:"school,omitempty" json:"school,omitempty"`
	FathersName       string             `bson:"fathers_name" json:"fathers_name"`
	FathersOccupation string             `bson:"fathers_occupation,omitempty" json:"fathers_occupation,omitempty"`
	MothersName       string             `bson:"mothers_name,omitempty" json:"mothers_name,omitempty"`
	MothersOccupation string             `bson:"mothers_occupation,omitempty" json:"mothers_occupation,omitempty"`
	Centre            string             `bson:"centre" json:"centre"`
	Address           string             `bson:"address,omitempty" json:"address,omitempty"`
	ContactNumber     string             `bson:"contact_number,omitempty" json:"contact_number,omitempty"`
	AnnualIncome      float64            `bson:"annual_income" json:"annual_income"`
	CurrentSession    string             `bson:"current_session,omitempty" json:"current_session,omitempty"`
	AnnualFees        float64            `bson:"annual_fees" json:"annual_fees"`

	SponsorshipStatus  bool                `bson:"sponsorship_status" json:"sponsorship_status"`
	SponsorID          *primitive.ObjectID `bson:"sponsor_id,omitempty" json:"sponsor_id,omitempty"`
	SponsorshipPercent float64             `bson:"sponsorship_percent" json:"sponsorship_percent"`
	ActiveStatus       bool                `bson:"active_status" json:"active_status"`

	Aadhar              bool `bson:"aadhar" json:"aadhar"`
	Domicile            bool `bson:"domicile" json:"domicile"`
	BirthCertificate    bool `bson:"birth_certificate" json:"birth_certificate"`
	Disability          bool `bson:"disability" json:"disability"`
	SingleParent        bool `bson:"single_parent" json:"single_parent"`
	RelevantCertificate bool `bson:"relevant_certificate" json:"relevant_certificate"`

	Results []ResultEntry `bson:"results" json:"results"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ResultEntry is one academic result appended to a student's history.
type ResultEntry struct {
	Session string    `bson:"session" json:"session"`
	Class   string    `bson:"class,omitempty" json:"class,omitempty"`
	Result  string    `bson:"result" json:"result"`
	Remarks string    `bson:"remarks,omitempty" json:"remarks,omitempty"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// ValidGender reports whether g is an accepted student gender.
func ValidGender(g string) bool {
	switch g {
	case "Male", "Female", "Other":
		return true
	}
	return false
}
