package studentstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Update lists the admin-editable student fields. Sponsorship is changed
// only through SetSponsor and ClearSponsor.
type Update struct {
	StudentName         *string    `json:"studentName"`
	RollNumber          *string    `json:"rollNumber"`
	Gender              *string    `json:"gender"`
	DOB                 *time.Time `json:"dob"`
	Result              *string    `json:"result"`
	Class               *string    `json:"class"`
	School              *string    `json:"school"`
	FathersName         *string    `json:"fathersName"`
	FathersOccupation   *string    `json:"fathersOccupation"`
	MothersName         *string    `json:"mothersName"`
	MothersOccupation   *string    `json:"mothersOccupation"`
	Centre              *string    `json:"centre"`
	Address             *string    `json:"address"`
	ContactNumber       *string    `json:"contactNumber"`
	AnnualIncome        *float64   `json:"annualIncome"`
	CurrentSession      *string    `json:"currentSession"`
	AnnualFees          *float64   `json:"annualFees"`
	ActiveStatus        *bool      `json:"activeStatus"`
	Aadhar              *bool      `json:"aadhar"`
	Domicile            *bool      `json:"domicile"`
	BirthCertificate    *bool      `json:"birthCertificate"`
	Disability          *bool      `json:"disability"`
	SingleParent        *bool      `json:"singleParent"`
	RelevantCertificate *bool      `json:"relevantCertificate"`
}

// Empty reports whether no field is set.
func (u Update) Empty() bool { return len(u.set()) == 0 }

func (u Update) set() bson.M {
	m := bson.M{}
	if u.StudentName != nil {
		m["student_name"] = *u.StudentName
	}
	if u.RollNumber != nil {
		m["roll_number"] = *u.RollNumber
	}
	if u.Gender != nil {
		m["gender"] = *u.Gender
	}
	if u.DOB != nil {
		m["dob"] = *u.DOB
	}
	if u.AnnualIncome != nil {
		m["annual_income"] = *u.AnnualIncome
	}
	if u.AnnualFees != nil {
		m["annual_fees"] = *u.AnnualFees
	}
	for k, v := range map[string]*string{
		"result": u.Result, "class": u.Class, "school": u.School,
		"fathers_name": u.FathersName, "fathers_occupation": u.FathersOccupation,
		"mothers_name": u.MothersName, "mothers_occupation": u.MothersOccupation,
		"centre": u.Centre, "address": u.Address, "contact_number": u.ContactNumber,
		"current_session": u.CurrentSession,
	} {
		if v != nil {
			m[k] = *v
		}
	}
	for k, v := range map[string]*bool{
		"active_status": u.ActiveStatus, "aadhar": u.Aadhar, "domicile": u.Domicile,
		"birth_certificate": u.BirthCertificate, "disability": u.Disability,
		"single_parent": u.SingleParent, "relevant_certificate": u.RelevantCertificate,
	} {
		if v != nil {
			m[k] = *v
		}
	}
	return m
}
