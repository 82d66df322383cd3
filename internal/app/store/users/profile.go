package userstore

import (
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ProfileUpdate lists the self-editable fields. Nil fields are left alone,
// so only these attributes can ever be written by a profile edit.
type ProfileUpdate struct {
	Name                *string    `json:"name"`
	ContactNumber       *string    `json:"contactNumber"`
	Address             *string    `json:"address"`
	DateOfBirth         *time.Time `json:"dateOfBirth"`
	Gender              *string    `json:"gender"`
	CurrentJob          *string    `json:"currentJob"`
	GovernmentOfficial  *bool      `json:"governmentOfficial"`
	ISMPassout          *bool      `json:"ismPassout"`
	Batch               *string    `json:"batch"`
	KartavyaVolunteer   *bool      `json:"kartavyaVolunteer"`
	YearsOfServiceStart *string    `json:"yearsOfServiceStart"`
	YearsOfServiceEnd   *string    `json:"yearsOfServiceEnd"`
	TypeOfSponsor       *string    `json:"typeOfSponsor"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return len(p.set()) == 0
}

func (p ProfileUpdate) set() bson.M {
	m := bson.M{}
	str := func(k string, v *string) {
		if v != nil {
			m[k] = *v
		}
	}
	flag := func(k string, v *bool) {
		if v != nil {
			m[k] = *v
		}
	}
	str("name", p.Name)
	str("contact_number", p.ContactNumber)
	str("address", p.Address)
	if p.DateOfBirth != nil {
		m["date_of_birth"] = *p.DateOfBirth
	}
	str("gender", p.Gender)
	str("current_job", p.CurrentJob)
	flag("government_official", p.GovernmentOfficial)
	flag("ism_passout", p.ISMPassout)
	str("batch", p.Batch)
	flag("kartavya_volunteer", p.KartavyaVolunteer)
	str("years_of_service_start", p.YearsOfServiceStart)
	str("years_of_service_end", p.YearsOfServiceEnd)
	str("type_of_sponsor", p.TypeOfSponsor)
	return m
}

// Apply copies the set fields onto prof. Used by callers that keep an
// in-memory copy in step with the database.
func (p ProfileUpdate) Apply(prof *models.Profile) {
	if p.Name != nil {
		prof.Name = *p.Name
	}
	if p.ContactNumber != nil {
		prof.ContactNumber = *p.ContactNumber
	}
	if p.Address != nil {
		prof.Address = *p.Address
	}
	if p.DateOfBirth != nil {
		d := *p.DateOfBirth
		prof.DateOfBirth = &d
	}
	if p.Gender != nil {
		prof.Gender = *p.Gender
	}
	if p.CurrentJob != nil {
		prof.CurrentJob = *p.CurrentJob
	}
	if p.GovernmentOfficial != nil {
		prof.GovernmentOfficial = *p.GovernmentOfficial
	}
	if p.ISMPassout != nil {
		prof.ISMPassout = *p.ISMPassout
	}
	if p.Batch != nil {
		prof.Batch = *p.Batch
	}
	if p.KartavyaVolunteer != nil {
		prof.KartavyaVolunteer = *p.KartavyaVolunteer
	}
	if p.YearsOfServiceStart != nil {
		prof.YearsOfServiceStart = *p.YearsOfServiceStart
	}
	if p.YearsOfServiceEnd != nil {
		prof.YearsOfServiceEnd = *p.YearsOfServiceEnd
	}
	if p.TypeOfSponsor != nil {
		prof.TypeOfSponsor = *p.TypeOfSponsor
	}
}
