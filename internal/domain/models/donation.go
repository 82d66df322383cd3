// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationVerifyWindow is how long a verified donation stays current.
const DonationVerifyWindow = 30 * 24 * time.Hour

// Donation statuses as reported to clients and used in list filters.
const (
	DonationPending  = "pending"
	DonationVerified = "verified"
	DonationRejected = "rejected"
)

// Donation is a pledged gift, optionally linked to a registered donor.
//
// Verified and Rejected are terminal and mutually exclusive. A new donation
// has neither set.
type Donation struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Amount        float64             `bson:"amount" json:"amount"`
	DonationDate  time.Time           `bson:"donation_date" json:"donation_date"`
	DonorName     string              `bson:"donor_name" json:"donor_name"`
	ContactNumber string              `bson:"contact_number" json:"contact_number"`
	Email         string              `bson:"email" json:"email"`
	NumChild      int                 `bson:"num_child,omitempty" json:"num_child,omitempty"`
	UserID        *primitive.ObjectID `bson:"user_id" json:"user"`
	ReceiptURL    string              `bson:"receipt_url,omitempty" json:"receipt_url,omitempty"`

	Verified   bool                `bson:"verified" json:"verified"`
	VerifiedAt *time.Time          `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	VerifiedBy *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	ExpiryDate *time.Time          `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`

	Rejected        bool                `bson:"rejected" json:"rejected"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time          `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	RejectedBy      *primitive.ObjectID `bson:"rejected_by,omitempty" json:"rejected_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Status returns pending, verified or rejected.
func (d *Donation) Status() string {
	switch {
	case d.Verified:
		return DonationVerified
	case d.Rejected:
		return DonationRejected
	default:
		return DonationPending
	}
}

// IsFinal reports whether the donation has left the pending state.
func (d *Donation) IsFinal() bool { return d.Verified || d.Rejected }

// HasReceipt reports whether a receipt blob is attached.
func (d *Donation) HasReceipt() bool { return d.ReceiptURL != "" }
