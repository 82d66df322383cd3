// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media types.
const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

// Media is a gallery photo (uploaded blob) or video (external URL).
type Media struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	URL         string             `bson:"url" json:"url"`
	Date        time.Time          `bson:"date" json:"date"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `bson:"tags" json:"tags"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// News item kinds. Each kind lives in its own collection.
const (
	NewsStory     = "story"
	NewsMilestone = "milestone"
	NewsUpdate    = "update"
)

// StudentStory is an achievement story with a student photo.
type StudentStory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentName  string             `bson:"student_name" json:"student_name"`
	Category     string             `bson:"category" json:"category"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Class        string             `bson:"class,omitempty" json:"class,omitempty"`
	Date         time.Time          `bson:"date" json:"date"`
	Score        string             `bson:"score,omitempty" json:"score,omitempty"`
	StudentImage string             `bson:"student_image" json:"student_image"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// AcademicMilestone is a headline number ("120 students placed").
type AcademicMilestone struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category    string             `bson:"category" json:"category"`
	Number      int                `bson:"number" json:"number"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// RecentUpdate is a dated announcement such as exam results.
type RecentUpdate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date        time.Time          `bson:"date" json:"date"`
	ExamType    string             `bson:"exam_type,omitempty" json:"exam_type,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	ContactNumber string             `bson:"contact_number,omitempty" json:"contact_number,omitempty"`
	Subject       string             `bson:"subject" json:"subject"`
	Message       string             `bson:"message" json:"message"`
	Date          time.Time          `bson:"date" json:"date"`
	Response      string             `bson:"response,omitempty" json:"response,omitempty"`
	IsResponded   bool               `bson:"is_responded" json:"is_responded"`
	RespondedAt   *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Document is an admin-uploaded file shown on donor dashboards
// (annual reports, tax certificates).
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type,omitempty" json:"type,omitempty"`
	FileURL     string             `bson:"file_url" json:"file_url"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
