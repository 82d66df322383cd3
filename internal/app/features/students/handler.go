// internal/app/features/students/handler.go
package students

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sponsorshipsvc "github.com/dalemusser/donorhub/internal/app/services/sponsorship"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/formutil"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /student. Every route is admin-only.
type Handler struct {
	Students    *studentstore.Store
	Sponsorship *sponsorshipsvc.Service
	Blobs       *blob.Manager
	Log         *zap.Logger
}

func NewHandler(students *studentstore.Store, sponsorship *sponsorshipsvc.Service, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{Students: students, Sponsorship: sponsorship, Blobs: blobs, Log: logger}
}

type studentResponse struct {
	Message string          `json:"message,omitempty"`
	Student *models.Student `json:"student"`
}

var (
	errNotFound  = apperr.NotFound("STUDENT_NOT_FOUND", "Student not found.")
	errInvalidID = apperr.Validation("INVALID_ID", "Invalid student id.")
	errDupRoll   = apperr.Conflict("DUPLICATE_ROLL_NUMBER", "A student with this roll number already exists.")
)

func studentID(r *http.Request) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return oid, nil
}

// storeErr maps student store errors onto the API taxonomy.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return errNotFound
	case errors.Is(err, studentstore.ErrDuplicateRollNumber):
		return errDupRoll
	default:
		return apperr.Internal(op, err)
	}
}

func studentFrom(r *http.Request) (models.Student, error) {
	var st models.Student
	dob, err := formutil.Date(r, "dob")
	if err != nil {
		return st, err
	}
	income, err := formutil.Float(r, "annualIncome")
	if err != nil {
		return st, err
	}
	fees, err := formutil.Float(r, "annualFees")
	if err != nil {
		return st, err
	}
	st = models.Student{
		StudentName:         formutil.String(r, "studentName"),
		RollNumber:          formutil.String(r, "rollNumber"),
		Gender:              formutil.String(r, "gender"),
		DOB:                 dob,
		Result:              formutil.String(r, "result"),
		Class:               formutil.String(r, "class"),
		School:              formutil.String(r, "school"),
		FathersName:         formutil.String(r, "fathersName"),
		FathersOccupation:   formutil.String(r, "fathersOccupation"),
		MothersName:         formutil.String(r, "mothersName"),
		MothersOccupation:   formutil.String(r, "mothersOccupation"),
		Centre:              formutil.String(r, "centre"),
		Address:             formutil.String(r, "address"),
		ContactNumber:       formutil.String(r, "contactNumber"),
		AnnualIncome:        income,
		CurrentSession:      formutil.String(r, "currentSession"),
		AnnualFees:          fees,
		ActiveStatus:        true,
		Aadhar:              formutil.Bool(r, "aadhar"),
		Domicile:            formutil.Bool(r, "domicile"),
		BirthCertificate:    formutil.Bool(r, "birthCertificate"),
		Disability:          formutil.Bool(r, "disability"),
		SingleParent:        formutil.Bool(r, "singleParent"),
		RelevantCertificate: formutil.Bool(r, "relevantCertificate"),
	}
	if active := formutil.OptBool(r, "activeStatus"); active != nil {
		st.ActiveStatus = *active
	}
	return st, nil
}

// validateStudent checks the fields a new record cannot do without.
func validateStudent(st models.Student) error {
	switch {
	case st.StudentName == "":
		return apperr.Validation("NAME_REQUIRED", "Student name is required.")
	case st.RollNumber == "":
		return apperr.Validation("ROLL_NUMBER_REQUIRED", "Roll number is required.")
	case !models.ValidGender(st.Gender):
		return apperr.Validation("INVALID_GENDER", "Gender must be Male, Female or Other.")
	case st.DOB.IsZero():
		return apperr.Validation("DOB_REQUIRED", "Date of birth is required.")
	case st.FathersName == "":
		return apperr.Validation("FATHERS_NAME_REQUIRED", "Father's name is required.")
	case st.Centre == "":
		return apperr.Validation("CENTRE_REQUIRED", "Centre is required.")
	case st.AnnualIncome < 0 || st.AnnualFees < 0:
		return apperr.Validation("INVALID_AMOUNT", "Income and fees cannot be negative.")
	}
	return nil
}

// Add handles POST /student/add (multipart, optional profilePicture).
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(w, r, limits.MaxImageUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	st, err := studentFrom(r)
	if err == nil {
		err = validateStudent(st)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := formutil.OpenFile(r, "profilePicture", "student", limits.MaxImageUpload)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	create := func(ctx context.Context, photo string) error {
		st.ProfilePhoto = photo
		created, err := h.Students.Create(ctx, st)
		if err != nil {
			return storeErr("create student", err)
		}
		st = created
		return nil
	}
	if f == nil {
		err = create(ctx, "")
	} else {
		defer f.Close()
		_, err = h.Blobs.UploadThenPersist(ctx, f.Upload, func(ctx context.Context, ref blob.Ref) error {
			return create(ctx, ref.URL)
		})
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("student added", zap.String("student_id", st.ID.Hex()), zap.String("roll_number", st.RollNumber))
	respond.Created(w, studentResponse{Message: "Student added successfully", Student: &st})
}

func (h *Handler) reload(ctx context.Context, id primitive.ObjectID) (*models.Student, error) {
	st, err := h.Students.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load student", err)
	}
	return st, nil
}

// Edit handles PUT /student/{id}/edit. Only the fields present in the body
// change; sponsorship is not editable here.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var upd studentstore.Update
	if err := respond.Decode(w, r, &upd); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	switch {
	case upd.Empty():
		err = apperr.Validation("NO_CHANGES", "No editable fields were provided.")
	case upd.Gender != nil && !models.ValidGender(*upd.Gender):
		err = apperr.Validation("INVALID_GENDER", "Gender must be Male, Female or Other.")
	case upd.StudentName != nil && strings.TrimSpace(*upd.StudentName) == "",
		upd.RollNumber != nil && strings.TrimSpace(*upd.RollNumber) == "":
		err = apperr.Validation("REQUIRED_FIELD_EMPTY", "Name and roll number cannot be blank.")
	case upd.AnnualIncome != nil && *upd.AnnualIncome < 0,
		upd.AnnualFees != nil && *upd.AnnualFees < 0:
		err = apperr.Validation("INVALID_AMOUNT", "Income and fees cannot be negative.")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Students.Update(ctx, id, upd); err != nil {
		respond.Error(w, r, h.Log, storeErr("update student", err))
		return
	}
	st, err := h.reload(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, studentResponse{Message: "Student updated", Student: st})
}

type resultRequest struct {
	Session string `json:"session"`
	Class   string `json:"class"`
	Result  string `json:"result"`
	Remarks string `json:"remarks"`
}

// EditResult handles PUT /student/{id}/editresult by appending a result.
func (h *Handler) EditResult(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req resultRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	entry := models.ResultEntry{
		Session: strings.TrimSpace(req.Session),
		Class:   strings.TrimSpace(req.Class),
		Result:  strings.TrimSpace(req.Result),
		Remarks: strings.TrimSpace(req.Remarks),
		AddedAt: time.Now().UTC(),
	}
	if entry.Session == "" || entry.Result == "" {
		respond.Error(w, r, h.Log, apperr.Validation("RESULT_REQUIRED", "Session and result are required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Students.AddResult(ctx, id, entry); err != nil {
		respond.Error(w, r, h.Log, storeErr("add result", err))
		return
	}
	st, err := h.reload(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, studentResponse{Message: "Result added", Student: st})
}

type sponsorRequest struct {
	Sponsor string   `json:"sponsor"`
	Percent *float64 `json:"percent"`
}

// EditSponsor handles PUT /student/{id}/editsponsor.
func (h *Handler) EditSponsor(w http.ResponseWriter, r *http.Request) {
	var req sponsorRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.Sponsorship.AssignSponsor(ctx, chi.URLParam(r, "id"), req.Sponsor, req.Percent)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, studentResponse{Message: "Sponsor assigned", Student: st})
}

// RemoveSponsor handles DELETE /student/{id}/sponsor.
func (h *Handler) RemoveSponsor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.Sponsorship.RemoveSponsor(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, studentResponse{Message: "Sponsor removed", Student: st})
}

// List handles GET /student/all?centre=&sponsored=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := studentstore.Filter{Centre: strings.TrimSpace(r.URL.Query().Get("centre"))}
	switch r.URL.Query().Get("sponsored") {
	case "":
	case "true":
		v := true
		f.Sponsored = &v
	case "false":
		v := false
		f.Sponsored = &v
	default:
		respond.Error(w, r, h.Log, apperr.Validation("INVALID_FILTER", "sponsored must be true or false."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Students.List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list students", err))
		return
	}
	if list == nil {
		list = []models.Student{}
	}
	respond.OK(w, struct {
		Students []models.Student `json:"students"`
	}{list})
}

// Get handles GET /student/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.reload(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, studentResponse{Student: st})
}

// Delete handles DELETE /student/{id}. A sponsored student is first released
// so the sponsor's list stays consistent; the photo goes last.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.reload(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if st.SponsorID != nil {
		if _, err := h.Sponsorship.RemoveSponsor(ctx, id.Hex()); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}
	n, err := h.Students.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("delete student", err))
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, errNotFound)
		return
	}
	if st.ProfilePhoto != "" {
		h.Blobs.DeleteBestEffort(ctx, st.ProfilePhoto)
	}
	respond.OK(w, struct {
		Message string `json:"message"`
	}{"Student deleted"})
}
