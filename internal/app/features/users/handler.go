// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	accountsvc "github.com/dalemusser/donorhub/internal/app/services/accounts"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/formutil"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves /user: registration, sign-in, profile and the admin user
// operations.
type Handler struct {
	Accounts *accountsvc.Service
	Blobs    *blob.Manager
	Log      *zap.Logger
}

func NewHandler(accounts *accountsvc.Service, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Blobs: blobs, Log: logger}
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type sessionResponse struct {
	Message string `json:"message"`
	*accountsvc.Session
}

func registrationFrom(r *http.Request) (accountsvc.Registration, error) {
	dob, err := formutil.Date(r, "dateOfBirth")
	if err != nil {
		return accountsvc.Registration{}, err
	}
	p := models.Profile{
		Name:                formutil.String(r, "name"),
		ContactNumber:       formutil.String(r, "contactNumber"),
		Address:             formutil.String(r, "address"),
		Gender:              formutil.String(r, "gender"),
		CurrentJob:          formutil.String(r, "currentJob"),
		GovernmentOfficial:  formutil.Bool(r, "governmentOfficial"),
		ISMPassout:          formutil.Bool(r, "ismPassout"),
		Batch:               formutil.String(r, "batch"),
		KartavyaVolunteer:   formutil.Bool(r, "kartavyaVolunteer"),
		YearsOfServiceStart: formutil.String(r, "yearsOfServiceStart"),
		YearsOfServiceEnd:   formutil.String(r, "yearsOfServiceEnd"),
		TypeOfSponsor:       formutil.String(r, "typeOfSponsor"),
	}
	if !dob.IsZero() {
		p.DateOfBirth = &dob
	}
	return accountsvc.Registration{
		Username: formutil.String(r, "username"),
		Password: r.FormValue("password"),
		Email:    formutil.String(r, "email"),
		Profile:  p,
	}, nil
}

// Register handles POST /user/register (multipart, optional profilePicture).
// The form is validated before the picture is uploaded; a failed insert
// removes the uploaded picture again.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(w, r, limits.MaxImageUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	reg, err := registrationFrom(r)
	if err == nil {
		err = accountsvc.ValidateRegistration(reg)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := formutil.OpenFile(r, "profilePicture", "user", limits.MaxImageUpload)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var user *models.User
	if f == nil {
		user, err = h.Accounts.Register(ctx, reg, "")
	} else {
		defer f.Close()
		_, err = h.Blobs.UploadThenPersist(ctx, f.Upload, func(ctx context.Context, ref blob.Ref) error {
			var perr error
			user, perr = h.Accounts.Register(ctx, reg, ref.URL)
			return perr
		})
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, userResponse{
		Message: "Registration successful. Check your email for the verification code.",
		User:    user,
	})
}

type verifyRequest struct {
	Username string `json:"username"`
	OTPEmail string `json:"otpEmail"`
}

// VerifyOTP handles POST /user/verify.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.VerifyOTP(ctx, req.Username, req.OTPEmail); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "Account verified successfully."})
}

type resendRequest struct {
	Username string `json:"username"`
}

// ResendOTP handles POST /user/resend-otp.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.ResendOTP(ctx, actor, req.Username); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "A new OTP has been sent to your email."})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, sessionResponse{Message: "Login successful", Session: sess})
}
