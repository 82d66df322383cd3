package accountsvc

import (
	"context"
	"strings"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListUsers returns every account. Credential fields never serialize.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	us, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list users", err)
	}
	if us == nil {
		us = []models.User{}
	}
	return us, nil
}

// DeleteUser removes a regular account and then its profile image.
// Administrators cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return apperr.Validation("INVALID_ID", "Invalid user id.")
	}
	u, err := s.users.GetByID(ctx, oid)
	if err != nil {
		return notFoundOr(err, errUserNotFound, "load user")
	}
	if u.Role != models.RoleRegular {
		return apperr.Forbidden("CANNOT_DELETE_ADMIN", "Cannot delete admin users.")
	}
	n, err := s.users.DeleteRegular(ctx, oid)
	if err != nil {
		return apperr.Internal("delete user", err)
	}
	if n == 0 {
		return errUserNotFound
	}
	if u.ProfileImage != "" && !s.blobs.DeleteBestEffort(ctx, u.ProfileImage) {
		s.log.Warn("profile image left behind",
			zap.String("user_id", id),
			zap.String("blob_url", u.ProfileImage))
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// BulkEmail queues an announcement to every registered user whose email is
// listed and returns the addresses it was queued for.
func (s *Service) BulkEmail(ctx context.Context, emails []string, subject, message string, opt mailer.Options) ([]string, error) {
	subject = strings.TrimSpace(subject)
	if len(emails) == 0 || subject == "" || strings.TrimSpace(message) == "" {
		return nil, apperr.Validation("INVALID_INPUT", "Provide recipients, subject and message.")
	}
	targets, err := s.users.FindByEmails(ctx, emails)
	if err != nil {
		return nil, apperr.Internal("load recipients", err)
	}
	if len(targets) == 0 {
		return nil, apperr.NotFound("NO_RECIPIENTS", "No valid users found.")
	}
	sent := make([]string, 0, len(targets))
	for _, u := range targets {
		s.notifier.Notify(s.emails.Bulk(u.Email, u.Name, subject, message, opt))
		sent = append(sent, u.Email)
	}
	return sent, nil
}
