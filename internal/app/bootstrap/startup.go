// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/app/system/workers"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup builds the long-lived services after the database is ready and
// before the HTTP handler is built: blob storage, the notification
// dispatcher, the rate limiter and the credential cleanup worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	rt := deps.Runtime
	if rt == nil {
		return fmt.Errorf("startup: runtime not allocated")
	}

	store, err := newBlobStore(ctx, appCfg)
	if err != nil {
		logger.Error("blob storage init failed", zap.String("storage_type", appCfg.StorageType), zap.Error(err))
		return err
	}
	rt.Blobs = blob.NewManager(store, logger)
	logger.Info("blob storage ready",
		zap.String("storage_type", appCfg.StorageType),
		zap.String("container", store.Container()))

	var sender mailer.Sender = mailer.LogSender{Log: logger}
	if appCfg.MailSMTPHost != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		})
	}
	rt.Dispatcher = mailer.NewDispatcher(sender, logger, appCfg.NotifyWorkers, appCfg.NotifyBuffer, mailer.KafkaConfig{
		Brokers: appCfg.KafkaBrokers,
		Topic:   appCfg.KafkaTopic,
		GroupID: appCfg.KafkaGroupID,
	})
	// Workers outlive the startup context; Shutdown stops them.
	rt.Dispatcher.Start(context.Background())

	if err := setupLimiter(ctx, appCfg, rt, logger); err != nil {
		return err
	}

	rt.Cleanup = workers.NewOTPCleanup(userstore.New(deps.MongoDatabase), logger, appCfg.CleanupInterval)
	rt.Cleanup.Start()

	if appCfg.AdminEmail != "" {
		ectx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		if err := ensureAdmin(ectx, deps.MongoDatabase, appCfg.AdminEmail, logger); err != nil {
			logger.Error("ensure admin failed", zap.String("email", appCfg.AdminEmail), zap.Error(err))
			return err
		}
	}
	return nil
}

// newBlobStore picks the backend named by storage_type.
func newBlobStore(ctx context.Context, appCfg AppConfig) (blob.Store, error) {
	switch appCfg.StorageType {
	case "azure":
		return blob.NewAzureStore(appCfg.AzureConnectionString, appCfg.AzureContainer)
	case "s3":
		return blob.NewS3Store(ctx, blob.S3Config{
			Region:    appCfg.StorageS3Region,
			Bucket:    appCfg.StorageS3Bucket,
			Prefix:    appCfg.StorageS3Prefix,
			Endpoint:  appCfg.StorageS3Endpoint,
			PublicURL: appCfg.StorageS3PublicURL,
		})
	case "local":
		return blob.NewLocalStore(appCfg.StorageLocalPath, localPublicURL(appCfg))
	default:
		return nil, fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}
}

// localPublicURL makes a relative storage_local_url absolute against
// base_url so stored links work from the frontend's origin.
func localPublicURL(appCfg AppConfig) string {
	u := appCfg.StorageLocalURL
	if strings.HasPrefix(u, "/") {
		return appCfg.BaseURL + u
	}
	return u
}

// setupLimiter prefers the shared Redis limiter and falls back to process
// memory when Redis is not configured or unreachable.
func setupLimiter(ctx context.Context, appCfg AppConfig, rt *Runtime, logger *zap.Logger) error {
	if appCfg.RedisURL != "" {
		rctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		client, err := ratelimit.Connect(rctx, appCfg.RedisURL)
		if err == nil {
			rt.Redis = client
			rt.Limiter = ratelimit.NewRedisLimiter(client, "donorhub:rl", appCfg.RateLimit, appCfg.RateLimitEvery, logger)
			logger.Info("rate limiter using redis")
			return nil
		}
		logger.Warn("redis unavailable; rate limits are per process", zap.Error(err))
	}
	rt.memLimiter = ratelimit.New(appCfg.RateLimit, appCfg.RateLimitEvery)
	rt.Limiter = rt.memLimiter
	return nil
}

// ensureAdmin promotes the account registered under email to a verified
// admin. Accounts are never created here because no password is known; a
// missing account is logged and skipped.
func ensureAdmin(ctx context.Context, db *mongo.Database, email string, logger *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := db.Collection("users").UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"role":        models.RoleAdmin,
			"is_verified": true,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	switch {
	case res.MatchedCount == 0:
		logger.Warn("admin_email has no account yet; register it and restart", zap.String("email", email))
	case res.ModifiedCount > 0:
		logger.Info("promoted user to admin", zap.String("email", email))
	}
	return nil
}
