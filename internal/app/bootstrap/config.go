// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTSecretLen is the shortest accepted HS256 secret.
const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for donorhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: DONORHUB_MONGO_URI, DONORHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "donorhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: "", Desc: "HS256 secret for bearer tokens (32+ chars)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Signing key for the OAuth state cookie"},

	// Blob storage
	{Name: "storage_type", Default: "local", Desc: "Blob backend: 'azure', 's3' or 'local'"},
	{Name: "azure_connection_string", Default: "", Desc: "Azure Storage connection string"},
	{Name: "azure_container", Default: "uploads", Desc: "Azure blob container"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "Custom S3 endpoint (MinIO etc.)"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for stored objects"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local directory for uploaded files"},
	{Name: "storage_local_url", Default: "/uploads", Desc: "URL prefix for serving local files"},

	// Email/SMTP
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@donorhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "DonorHub", Desc: "From display name"},
	{Name: "mail_admin_from", Default: "", Desc: "From address for admin replies (defaults to mail_from)"},
	{Name: "site_name", Default: "DonorHub", Desc: "Name used in email subjects and layouts"},

	// Notification queue
	{Name: "notify_workers", Default: 4, Desc: "Email delivery workers"},
	{Name: "notify_buffer", Default: 256, Desc: "In-process email queue size"},
	{Name: "kafka_brokers", Default: "", Desc: "Comma-separated Kafka brokers (blank keeps the queue in process)"},
	{Name: "kafka_topic", Default: "donorhub-notifications", Desc: "Kafka topic for queued emails"},
	{Name: "kafka_group_id", Default: "donorhub-mailer", Desc: "Kafka consumer group"},

	// URLs
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public URL of this API"},
	{Name: "frontend_url", Default: "http://localhost:5173", Desc: "Public URL of the frontend"},
	{Name: "cors_origins", Default: "", Desc: "Comma-separated allowed CORS origins (defaults to frontend_url)"},

	// Google OAuth
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Rate limiting
	{Name: "redis_url", Default: "", Desc: "Redis URL for shared rate limits (blank uses memory)"},
	{Name: "rate_limit", Default: 10, Desc: "Requests per window on limited routes"},
	{Name: "rate_limit_window", Default: "1m", Desc: "Rate limit window"},

	// Credential lifetimes
	{Name: "otp_expiry", Default: "60m", Desc: "Verification code lifetime"},
	{Name: "reset_expiry", Default: "60m", Desc: "Password reset link lifetime"},
	{Name: "cleanup_interval", Default: "10m", Desc: "How often expired codes are cleared"},

	{Name: "admin_email", Default: "", Desc: "Email of an existing user promoted to admin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DONORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:  appValues.String("jwt_secret"),
		SessionKey: appValues.String("session_key"),

		StorageType:           strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		AzureConnectionString: appValues.String("azure_connection_string"),
		AzureContainer:        appValues.String("azure_container"),
		StorageS3Region:       appValues.String("storage_s3_region"),
		StorageS3Bucket:       appValues.String("storage_s3_bucket"),
		StorageS3Prefix:       appValues.String("storage_s3_prefix"),
		StorageS3Endpoint:     appValues.String("storage_s3_endpoint"),
		StorageS3PublicURL:    appValues.String("storage_s3_public_url"),
		StorageLocalPath:      appValues.String("storage_local_path"),
		StorageLocalURL:       appValues.String("storage_local_url"),

		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		MailAdminFrom: appValues.String("mail_admin_from"),
		SiteName:      appValues.String("site_name"),

		NotifyWorkers: appValues.Int("notify_workers"),
		NotifyBuffer:  appValues.Int("notify_buffer"),
		KafkaBrokers:  splitList(appValues.String("kafka_brokers")),
		KafkaTopic:    appValues.String("kafka_topic"),
		KafkaGroupID:  appValues.String("kafka_group_id"),

		BaseURL:     strings.TrimRight(appValues.String("base_url"), "/"),
		FrontendURL: strings.TrimRight(appValues.String("frontend_url"), "/"),
		CORSOrigins: splitList(appValues.String("cors_origins")),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		RedisURL:       appValues.String("redis_url"),
		RateLimit:      appValues.Int("rate_limit"),
		RateLimitEvery: appValues.Duration("rate_limit_window", time.Minute),

		OTPExpiry:       appValues.Duration("otp_expiry", 60*time.Minute),
		ResetExpiry:     appValues.Duration("reset_expiry", 60*time.Minute),
		CleanupInterval: appValues.Duration("cleanup_interval", 10*time.Minute),

		AdminEmail: strings.ToLower(strings.TrimSpace(appValues.String("admin_email"))),
	}

	if appCfg.MailAdminFrom == "" {
		appCfg.MailAdminFrom = appCfg.MailFrom
	}
	if len(appCfg.CORSOrigins) == 0 && appCfg.FrontendURL != "" {
		appCfg.CORSOrigins = []string{appCfg.FrontendURL}
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection is attempted, and
// each storage backend must have the settings it needs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters", minJWTSecretLen)
	}

	switch appCfg.StorageType {
	case "azure":
		if appCfg.AzureConnectionString == "" || appCfg.AzureContainer == "" {
			return fmt.Errorf("storage_type=azure requires azure_connection_string and azure_container")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_type=s3 requires storage_s3_bucket and storage_s3_region")
		}
	case "local":
		if appCfg.StorageLocalPath == "" || appCfg.StorageLocalURL == "" {
			return fmt.Errorf("storage_type=local requires storage_local_path and storage_local_url")
		}
	default:
		return fmt.Errorf("unknown storage_type %q (want azure, s3 or local)", appCfg.StorageType)
	}

	if appCfg.NotifyWorkers < 1 {
		return fmt.Errorf("notify_workers must be at least 1")
	}
	if appCfg.RateLimit < 1 || appCfg.RateLimitEvery <= 0 {
		return fmt.Errorf("rate_limit and rate_limit_window must be positive")
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if appCfg.MailSMTPHost == "" {
		logger.Warn("mail_smtp_host not set; emails will be logged, not sent")
	}
	return nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
