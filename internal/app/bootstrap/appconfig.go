// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for donorhub.
//
// Values come from DONORHUB_* environment variables, config files, or
// command-line flags (see LoadConfig). Framework-level settings such as
// ports, TLS and log level live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token signing secret (HS256).
	JWTSecret string
	// Signing key for the short-lived OAuth state cookie.
	SessionKey string

	// Blob storage: "azure", "s3" or "local".
	StorageType           string
	AzureConnectionString string
	AzureContainer        string
	StorageS3Region       string
	StorageS3Bucket       string
	StorageS3Prefix       string
	StorageS3Endpoint     string
	StorageS3PublicURL    string
	StorageLocalPath      string
	StorageLocalURL       string

	// Email/SMTP. A blank host logs emails instead of sending them.
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailFrom      string
	MailFromName  string
	MailAdminFrom string
	SiteName      string

	// Notification queue
	NotifyWorkers int
	NotifyBuffer  int
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroupID  string

	// Public URLs
	BaseURL     string // this API, used for OAuth callbacks
	FrontendURL string // SPA, used for reset links and OAuth redirects
	CORSOrigins []string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Shared rate limiter. Blank keeps limits in process memory.
	RedisURL       string
	RateLimit      int
	RateLimitEvery time.Duration

	// Credential lifetimes
	OTPExpiry       time.Duration
	ResetExpiry     time.Duration
	CleanupInterval time.Duration

	// Email of an existing account to promote to admin on startup.
	AdminEmail string
}

// googleEnabled reports whether both OAuth credentials are configured.
func (c AppConfig) googleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
