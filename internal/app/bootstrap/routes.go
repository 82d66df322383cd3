// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	adminfeature "github.com/dalemusser/donorhub/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/donorhub/internal/app/features/authgoogle"
	contactsfeature "github.com/dalemusser/donorhub/internal/app/features/contacts"
	documentsfeature "github.com/dalemusser/donorhub/internal/app/features/documents"
	donationsfeature "github.com/dalemusser/donorhub/internal/app/features/donations"
	healthfeature "github.com/dalemusser/donorhub/internal/app/features/health"
	mediafeature "github.com/dalemusser/donorhub/internal/app/features/media"
	newsfeature "github.com/dalemusser/donorhub/internal/app/features/news"
	studentsfeature "github.com/dalemusser/donorhub/internal/app/features/students"
	usersfeature "github.com/dalemusser/donorhub/internal/app/features/users"
	accountsvc "github.com/dalemusser/donorhub/internal/app/services/accounts"
	donationsvc "github.com/dalemusser/donorhub/internal/app/services/donations"
	sponsorshipsvc "github.com/dalemusser/donorhub/internal/app/services/sponsorship"
	contactstore "github.com/dalemusser/donorhub/internal/app/store/contacts"
	documentstore "github.com/dalemusser/donorhub/internal/app/store/documents"
	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	mediastore "github.com/dalemusser/donorhub/internal/app/store/media"
	newsstore "github.com/dalemusser/donorhub/internal/app/store/news"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/metrics"
	"github.com/dalemusser/donorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/donorhub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for donorhub.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Stores and services are built once here and shared
// by the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	db := deps.MongoDatabase
	secure := coreCfg.Env == "prod"

	users := userstore.New(db)
	donations := donationstore.New(db)
	students := studentstore.New(db)
	documents := documentstore.New(db)
	runner := txn.New(db, logger)

	tokens := auth.NewTokens(appCfg.JWTSecret)
	gate := auth.NewGate(tokens, users, logger)
	emails := mailer.Builder{SiteName: appCfg.SiteName, AdminFrom: appCfg.MailAdminFrom}

	accounts := accountsvc.New(accountsvc.Deps{
		Users:       users,
		Donations:   donations,
		Students:    students,
		Documents:   documents,
		Tokens:      tokens,
		Blobs:       rt.Blobs,
		Notifier:    rt.Dispatcher,
		Emails:      emails,
		FrontendURL: appCfg.FrontendURL,
		OTPTTL:      appCfg.OTPExpiry,
		ResetTTL:    appCfg.ResetExpiry,
		Log:         logger,
	})
	ledger := donationsvc.New(donationsvc.Deps{
		Donations: donations,
		Users:     users,
		Txn:       runner,
		Blobs:     rt.Blobs,
		Notifier:  rt.Dispatcher,
		Emails:    emails,
		Log:       logger,
	})
	sponsorship := sponsorshipsvc.New(students, users, runner, logger)

	// One limiter instance; the name keeps each route group's budget apart.
	limit := func(name string) func(http.Handler) http.Handler {
		return ratelimit.ByIP(rt.Limiter, name, logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.StorageType, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	if appCfg.StorageType == "local" {
		prefix := "/" + strings.Trim(appCfg.StorageLocalURL, "/")
		if strings.HasPrefix(appCfg.StorageLocalURL, "/") {
			r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(appCfg.StorageLocalPath))))
		}
	}

	usersHandler := usersfeature.NewHandler(accounts, rt.Blobs, logger)
	r.Mount("/user", usersfeature.Routes(usersHandler, gate, limit("user")))

	donationsHandler := donationsfeature.NewHandler(ledger, rt.Blobs, logger)
	r.Mount("/donation", donationsfeature.Routes(donationsHandler, gate, limit("donation")))

	studentsHandler := studentsfeature.NewHandler(students, sponsorship, rt.Blobs, logger)
	r.Mount("/student", studentsfeature.Routes(studentsHandler, gate))

	mediaHandler := mediafeature.NewHandler(mediastore.New(db), rt.Blobs, logger)
	r.Mount("/media", mediafeature.Routes(mediaHandler, gate))

	newsHandler := newsfeature.NewHandler(newsstore.New(db), rt.Blobs, logger)
	r.Mount("/news", newsfeature.Routes(newsHandler, gate))

	contactsHandler := contactsfeature.NewHandler(contactstore.New(db), rt.Dispatcher, emails, logger)
	r.Mount("/contact", contactsfeature.Routes(contactsHandler, gate, limit("contact")))

	documentsHandler := documentsfeature.NewHandler(documents, users, rt.Blobs, logger)
	r.Mount("/document", documentsfeature.Routes(documentsHandler, gate))

	adminHandler := adminfeature.NewHandler(db, users, donations, students, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, gate))

	if appCfg.googleEnabled() {
		state, err := auth.NewStateStore(appCfg.SessionKey, secure, logger)
		if err != nil {
			logger.Error("oauth state store init failed", zap.Error(err))
			return nil, err
		}
		googleHandler := authgooglefeature.NewHandler(accounts, state,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.FrontendURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	} else {
		logger.Info("google sign-in disabled (no client credentials)")
	}

	return r, nil
}
