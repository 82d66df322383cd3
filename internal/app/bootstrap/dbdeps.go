// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/donorhub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Runtime is allocated by ConnectDB and filled in by Startup.
	Runtime *Runtime
}

// Runtime holds the long-lived services Startup builds and Shutdown stops.
type Runtime struct {
	Blobs      *blob.Manager
	Dispatcher *mailer.Dispatcher
	Cleanup    *workers.OTPCleanup
	Limiter    ratelimit.Allower
	Redis      *redis.Client

	memLimiter *ratelimit.Limiter
}
