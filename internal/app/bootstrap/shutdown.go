// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then closes Redis and MongoDB.
// Workers go first so in-flight sends and sweeps finish against live
// connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.Dispatcher != nil {
			rt.Dispatcher.Stop()
		}
		if rt.Cleanup != nil {
			rt.Cleanup.Stop()
		}
		if rt.memLimiter != nil {
			rt.memLimiter.Close()
		}
		if rt.Redis != nil {
			if err := rt.Redis.Close(); err != nil {
				logger.Warn("redis close failed", zap.Error(err))
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
