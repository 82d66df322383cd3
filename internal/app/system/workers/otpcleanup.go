// internal/app/system/workers/otpcleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// CredentialSweeper clears expired one-time credentials. The user store
// satisfies it.
type CredentialSweeper interface {
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// OTPCleanup periodically unsets expired otp/otp_expiry pairs and reset
// tokens. Both fields of a pair are removed in the same update.
type OTPCleanup struct {
	users    CredentialSweeper
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewOTPCleanup creates the worker. interval defaults to 10 minutes.
func NewOTPCleanup(users CredentialSweeper, logger *zap.Logger, interval time.Duration) *OTPCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &OTPCleanup{
		users:    users,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *OTPCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("otp cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker and waits for it to finish. Safe to call twice.
func (w *OTPCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("otp cleanup worker stopped")
}

func (w *OTPCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one cleanup pass.
func (w *OTPCleanup) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	now := w.now()
	otps, err := w.users.ClearExpiredOTPs(ctx, now)
	if err != nil {
		w.log.Error("failed to clear expired otps", zap.Error(err))
	}
	resets, err := w.users.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		w.log.Error("failed to clear expired reset tokens", zap.Error(err))
	}

	if otps > 0 || resets > 0 {
		w.log.Info("cleared expired credentials",
			zap.Int64("otps", otps),
			zap.Int64("reset_tokens", resets))
	}
}
