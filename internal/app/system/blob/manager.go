package blob

import (
	"context"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/metrics"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Manager wraps a Store with the upload-then-persist sequence.
type Manager struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// NewManager returns a Manager over store.
func NewManager(store Store, log *zap.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// Upload stores u and returns its reference. A failure here is on the
// critical path and comes back as an Upstream error.
func (m *Manager) Upload(ctx context.Context, u Upload) (Ref, error) {
	key := NewKey(u.Prefix, u.Filename, m.now())
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	url, err := m.store.Put(ctx, key, u.Body, u.Size, u.ContentType)
	if err != nil {
		return Ref{}, apperr.Upstream("UPLOAD_FAILED", "File upload failed.", err)
	}
	return Ref{URL: url, Container: m.store.Container(), Key: key}, nil
}

// UploadThenPersist uploads u and then calls persist with the reference. If
// persist fails, the uploaded object is deleted best-effort and persist's
// error is returned unchanged.
func (m *Manager) UploadThenPersist(ctx context.Context, u Upload, persist func(ctx context.Context, ref Ref) error) (Ref, error) {
	ref, err := m.Upload(ctx, u)
	if err != nil {
		return Ref{}, err
	}
	if err := persist(ctx, ref); err != nil {
		m.compensate(ref, err)
		return Ref{}, err
	}
	return ref, nil
}

// compensate runs on a fresh context: the request context may already be
// cancelled when persist failed.
func (m *Manager) compensate(ref Ref, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	if err := m.store.Delete(ctx, ref.Key); err != nil {
		metrics.BlobCompensations.WithLabelValues("failed").Inc()
		m.log.Warn("orphaned upload not removed",
			zap.String("blob_url", ref.URL),
			zap.String("blob_key", ref.Key),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	metrics.BlobCompensations.WithLabelValues("deleted").Inc()
	m.log.Info("removed upload after failed persist",
		zap.String("blob_url", ref.URL),
		zap.NamedError("cause", cause))
}

// DeleteBestEffort removes the object behind url. Failures are logged and
// reported as false; callers never abort on them. An empty url is a no-op.
func (m *Manager) DeleteBestEffort(ctx context.Context, url string) bool {
	if url == "" {
		return true
	}
	key, err := m.store.KeyFromURL(url)
	if err != nil {
		m.log.Warn("blob delete skipped", zap.String("blob_url", url), zap.Error(err))
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.Warn("blob delete failed", zap.String("blob_url", url), zap.Error(err))
		return false
	}
	return true
}
