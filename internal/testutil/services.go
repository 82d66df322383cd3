package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"go.uber.org/zap"
)

// Outbox is a mailer.Notifier that records every queued email.
type Outbox struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (o *Outbox) Notify(e mailer.Email) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
}

// Sent returns a copy of the recorded emails.
func (o *Outbox) Sent() []mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Email(nil), o.sent...)
}

// Last returns the most recent email, or the zero Email.
func (o *Outbox) Last() mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mailer.Email{}
	}
	return o.sent[len(o.sent)-1]
}

// LocalBlobs returns a blob manager writing under a temp dir, and the dir.
func LocalBlobs(t *testing.T) (*blob.Manager, string) {
	t.Helper()
	root := t.TempDir()
	store, err := blob.NewLocalStore(root, "http://files.test/uploads")
	if err != nil {
		t.Fatalf("local blob store: %v", err)
	}
	return blob.NewManager(store, zap.NewNop()), root
}

// CountFiles returns how many regular files exist below root.
func CountFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return n
}
