package mailer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
	done chan struct{}
}

func newRecordingSender(err error) *recordingSender {
	return &recordingSender{err: err, done: make(chan struct{}, 16)}
}

func (s *recordingSender) Send(_ context.Context, e mailer.Email) error {
	s.mu.Lock()
	s.sent = append(s.sent, e)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for send %d of %d", i+1, n)
		}
	}
}

func TestDispatcher_DeliversQueuedMail(t *testing.T) {
	sender := newRecordingSender(nil)
	d := mailer.NewDispatcher(sender, zap.NewNop(), 2, 8, mailer.KafkaConfig{})
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(mailer.Email{To: []string{"a@example.com"}, Subject: "one"})
	d.Notify(mailer.Email{To: []string{"b@example.com"}, Subject: "two"})

	waitFor(t, sender.done, 2)
	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_SendFailureIsSwallowed(t *testing.T) {
	sender := newRecordingSender(errors.New("smtp down"))
	d := mailer.NewDispatcher(sender, zap.NewNop(), 1, 4, mailer.KafkaConfig{})
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(mailer.Email{To: []string{"a@example.com"}, Subject: "x"})
	waitFor(t, sender.done, 1)
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	sender := newRecordingSender(nil)
	// Not started: the buffer fills and further mail is dropped.
	d := mailer.NewDispatcher(sender, zap.NewNop(), 1, 1, mailer.KafkaConfig{})

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify(mailer.Email{To: []string{"a@example.com"}})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestDispatcher_StopDrainsBuffer(t *testing.T) {
	sender := newRecordingSender(nil)
	d := mailer.NewDispatcher(sender, zap.NewNop(), 1, 4, mailer.KafkaConfig{})
	d.Notify(mailer.Email{To: []string{"a@example.com"}})
	d.Notify(mailer.Email{To: []string{"b@example.com"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Stop()

	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_IgnoresEmptyRecipients(t *testing.T) {
	sender := newRecordingSender(nil)
	d := mailer.NewDispatcher(sender, zap.NewNop(), 1, 4, mailer.KafkaConfig{})
	d.Notify(mailer.Email{Subject: "nobody"})
	d.Start(context.Background())
	d.Stop()
	assert.Equal(t, 0, sender.count())
}

func TestBuilder_VerifyAccount(t *testing.T) {
	b := mailer.Builder{SiteName: "Kartavya"}
	e := b.VerifyAccount("donor@example.com", "Asha", "123456", time.Hour)

	assert.Equal(t, []string{"donor@example.com"}, e.To)
	assert.Equal(t, "Kartavya - Verify Your Email", e.Subject)
	assert.Contains(t, e.HTMLBody, "123456")
	assert.Contains(t, e.TextBody, "60 minutes")
}

func TestBuilder_EscapesUserInput(t *testing.T) {
	b := mailer.Builder{SiteName: "Kartavya"}
	e := b.ContactAck("x@example.com", "<b>Eve</b>", "hi", "<script>alert(1)</script>")

	assert.NotContains(t, e.HTMLBody, "<script>")
	assert.NotContains(t, e.HTMLBody, "<b>Eve</b>")
}

func TestBuilder_BulkSanitizesAdminHTML(t *testing.T) {
	b := mailer.Builder{SiteName: "Kartavya"}
	e := b.Bulk("x@example.com", "Ravi", "Annual Day", "<p>Join us</p><script>x()</script>",
		mailer.Options{Highlight: true, Content: "12 March", ButtonLink: "https://example.org", ButtonText: "RSVP"})

	require.Equal(t, "Kartavya - Annual Day", e.Subject)
	assert.Contains(t, e.HTMLBody, "Join us")
	assert.Contains(t, e.HTMLBody, "12 March")
	assert.Contains(t, e.HTMLBody, "https://example.org")
	assert.False(t, strings.Contains(e.HTMLBody, "x()"))
	assert.Equal(t, "Join us", e.TextBody)
}

func TestBuilder_DonationRejectedCarriesReason(t *testing.T) {
	b := mailer.Builder{SiteName: "Kartavya"}
	e := b.DonationRejected("d@example.com", "D", 500, "receipt unreadable")
	assert.Contains(t, e.HTMLBody, "receipt unreadable")
	assert.Contains(t, e.TextBody, "receipt unreadable")
}

func TestBuilder_AdminFromOnlyOnAdminMail(t *testing.T) {
	b := mailer.Builder{SiteName: "Kartavya", AdminFrom: "office@example.org"}

	assert.Equal(t, "office@example.org", b.ContactReply("x@example.com", "X", "Thanks", "ok", "Hi", "msg").From)
	assert.Equal(t, "office@example.org", b.Bulk("x@example.com", "X", "News", "hello", mailer.Options{}).From)
	assert.Empty(t, b.ContactAck("x@example.com", "X", "Hi", "msg").From)
}
