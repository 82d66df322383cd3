package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/system/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDonationEvents_Increment(t *testing.T) {
	before := testutil.ToFloat64(metrics.DonationEvents.WithLabelValues("verified"))
	metrics.DonationEvents.WithLabelValues("verified").Inc()
	after := testutil.ToFloat64(metrics.DonationEvents.WithLabelValues("verified"))
	if after-before != 1 {
		t.Errorf("counter moved by %v, want 1", after-before)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	metrics.Notifications.WithLabelValues("sent").Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "donorhub_notifications_total") {
		t.Error("expected donorhub_notifications_total in exposition")
	}
}
