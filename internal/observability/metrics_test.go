package observability

import (
	"testing"
	"time"

	"github.com/danmuck/labctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordLogin(false)

	if got := testutil.ToFloat64(loginAttempts.WithLabelValues("false")); got < 1 {
		t.Fatalf("expected failed login to be counted, got %v", got)
	}
}
