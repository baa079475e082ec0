package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"freshlogic/internal/riskerr"
	"freshlogic/internal/status"
)

func TestObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveAnalysis(status.Critical, 0.9, 3, 20*time.Millisecond)
	m.ObserveAnalysis(status.Critical, 0.8, 1, time.Millisecond)
	m.ObserveFailure(&riskerr.UnknownCropError{Crop: "Kiwano"})
	m.ObserveFailure(errors.New("boom"))
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	if got := testutil.ToFloat64(m.analyses.WithLabelValues("Critical")); got != 2 {
		t.Errorf("critical analyses = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("unsupported_crop")); got != 1 {
		t.Errorf("unsupported_crop failures = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("internal")); got != 1 {
		t.Errorf("internal failures = %v", got)
	}
	if got := testutil.ToFloat64(m.sessionMisses); got != 2 {
		t.Errorf("misses = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveAnalysis(status.Safe, 0.01, 5, time.Millisecond)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`freshlogic_analyses_total{status="Safe"} 1`,
		`freshlogic_analyses_total{status="Warning"} 0`,
		"freshlogic_analysis_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	NewMetrics()
	NewMetrics()
}
