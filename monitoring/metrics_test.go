package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.FieldEvent("ph")
	m.FieldEvent("ph")
	m.Classified(OutcomeIncomplete, 0)
	m.Classified(OutcomePotable, time.Millisecond)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	if got := testutil.ToFloat64(m.fieldEvents.WithLabelValues("ph")); got != 2 {
		t.Fatalf("expected 2 ph events, got %v", got)
	}
	if got := testutil.ToFloat64(m.classifyTotal.WithLabelValues("incomplete")); got != 1 {
		t.Fatalf("expected 1 incomplete, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsActive); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `potability_classify_total{outcome="potable"} 1`) {
		t.Fatalf("metrics output missing classify counter:\n%s", w.Body.String())
	}
}
