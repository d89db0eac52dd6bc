package daemon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposesBridgeAndRunSeries(t *testing.T) {
	d := newTestDaemon(t)
	d.metrics.publishRuns.WithLabelValues("success").Inc()
	d.metrics.renderRuns.WithLabelValues("failure").Inc()

	w := httptest.NewRecorder()
	d.metrics.handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}

	body := w.Body.String()
	for _, series := range []string{
		"slate_bridge_connected 0",
		"slate_bridge_calls_total 0",
		"slate_bridge_timeouts_total 0",
		"slate_bridge_host_errors_total 0",
		"slate_bridge_events_total 0",
		"slate_bridge_heartbeat_failures_total 0",
		`slate_publish_runs_total{result="success"} 1`,
		`slate_render_runs_total{result="failure"} 1`,
		"slate_bridge_reconnects_total 0",
		"slate_panel_commands_total 0",
	} {
		if !strings.Contains(body, series) {
			t.Fatalf("metrics output missing %q:\n%s", series, body)
		}
	}
}
