package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// ---------------------------------------------------------------------------
// Metric registration sanity checks — verify every exported metric is properly
// registered and carries the expected fully-qualified name.
//
// We check registration via Describe() rather than DefaultGatherer.Gather()
// because Gather() only returns series that have been observed at least once;
// *Vec metrics with no label combinations yet used are silently absent from
// Gather output even though they are correctly registered.
// ---------------------------------------------------------------------------

func TestMetrics_AllRegistered(t *testing.T) {
	type describer interface {
		Describe(chan<- *prometheus.Desc)
	}

	cases := []struct {
		name string
		c    describer
	}{
		{"http_requests_total", HTTPRequestsTotal},
		{"http_request_duration_seconds", HTTPRequestDuration},
		{"auth_failures_total", AuthFailuresTotal},
		{"invitations_issued_total", InvitationsIssuedTotal},
		{"invitations_resolved_total", InvitationsResolvedTotal},
		{"attachment_uploads_total", AttachmentUploadsTotal},
		{"attachment_downloads_total", AttachmentDownloadsTotal},
		{"db_open_connections", DBOpenConnections},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ch := make(chan *prometheus.Desc, 10)
			tc.c.Describe(ch)
			close(ch)
			for desc := range ch {
				// prometheus.Desc.String() returns a Go syntax string of the form:
				//   Desc{fqName: "<name>", help: "...", constLabels: {}, variableLabels: [...]}
				if strings.Contains(desc.String(), `"`+tc.name+`"`) {
					return // found — test passes
				}
			}
			t.Errorf("metric %q: Describe() returned no descriptor with this fqName", tc.name)
		})
	}
}

func TestMetrics_HTTPRequestsTotal_CanBeIncremented(t *testing.T) {
	before := counterValue(t, HTTPRequestsTotal, prometheus.Labels{
		"method": "GET", "path": "/test", "status": "200",
	})
	HTTPRequestsTotal.WithLabelValues("GET", "/test", "200").Inc()
	after := counterValue(t, HTTPRequestsTotal, prometheus.Labels{
		"method": "GET", "path": "/test", "status": "200",
	})
	if after-before < 1 {
		t.Errorf("HTTPRequestsTotal.Inc() did not increase counter (before=%.0f after=%.0f)", before, after)
	}
}

func TestMetrics_AuthFailures_CanBeIncremented(t *testing.T) {
	before := counterValue(t, AuthFailuresTotal, prometheus.Labels{"reason": "forbidden"})
	AuthFailuresTotal.WithLabelValues("forbidden").Inc()
	after := counterValue(t, AuthFailuresTotal, prometheus.Labels{"reason": "forbidden"})
	if after-before < 1 {
		t.Errorf("AuthFailuresTotal.Inc() did not increase counter")
	}
}

func TestMetrics_Invitations_CanBeIncremented(t *testing.T) {
	before := plainCounterValue(t, InvitationsIssuedTotal)
	InvitationsIssuedTotal.Inc()
	after := plainCounterValue(t, InvitationsIssuedTotal)
	if after-before < 1 {
		t.Errorf("InvitationsIssuedTotal.Inc() did not increase counter")
	}

	resolvedBefore := counterValue(t, InvitationsResolvedTotal, prometheus.Labels{"outcome": "accepted"})
	InvitationsResolvedTotal.WithLabelValues("accepted").Inc()
	resolvedAfter := counterValue(t, InvitationsResolvedTotal, prometheus.Labels{"outcome": "accepted"})
	if resolvedAfter-resolvedBefore < 1 {
		t.Errorf("InvitationsResolvedTotal.Inc() did not increase counter")
	}
}

func TestMetrics_Attachments_CanBeIncremented(t *testing.T) {
	before := counterValue(t, AttachmentUploadsTotal, prometheus.Labels{"backend": "local"})
	AttachmentUploadsTotal.WithLabelValues("local").Inc()
	after := counterValue(t, AttachmentUploadsTotal, prometheus.Labels{"backend": "local"})
	if after-before < 1 {
		t.Errorf("AttachmentUploadsTotal.Inc() did not increase counter")
	}

	AttachmentDownloadsTotal.WithLabelValues("s3").Inc()
}

func TestMetrics_DBOpenConnections_CanBeSet(t *testing.T) {
	DBOpenConnections.Set(5)
	// If no panic, gauge is working.
	DBOpenConnections.Set(0) // reset to neutral value
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// counterValue reads the current value of a CounterVec for the given label set.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 20)
	cv.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		if labelsMatch(dm.GetLabel(), labels) {
			return dm.GetCounter().GetValue()
		}
	}
	return 0
}

// plainCounterValue reads the value of a plain (non-vec) Counter.
func plainCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		return dm.GetCounter().GetValue()
	}
	return 0
}

// labelsMatch returns true when all entries in want appear in got.
func labelsMatch(got []*dto.LabelPair, want prometheus.Labels) bool {
	for k, v := range want {
		found := false
		for _, lp := range got {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
