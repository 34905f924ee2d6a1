package middleware

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/noteplane/noteplane/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func requestCount(t *testing.T, method, path, status string) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 50)
	telemetry.HTTPRequestsTotal.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		match := 0
		for _, lp := range dm.GetLabel() {
			switch {
			case lp.GetName() == "method" && lp.GetValue() == method:
				match++
			case lp.GetName() == "path" && lp.GetValue() == path:
				match++
			case lp.GetName() == "status" && lp.GetValue() == status:
				match++
			}
		}
		if match == 3 {
			return dm.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetricsMiddleware_RecordsRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/tenants/:tenant_id/notes", okHandler)

	template := "/tenants/:tenant_id/notes"
	before := requestCount(t, "GET", template, "200")

	perform(r, "GET", "/tenants/t-123/notes", nil)

	after := requestCount(t, "GET", template, "200")
	if after-before < 1 {
		t.Errorf("expected counter for route template %q to increase (before=%.0f after=%.0f)", template, before, after)
	}

	// The raw URL must never appear as a label value.
	if requestCount(t, "GET", "/tenants/t-123/notes", "200") != 0 {
		t.Error("raw URL leaked into the path label")
	}
}

func TestMetricsMiddleware_NoRouteFallback(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())

	before := requestCount(t, "GET", "<no-route>", "404")
	perform(r, "GET", "/definitely/not/registered", nil)
	after := requestCount(t, "GET", "<no-route>", "404")

	if after-before < 1 {
		t.Errorf("expected <no-route> counter to increase (before=%.0f after=%.0f)", before, after)
	}
}
