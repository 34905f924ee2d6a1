package middleware

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func securityRouter(cfg SecurityHeadersConfig) *gin.Engine {
	r := gin.New()
	r.GET("/ping", SecurityHeadersMiddleware(cfg), okHandler)
	return r
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	w := perform(securityRouter(DefaultSecurityHeadersConfig()), "GET", "/ping", nil)

	checks := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("unexpected CSP: %q", csp)
	}
}

func TestSecurityHeaders_HSTSValue(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig()
	cfg.HSTSMaxAge = 86400
	cfg.HSTSIncludeSubdomains = true
	cfg.HSTSPreload = true

	w := perform(securityRouter(cfg), "GET", "/ping", nil)

	want := "max-age=86400; includeSubDomains; preload"
	if got := w.Header().Get("Strict-Transport-Security"); got != want {
		t.Errorf("Strict-Transport-Security = %q, want %q", got, want)
	}
}

func TestSecurityHeaders_APIProfile(t *testing.T) {
	w := perform(securityRouter(APISecurityHeadersConfig()), "GET", "/ping", nil)

	// JSON APIs don't need the legacy XSS filter.
	if got := w.Header().Get("X-XSS-Protection"); got != "" {
		t.Errorf("API profile should omit X-XSS-Protection, got %q", got)
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("API profile CSP should deny everything, got %q", csp)
	}
	if got := w.Header().Get("Cross-Origin-Resource-Policy"); got != "same-origin" {
		t.Errorf("Cross-Origin-Resource-Policy = %q", got)
	}
}

func TestSecurityHeaders_DisabledSectionsOmitted(t *testing.T) {
	cfg := SecurityHeadersConfig{} // everything off

	w := perform(securityRouter(cfg), "GET", "/ping", nil)

	for _, header := range []string{"Strict-Transport-Security", "X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy"} {
		if got := w.Header().Get(header); got != "" {
			t.Errorf("expected %s to be omitted, got %q", header, got)
		}
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 31536000: "31536000", -42: "-42"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}
