package middleware

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	r := gin.New()
	var seen string
	r.GET("/ping", RequestIDMiddleware(), func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(200)
	})

	w := perform(r, "GET", "/ping", nil)

	echoed := w.Header().Get(RequestIDHeader)
	if echoed == "" {
		t.Fatal("expected X-Request-ID response header")
	}
	if echoed != seen {
		t.Errorf("context value %q does not match response header %q", seen, echoed)
	}
	if _, err := uuid.Parse(echoed); err != nil {
		t.Errorf("generated request ID is not a UUID: %q", echoed)
	}
}

func TestRequestID_InboundValueReused(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RequestIDMiddleware(), okHandler)

	w := perform(r, "GET", "/ping", map[string]string{RequestIDHeader: "upstream-id-123"})

	if got := w.Header().Get(RequestIDHeader); got != "upstream-id-123" {
		t.Errorf("expected inbound request ID to be reused, got %q", got)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RequestIDMiddleware(), okHandler)

	first := perform(r, "GET", "/ping", nil).Header().Get(RequestIDHeader)
	second := perform(r, "GET", "/ping", nil).Header().Get(RequestIDHeader)

	if first == second {
		t.Errorf("two requests received the same generated ID: %q", first)
	}
}
