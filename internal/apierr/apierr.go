// Package apierr defines the typed rejection taxonomy shared by the
// authorization core and the HTTP layer, and translates it at the routing
// boundary into the JSON error envelope:
//
//	{"success": false, "error": {"code": "...", "message": "..."}}
//
// Every rejection a client can trigger is one of these kinds; they are
// expected outcomes, never crashes. Only storage-layer failures fall outside
// the taxonomy — those are logged and surfaced as a generic INTERNAL/500.
//
// NOT_FOUND deliberately conflates "does not exist" with "exists but is
// outside your tenant scope" so responses never leak existence across tenant
// boundaries. EXPIRED is distinct from UNAUTHORIZED and NOT_FOUND so clients
// can offer "request a new invitation" versus "log in again".
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code is a stable machine-readable rejection code.
type Code string

const (
	CodeUnauthorized   Code = "UNAUTHORIZED"    // 401: missing/invalid/expired token
	CodeTenantRequired Code = "TENANT_REQUIRED" // 400: no tenant resolved for a tenant-scoped operation
	CodeForbidden      Code = "FORBIDDEN"       // 403: role/ownership rule blocks the action
	CodeNotFound       Code = "NOT_FOUND"       // 404: absent or outside caller's tenant scope
	CodeConflict       Code = "CONFLICT"        // 409: uniqueness constraint already satisfied
	CodeExpired        Code = "EXPIRED"         // 410: invitation or token past its time bound
	CodeInvalidState   Code = "INVALID_STATE"   // 409: operation illegal in the resource's current state
	CodeValidation     Code = "VALIDATION"      // 400: malformed request body/parameters
	CodeInternal       Code = "INTERNAL"        // 500: unexpected storage/system failure
)

// statusFor maps each code onto its HTTP status.
var statusFor = map[Code]int{
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeTenantRequired: http.StatusBadRequest,
	CodeForbidden:      http.StatusForbidden,
	CodeNotFound:       http.StatusNotFound,
	CodeConflict:       http.StatusConflict,
	CodeExpired:        http.StatusGone,
	CodeInvalidState:   http.StatusConflict,
	CodeValidation:     http.StatusBadRequest,
	CodeInternal:       http.StatusInternalServerError,
}

// Error is a typed, expected rejection.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	if s, ok := statusFor[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New constructs a typed error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Unauthorized(msg string) *Error   { return New(CodeUnauthorized, msg) }
func TenantRequired(msg string) *Error { return New(CodeTenantRequired, msg) }
func Forbidden(msg string) *Error      { return New(CodeForbidden, msg) }
func NotFound(msg string) *Error       { return New(CodeNotFound, msg) }
func Conflict(msg string) *Error       { return New(CodeConflict, msg) }
func Expired(msg string) *Error        { return New(CodeExpired, msg) }
func InvalidState(msg string) *Error   { return New(CodeInvalidState, msg) }
func Validation(msg string) *Error     { return New(CodeValidation, msg) }
func Internal(msg string) *Error       { return New(CodeInternal, msg) }

// Is reports whether err is a typed error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Respond writes err as the JSON error envelope. Untyped errors are treated
// as unexpected: logged with the request path and masked as INTERNAL so no
// storage detail leaks to clients.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		slog.Error("unexpected error", "path", c.FullPath(), "error", err)
		e = Internal("internal server error")
	}
	c.JSON(e.Status(), gin.H{
		"success": false,
		"error":   gin.H{"code": e.Code, "message": e.Message},
	})
}

// Abort is Respond plus gin abort, for use inside middleware.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}
