package members

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var memCols = []string{"id", "tenant_id", "user_id", "role", "is_suspended", "invited_by", "joined_at", "updated_at"}

func memRow(userID string, role models.Role, suspended bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(memCols).
		AddRow("mem-"+userID, "tenant-1", userID, role, suspended, nil, now, now)
}

// newTestRouter mounts the member routes behind a stub middleware that scopes
// every request to tenant-1 with the given actor membership.
func newTestRouter(t *testing.T, actor *models.Membership) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	h := NewHandlers(services.NewMemberService(repositories.NewMembershipRepository(db)))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.TenantKey, &models.Tenant{ID: "tenant-1", Status: models.TenantActive})
		c.Set(middleware.TenantIDKey, "tenant-1")
		c.Set(middleware.MembershipKey, actor)
	})
	r.GET("/members", h.List())
	r.PUT("/members/:user_id/role", h.ChangeRole())
	r.POST("/members/:user_id/suspend", h.Suspend())
	r.POST("/members/:user_id/unsuspend", h.Unsuspend())
	r.DELETE("/members/:user_id", h.Remove())
	r.POST("/members/leave", h.Leave())

	return r, mock
}

func adminActor() *models.Membership {
	return &models.Membership{ID: "mem-user-1", TenantID: "tenant-1", UserID: "user-1", Role: models.RoleAdmin}
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectTarget(mock sqlmock.Sqlmock, userID string, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE tenant_id").
		WithArgs("tenant-1", userID).
		WillReturnRows(rows)
}

func TestList_ReturnsMembersWithUserDetails(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM memberships m.*JOIN users u").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows(append(memCols, "name", "email")).
			AddRow("mem-1", "tenant-1", "user-1", models.RoleOwner, false, nil, now, now, "Ada", "ada@example.com").
			AddRow("mem-2", "tenant-1", "user-2", models.RoleEditor, true, "user-1", now, now, "Grace", "grace@example.com"))

	w := doJSON(r, http.MethodGet, "/members", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	members := resp["members"].([]interface{})
	require.Len(t, members, 2)
	first := members[0].(map[string]interface{})
	assert.Equal(t, "ada@example.com", first["user_email"])
}

func TestChangeRole_DemotesEditor(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleEditor, false))
	mock.ExpectExec("UPDATE memberships.*SET role").
		WithArgs("tenant-1", "user-2", models.RoleViewer).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPut, "/members/user-2/role", gin.H{"role": "viewer"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	member := resp["member"].(map[string]interface{})
	assert.Equal(t, "viewer", member["role"])
}

func TestChangeRole_OwnerRoleUngrantable(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleEditor, false))

	w := doJSON(r, http.MethodPut, "/members/user-2/role", gin.H{"role": "owner"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChangeRole_MissingRole(t *testing.T) {
	r, _ := newTestRouter(t, adminActor())

	w := doJSON(r, http.MethodPut, "/members/user-2/role", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeRole_UnknownMember(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-9", sqlmock.NewRows(memCols))

	w := doJSON(r, http.MethodPut, "/members/user-9/role", gin.H{"role": "viewer"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuspend_FlagsMember(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleEditor, false))
	mock.ExpectExec("UPDATE memberships.*SET is_suspended").
		WithArgs("tenant-1", "user-2", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPost, "/members/user-2/suspend", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	member := resp["member"].(map[string]interface{})
	assert.Equal(t, true, member["is_suspended"])
}

func TestUnsuspend_ClearsFlag(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleEditor, true))
	mock.ExpectExec("UPDATE memberships.*SET is_suspended").
		WithArgs("tenant-1", "user-2", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPost, "/members/user-2/unsuspend", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuspend_PeerAdminForbidden(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleAdmin, false))

	w := doJSON(r, http.MethodPost, "/members/user-2/suspend", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRemove_DeletesMembership(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleViewer, false))
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("tenant-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodDelete, "/members/user-2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRemove_OwnerUntouchable(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	expectTarget(mock, "user-2", memRow("user-2", models.RoleOwner, false))

	w := doJSON(r, http.MethodDelete, "/members/user-2", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLeave_NonOwnerSucceeds(t *testing.T) {
	r, mock := newTestRouter(t, adminActor())

	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("tenant-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPost, "/members/leave", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLeave_OwnerBlocked(t *testing.T) {
	owner := &models.Membership{ID: "mem-user-1", TenantID: "tenant-1", UserID: "user-1", Role: models.RoleOwner}
	r, _ := newTestRouter(t, owner)

	w := doJSON(r, http.MethodPost, "/members/leave", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
