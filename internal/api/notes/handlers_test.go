package notes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var noteCols = []string{"id", "tenant_id", "author_id", "title", "body", "created_at", "updated_at"}

func noteRow(id, title string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(noteCols).
		AddRow(id, "tenant-1", "user-1", title, "body text", now, now)
}

// newTestRouter wires the handlers behind a stub of the workspace middleware
// chain: every request arrives already scoped to tenant-1 as an editor.
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	h := NewHandlers(repositories.NewNoteRepository(sqlx.NewDb(db, "postgres")))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.TenantKey, &models.Tenant{ID: "tenant-1", Status: models.TenantActive})
		c.Set(middleware.TenantIDKey, "tenant-1")
		c.Set(middleware.MembershipKey, &models.Membership{
			TenantID: "tenant-1", UserID: "user-1", Role: models.RoleEditor,
		})
	})
	r.POST("/notes", h.Create())
	r.GET("/notes", h.List())
	r.GET("/notes/:note_id", h.Get())
	r.PUT("/notes/:note_id", h.Update())
	r.DELETE("/notes/:note_id", h.Delete())

	return r, mock
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&reader).Encode(body)
	}
	req := httptest.NewRequest(method, path, &reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreate_InsertsAuthoredNote(t *testing.T) {
	r, mock := newTestRouter(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO notes").
		WithArgs("tenant-1", "user-1", "Weekly sync", "agenda").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("note-1", now, now))

	w := doJSON(r, http.MethodPost, "/notes", gin.H{"title": "Weekly sync", "body": "agenda"})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	note := body["note"].(map[string]interface{})
	assert.Equal(t, "note-1", note["id"])
	assert.Equal(t, "user-1", note["author_id"])
}

func TestCreate_MissingTitle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/notes", gin.H{"body": "no title"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_DefaultsPagination(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT.*FROM notes.*WHERE tenant_id").
		WithArgs("tenant-1", 20, 0).
		WillReturnRows(noteRow("note-1", "first"))

	w := doJSON(r, http.MethodGet, "/notes", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["notes"], 1)
}

func TestList_ClampsPerPageAndOffsets(t *testing.T) {
	r, mock := newTestRouter(t)

	// per_page over the cap falls back to the default of 20
	mock.ExpectQuery("SELECT.*FROM notes.*WHERE tenant_id").
		WithArgs("tenant-1", 20, 40).
		WillReturnRows(sqlmock.NewRows(noteCols))

	w := doJSON(r, http.MethodGet, "/notes?page=3&per_page=500", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGet_ReturnsNote(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT.*FROM notes.*WHERE tenant_id").
		WithArgs("tenant-1", "note-1").
		WillReturnRows(noteRow("note-1", "found"))

	w := doJSON(r, http.MethodGet, "/notes/note-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	note := body["note"].(map[string]interface{})
	assert.Equal(t, "found", note["title"])
}

func TestGet_MissingNote(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT.*FROM notes.*WHERE tenant_id").
		WithArgs("tenant-1", "note-9").
		WillReturnRows(sqlmock.NewRows(noteCols))

	w := doJSON(r, http.MethodGet, "/notes/note-9", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
}

func TestUpdate_RewritesTitleAndBody(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("UPDATE notes.*SET title").
		WithArgs("tenant-1", "note-1", "Renamed", "new body").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPut, "/notes/note-1", gin.H{"title": "Renamed", "body": "new body"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdate_MissingNote(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("UPDATE notes.*SET title").
		WithArgs("tenant-1", "note-9", "Renamed", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodPut, "/notes/note-9", gin.H{"title": "Renamed"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_RemovesNote(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("tenant-1", "note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodDelete, "/notes/note-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDelete_MissingNote(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("tenant-1", "note-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodDelete, "/notes/note-9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
