package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/noteplane/noteplane/internal/db/models"
)

var membershipCols = []string{"id", "tenant_id", "user_id", "role", "is_suspended", "invited_by", "joined_at", "updated_at"}

func sampleMembershipRow(role models.Role, suspended bool) *sqlmock.Rows {
	return sqlmock.NewRows(membershipCols).
		AddRow("mem-1", "tenant-1", "user-1", string(role), suspended, nil, time.Now(), time.Now())
}

func newMembershipRepo(t *testing.T) (*MembershipRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMembershipRepository(db), mock
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestGetMembership_Found(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE tenant_id").
		WithArgs("tenant-1", "user-1").
		WillReturnRows(sampleMembershipRow(models.RoleEditor, false))

	m, err := repo.Get(context.Background(), "tenant-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected membership, got nil")
	}
	if m.Role != models.RoleEditor {
		t.Errorf("Role = %s, want editor", m.Role)
	}
}

func TestGetMembership_SuspendedStillReturned(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE tenant_id").
		WithArgs("tenant-1", "user-1").
		WillReturnRows(sampleMembershipRow(models.RoleAdmin, true))

	m, err := repo.Get(context.Background(), "tenant-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected membership, got nil")
	}
	if !m.IsSuspended {
		t.Error("expected suspended flag to round-trip")
	}
}

func TestGetMembership_NotFound(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE tenant_id").
		WithArgs("tenant-1", "stranger").
		WillReturnRows(sqlmock.NewRows(membershipCols))

	m, err := repo.Get(context.Background(), "tenant-1", "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil membership, got %v", m)
	}
}

// ---------------------------------------------------------------------------
// ListByTenant
// ---------------------------------------------------------------------------

func TestListByTenant_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	cols := append(append([]string{}, membershipCols...), "name", "email")
	rows := sqlmock.NewRows(cols).
		AddRow("mem-1", "tenant-1", "user-1", "owner", false, nil, time.Now(), time.Now(), "Alice", "alice@example.com").
		AddRow("mem-2", "tenant-1", "user-2", "viewer", true, "user-1", time.Now(), time.Now(), "Bob", "bob@example.com")

	mock.ExpectQuery("SELECT.*FROM memberships m.*JOIN users u").
		WithArgs("tenant-1").
		WillReturnRows(rows)

	members, err := repo.ListByTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].UserEmail != "alice@example.com" {
		t.Errorf("UserEmail = %s", members[0].UserEmail)
	}
	if !members[1].IsSuspended {
		t.Error("expected second member suspended")
	}
}

// ---------------------------------------------------------------------------
// ListTenantsForUser
// ---------------------------------------------------------------------------

func TestListTenantsForUser_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	cols := []string{"id", "name", "slug", "status", "role", "is_suspended", "joined_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("tenant-1", "Acme", "acme", "active", "owner", false, time.Now())

	mock.ExpectQuery("SELECT.*FROM memberships m.*JOIN tenants t").
		WithArgs("user-1").
		WillReturnRows(rows)

	tenants, err := repo.ListTenantsForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("len = %d, want 1", len(tenants))
	}
	if tenants[0].Role != models.RoleOwner {
		t.Errorf("Role = %s, want owner", tenants[0].Role)
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateMembership_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("INSERT INTO memberships").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_suspended", "joined_at", "updated_at"}).
			AddRow("mem-3", false, time.Now(), time.Now()))

	inviter := "user-1"
	m := &models.Membership{TenantID: "tenant-1", UserID: "user-3", Role: models.RoleEditor, InvitedBy: &inviter}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "mem-3" {
		t.Errorf("ID = %s, want mem-3", m.ID)
	}
}

func TestCreateMembership_Duplicate(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("INSERT INTO memberships").
		WillReturnError(fakeUniqueViolation())

	m := &models.Membership{TenantID: "tenant-1", UserID: "user-1", Role: models.RoleEditor}
	err := repo.Create(context.Background(), m)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateRole / SetSuspended / Remove
// ---------------------------------------------------------------------------

func TestUpdateRole_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec("UPDATE memberships").
		WithArgs("tenant-1", "user-2", string(models.RoleAdmin)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRole(context.Background(), "tenant-1", "user-2", models.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetSuspended_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec("UPDATE memberships").
		WithArgs("tenant-1", "user-2", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetSuspended(context.Background(), "tenant-1", "user-2", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemove_ReportsRowsAffected(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("tenant-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Remove(context.Background(), "tenant-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestRemove_Absent(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("tenant-1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Remove(context.Background(), "tenant-1", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}
