package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/noteplane/noteplane/internal/db/models"
)

var tenantCols = []string{"id", "name", "slug", "status", "owner_id", "created_at", "updated_at"}

func sampleTenantRow() *sqlmock.Rows {
	return sqlmock.NewRows(tenantCols).
		AddRow("tenant-1", "Acme", "acme", "active", "user-1", time.Now(), time.Now())
}

func newTenantRepo(t *testing.T) (*TenantRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTenantRepository(db), mock
}

// ---------------------------------------------------------------------------
// CreateWithOwner
// ---------------------------------------------------------------------------

func TestCreateWithOwner_Success(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tenants").
		WithArgs("Acme", "acme", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow("tenant-1", "active", time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO memberships").
		WithArgs("tenant-1", "user-1").
		WillReturnRows(sampleMembershipRow(models.RoleOwner, false))
	mock.ExpectCommit()

	tenant := &models.Tenant{Name: "Acme", Slug: "acme", OwnerID: "user-1"}
	member, err := repo.CreateWithOwner(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.ID != "tenant-1" {
		t.Errorf("tenant ID = %s, want tenant-1", tenant.ID)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("member role = %s, want owner", member.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCreateWithOwner_DuplicateSlugRollsBack(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tenants").
		WillReturnError(fakeUniqueViolation())
	mock.ExpectRollback()

	tenant := &models.Tenant{Name: "Acme", Slug: "acme", OwnerID: "user-1"}
	_, err := repo.CreateWithOwner(context.Background(), tenant)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCreateWithOwner_MembershipFailureRollsBack(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tenants").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow("tenant-1", "active", time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO memberships").
		WillReturnError(errDB)
	mock.ExpectRollback()

	tenant := &models.Tenant{Name: "Acme", Slug: "acme", OwnerID: "user-1"}
	if _, err := repo.CreateWithOwner(context.Background(), tenant); err == nil {
		t.Error("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetByID / GetBySlug
// ---------------------------------------------------------------------------

func TestGetTenantByID_Found(t *testing.T) {
	repo, mock := newTenantRepo(t)
	mock.ExpectQuery("SELECT.*FROM tenants.*WHERE id").
		WithArgs("tenant-1").
		WillReturnRows(sampleTenantRow())

	tenant, err := repo.GetByID(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant == nil {
		t.Fatal("expected tenant, got nil")
	}
	if tenant.Slug != "acme" {
		t.Errorf("Slug = %s, want acme", tenant.Slug)
	}
}

func TestGetTenantByID_NotFound(t *testing.T) {
	repo, mock := newTenantRepo(t)
	mock.ExpectQuery("SELECT.*FROM tenants.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(tenantCols))

	tenant, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant != nil {
		t.Errorf("expected nil, got %v", tenant)
	}
}

func TestGetTenantBySlug_Found(t *testing.T) {
	repo, mock := newTenantRepo(t)
	mock.ExpectQuery("SELECT.*FROM tenants.*WHERE slug").
		WithArgs("acme").
		WillReturnRows(sampleTenantRow())

	tenant, err := repo.GetBySlug(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant == nil {
		t.Fatal("expected tenant, got nil")
	}
}

// ---------------------------------------------------------------------------
// SetStatus
// ---------------------------------------------------------------------------

func TestSetStatus_SoftDelete(t *testing.T) {
	repo, mock := newTenantRepo(t)
	mock.ExpectExec("UPDATE tenants.*SET status").
		WithArgs("tenant-1", string(models.TenantDeleted)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetStatus(context.Background(), "tenant-1", models.TenantDeleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TransferOwnership
// ---------------------------------------------------------------------------

func TestTransferOwnership_Success(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE memberships SET role = 'admin'").
		WithArgs("tenant-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE memberships SET role = 'owner'").
		WithArgs("tenant-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tenants SET owner_id").
		WithArgs("tenant-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.TransferOwnership(context.Background(), "tenant-1", "user-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTransferOwnership_FromNotOwner(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE memberships SET role = 'admin'").
		WithArgs("tenant-1", "user-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransferOwnership(context.Background(), "tenant-1", "user-9", "user-2")
	if err == nil {
		t.Error("expected error when demote matches no row")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTransferOwnership_TargetNotMember(t *testing.T) {
	repo, mock := newTenantRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE memberships SET role = 'admin'").
		WithArgs("tenant-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE memberships SET role = 'owner'").
		WithArgs("tenant-1", "stranger").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransferOwnership(context.Background(), "tenant-1", "user-1", "stranger")
	if err == nil {
		t.Error("expected error when target has no membership")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
