package services

import (
	"testing"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
)

func member(userID string, role models.Role) *models.Membership {
	return &models.Membership{
		ID:       "mem-" + userID,
		TenantID: "tenant-1",
		UserID:   userID,
		Role:     role,
	}
}

var allRoles = []models.Role{models.RoleViewer, models.RoleEditor, models.RoleAdmin, models.RoleOwner}

// The strictly-outranks rule across all 4x4 actor/target combinations: acting
// on another member succeeds only when the actor is strictly above the target
// and the target is not the owner. That leaves exactly three allowed pairs
// for suspension: owner>admin, owner>editor, owner>viewer, admin>editor,
// admin>viewer, editor>viewer — minus none, since no owner-target pair was
// counted to begin with.
func TestCanSuspend_AllRolePairs(t *testing.T) {
	for _, actorRole := range allRoles {
		for _, targetRole := range allRoles {
			actor := member("actor", actorRole)
			target := member("target", targetRole)

			err := CanSuspend(actor, target)
			wantAllowed := actorRole.Outranks(targetRole) && targetRole != models.RoleOwner

			if wantAllowed && err != nil {
				t.Errorf("%s suspending %s: expected allowed, got %v", actorRole, targetRole, err)
			}
			if !wantAllowed && err == nil {
				t.Errorf("%s suspending %s: expected Forbidden, got nil", actorRole, targetRole)
			}
		}
	}
}

func TestCanRemove_AllRolePairs(t *testing.T) {
	for _, actorRole := range allRoles {
		for _, targetRole := range allRoles {
			actor := member("actor", actorRole)
			target := member("target", targetRole)

			err := CanRemove(actor, target)
			wantAllowed := actorRole.Outranks(targetRole) && targetRole != models.RoleOwner

			if wantAllowed && err != nil {
				t.Errorf("%s removing %s: expected allowed, got %v", actorRole, targetRole, err)
			}
			if !wantAllowed && err == nil {
				t.Errorf("%s removing %s: expected Forbidden, got nil", actorRole, targetRole)
			}
		}
	}
}

func TestCanChangeRole_OwnerTargetImmutable(t *testing.T) {
	// Even the strongest possible actor cannot touch the owner's role.
	err := CanChangeRole(member("actor", models.RoleOwner), member("target", models.RoleOwner), models.RoleViewer)
	if !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden changing owner's role, got %v", err)
	}
}

func TestCanChangeRole_NeverGrantsOwner(t *testing.T) {
	for _, actorRole := range allRoles {
		err := CanChangeRole(member("actor", actorRole), member("target", models.RoleViewer), models.RoleOwner)
		if !apierr.Is(err, apierr.CodeForbidden) {
			t.Errorf("actor %s: expected Forbidden granting OWNER, got %v", actorRole, err)
		}
	}
}

func TestCanChangeRole_NoSelfService(t *testing.T) {
	// An admin promoting themself to admin's own rank or anything else.
	self := member("u1", models.RoleAdmin)
	err := CanChangeRole(self, self, models.RoleViewer)
	if !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden on self role change, got %v", err)
	}
}

func TestCanChangeRole_NoGrantAtOrAboveOwnRank(t *testing.T) {
	admin := member("actor", models.RoleAdmin)
	editor := member("target", models.RoleEditor)

	// An admin minting another admin would allow lateral rank creep.
	if err := CanChangeRole(admin, editor, models.RoleAdmin); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden for admin granting admin, got %v", err)
	}
	// Strictly below own rank is fine.
	if err := CanChangeRole(admin, member("target2", models.RoleViewer), models.RoleEditor); err != nil {
		t.Errorf("expected admin to grant editor, got %v", err)
	}
}

func TestCanChangeRole_OwnerMayGrantAdmin(t *testing.T) {
	owner := member("actor", models.RoleOwner)
	editor := member("target", models.RoleEditor)

	if err := CanChangeRole(owner, editor, models.RoleAdmin); err != nil {
		t.Errorf("expected owner to grant admin, got %v", err)
	}
}

func TestCanChangeRole_EqualRankNeverMutates(t *testing.T) {
	a := member("a", models.RoleAdmin)
	b := member("b", models.RoleAdmin)

	if err := CanChangeRole(a, b, models.RoleViewer); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden for admin-on-admin role change, got %v", err)
	}
	if err := CanSuspend(a, b); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden for admin-on-admin suspension, got %v", err)
	}
}

func TestCanChangeRole_UnknownRoleRejected(t *testing.T) {
	owner := member("actor", models.RoleOwner)
	viewer := member("target", models.RoleViewer)

	if err := CanChangeRole(owner, viewer, models.Role("superuser")); !apierr.Is(err, apierr.CodeValidation) {
		t.Errorf("expected Validation for unknown role, got %v", err)
	}
}

func TestCanSuspend_NoSelfSuspension(t *testing.T) {
	self := member("u1", models.RoleAdmin)
	if err := CanSuspend(self, self); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("expected Forbidden on self-suspension, got %v", err)
	}
}

func TestCanRemove_SelfLeave(t *testing.T) {
	for _, role := range allRoles {
		self := member("u1", role)
		err := CanRemove(self, self)

		if role == models.RoleOwner {
			if !apierr.Is(err, apierr.CodeForbidden) {
				t.Errorf("owner self-leave: expected Forbidden, got %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s self-leave: expected allowed, got %v", role, err)
		}
	}
}
