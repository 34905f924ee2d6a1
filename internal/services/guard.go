// Package services implements the business logic that coordinates across
// repositories: the membership mutation guard, the invitation lifecycle,
// tenant lifecycle, and account/session management. Handlers stay thin —
// every "no" a client can receive is decided in this package and expressed
// as a typed apierr value.
//
// guard.go is the membership mutation guard: the pure rules deciding whether
// one member may change, suspend, or remove another. The functions take
// already-fetched membership rows and touch no storage, so every rule is
// testable without a database.
//
// The rules share three principles:
//   - The OWNER membership is immutable through these operations. Ownership
//     moves only through the dedicated transfer flow, and owners cannot be
//     suspended or removed.
//   - An actor must strictly outrank the target. Equal rank never authorizes
//     mutating a peer, even admin-on-admin.
//   - No self-service: members cannot change their own role or suspend
//     themselves. The one exception is self-removal (leaving), which any
//     non-owner may do.
package services

import (
	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
)

// CanChangeRole decides whether actor may set target's role to newRole.
// Non-owner actors may only grant roles strictly below their own, which
// blocks self-escalation-by-proxy: an admin cannot mint another admin.
func CanChangeRole(actor, target *models.Membership, newRole models.Role) error {
	if !newRole.Valid() {
		return apierr.Validation("unknown role: " + string(newRole))
	}
	if newRole == models.RoleOwner {
		return apierr.Forbidden("ownership can only be granted by an ownership transfer")
	}
	if actor.UserID == target.UserID {
		return apierr.Forbidden("you cannot change your own role")
	}
	if target.Role == models.RoleOwner {
		return apierr.Forbidden("the workspace owner's role cannot be changed")
	}
	if !actor.Role.Outranks(target.Role) {
		return apierr.Forbidden("you can only manage members below your own role")
	}
	if actor.Role != models.RoleOwner && newRole.Rank() >= actor.Role.Rank() {
		return apierr.Forbidden("you cannot grant a role at or above your own")
	}
	return nil
}

// CanSuspend decides whether actor may suspend or unsuspend target.
func CanSuspend(actor, target *models.Membership) error {
	if actor.UserID == target.UserID {
		return apierr.Forbidden("you cannot suspend yourself")
	}
	if target.Role == models.RoleOwner {
		return apierr.Forbidden("the workspace owner cannot be suspended")
	}
	if !actor.Role.Outranks(target.Role) {
		return apierr.Forbidden("you can only manage members below your own role")
	}
	return nil
}

// CanRemove decides whether actor may remove target's membership. Self-removal
// (leaving) is allowed for everyone except the owner, who must transfer
// ownership or delete the workspace instead.
func CanRemove(actor, target *models.Membership) error {
	if actor.UserID == target.UserID {
		if actor.Role == models.RoleOwner {
			return apierr.Forbidden("the workspace owner must transfer ownership or delete the workspace instead of leaving")
		}
		return nil
	}
	if target.Role == models.RoleOwner {
		return apierr.Forbidden("the workspace owner cannot be removed")
	}
	if !actor.Role.Outranks(target.Role) {
		return apierr.Forbidden("you can only manage members below your own role")
	}
	return nil
}
