// Package models defines the database model types for Noteplane.
// Each type corresponds to a database table. Models are pure data types —
// business logic belongs in the service layer, query logic in the repositories layer.
//
// role.go defines the workspace role hierarchy as an ordered enumeration.
// Every permission decision in the system reduces to one of two questions,
// each answered by a single method here:
//
//   - AtLeast: may this member perform this class of operation at all?
//   - Outranks: may this member act on that other member?
//
// Outranks is strictly-greater on purpose. Equal rank never authorizes
// mutating a peer, even between two admins — that rule prevents
// admin-on-admin lockout races and is a policy choice, not an oversight.
package models

// Role is a member's role within a tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// rank maps each role onto the total order VIEWER < EDITOR < ADMIN < OWNER.
// Unknown roles rank 0 and therefore never satisfy AtLeast or Outranks.
var rank = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return rank[r] > 0
}

// Rank returns the role's position in the hierarchy (1–4), or 0 for an
// unknown role.
func (r Role) Rank() int {
	return rank[r]
}

// AtLeast reports whether r meets or exceeds the required role. Used for
// "can perform this class of operation" checks (e.g. EDITOR+ may create notes).
func (r Role) AtLeast(required Role) bool {
	return rank[r] > 0 && rank[r] >= rank[required]
}

// Outranks reports whether r is strictly above other in the hierarchy. Used
// whenever one member acts on another (role change, suspend, remove). An
// unknown role on either side never outranks or is outranked.
func (r Role) Outranks(other Role) bool {
	return rank[r] > 0 && rank[other] > 0 && rank[r] > rank[other]
}
