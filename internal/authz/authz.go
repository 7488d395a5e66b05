// Package authz decides whether a principal may view or edit content. All
// functions are pure predicates over snapshots loaded by the caller; they
// perform no queries and have no side effects.
package authz

import "github.com/plothook/api/internal/model"

// Principal is the resolved identity a request acts as: the global account
// role plus the per-world membership roles loaded for this request.
type Principal struct {
	UserID      int64
	Role        model.Role
	Memberships map[int64]model.WorldRole
}

// WorldRole returns the principal's membership role in the given world.
func (p Principal) WorldRole(worldID int64) (model.WorldRole, bool) {
	r, ok := p.Memberships[worldID]
	return r, ok
}

// IsPrivileged reports whether the principal has DM-level rights in the
// world: a global DM account, or a creator/co-creator membership.
func (p Principal) IsPrivileged(worldID int64) bool {
	if p.Role == model.RoleDM {
		return true
	}
	r, ok := p.Memberships[worldID]
	return ok && r.Privileged()
}

// Node is the slice of a content record the predicates need.
type Node struct {
	OwnerID  int64
	WorldID  int64
	Hidden   bool
	BookType model.BookType
}

// CategoryNode adapts a category for authorization checks.
func CategoryNode(c *model.Category) Node {
	return Node{OwnerID: c.OwnerID, WorldID: c.WorldID, Hidden: c.IsHidden, BookType: c.BookType}
}

// EntryNode adapts an entry for authorization checks.
func EntryNode(e *model.Entry) Node {
	return Node{OwnerID: e.OwnerID, WorldID: e.WorldID, Hidden: e.IsHidden, BookType: e.BookType}
}

// CanView reports whether the principal may read the node. A node is
// effectively hidden when its own flag is set or any ancestor category's flag
// is set: hiding propagates downward. Privileged users and the node's owner
// see hidden content.
func CanView(p Principal, n Node, ancestors ...*model.Category) bool {
	hidden := n.Hidden
	for _, a := range ancestors {
		if a.IsHidden {
			hidden = true
			break
		}
	}
	if !hidden {
		return true
	}
	if p.IsPrivileged(n.WorldID) {
		return true
	}
	return n.OwnerID == p.UserID
}

// CanEdit reports whether the principal may mutate the node. Privileged users
// edit anything in their world; everyone else may edit only their own
// Adventurer's Book content, and only in worlds they belong to. Hidden status
// never grants or removes edit rights.
func CanEdit(p Principal, n Node) bool {
	if p.IsPrivileged(n.WorldID) {
		return true
	}
	if _, ok := p.Memberships[n.WorldID]; !ok {
		return false
	}
	return n.OwnerID == p.UserID && n.BookType == model.BookAdventurer
}

// CanViewHiddenContent gates hidden text blocks. It is independent of the
// enclosing entry's visibility: only privileged users ever see hidden blocks.
func CanViewHiddenContent(p Principal, worldID int64) bool {
	return p.IsPrivileged(worldID)
}
