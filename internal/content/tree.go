// Package content implements the category tree operations: ancestor and
// descendant walks, display paths, and reparent validation. Traversal goes
// through an explicit Store lookup per hop, never an implicit object graph.
package content

import (
	"strings"

	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/model"
)

// PathSeparator joins ancestor titles into a display path.
const PathSeparator = " > "

// maxDepth bounds parent walks so a corrupted parent chain cannot loop
// forever.
const maxDepth = 100

// Store resolves categories by id and by parent.
type Store interface {
	Category(id int64) (*model.Category, error)
	Children(parentID int64) ([]*model.Category, error)
}

// ErrInvalidHierarchy covers cross-world parents and cycles.
func errInvalidHierarchy(msg string) error {
	return apperr.Validation("invalid_hierarchy", msg)
}

// Ancestors returns the category's ancestor chain ordered root first.
func Ancestors(store Store, cat *model.Category) ([]*model.Category, error) {
	var chain []*model.Category
	current := cat
	for i := 0; current.ParentID != nil; i++ {
		if i >= maxDepth {
			return nil, errInvalidHierarchy("category ancestry exceeds maximum depth")
		}
		parent, err := store.Category(*current.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		current = parent
	}
	// Reverse to root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descendants returns every category below cat, any depth.
func Descendants(store Store, cat *model.Category) ([]*model.Category, error) {
	var out []*model.Category
	queue := []int64{cat.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := store.Children(id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

// ValidateParent checks that parent may become the parent of a category in
// worldID. nodeID is the category being reparented, or 0 on create. It fails
// when the parent lives in another world or when attaching would create a
// cycle (the parent is the node itself or one of its descendants, detected by
// walking from the parent to the root).
func ValidateParent(store Store, worldID, nodeID int64, parent *model.Category) error {
	if parent == nil {
		return nil
	}
	if parent.WorldID != worldID {
		return errInvalidHierarchy("parent category belongs to a different world")
	}
	if nodeID == 0 {
		return nil
	}
	current := parent
	for i := 0; ; i++ {
		if i >= maxDepth {
			return errInvalidHierarchy("category ancestry exceeds maximum depth")
		}
		if current.ID == nodeID {
			return errInvalidHierarchy("category cannot be its own ancestor")
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := store.Category(*current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
}

// Reparent applies a requested parent change to cat following the update
// form's pointer convention: nil leaves the current parent in place, zero
// moves cat to the root, and any other id must pass ValidateParent. cat is
// only mutated on success.
func Reparent(store Store, cat *model.Category, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == 0 {
		cat.ParentID = nil
		return nil
	}
	parent, err := store.Category(*parentID)
	if err != nil {
		return err
	}
	if err := ValidateParent(store, cat.WorldID, cat.ID, parent); err != nil {
		return err
	}
	cat.ParentID = parentID
	return nil
}

// FullPath is the ordered concatenation of ancestor titles down to the
// category itself.
func FullPath(store Store, cat *model.Category) (string, error) {
	ancestors, err := Ancestors(store, cat)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		parts = append(parts, a.Title)
	}
	parts = append(parts, cat.Title)
	return strings.Join(parts, PathSeparator), nil
}

// EntryPath extends the category path with the entry's own title.
func EntryPath(store Store, cat *model.Category, entry *model.Entry) (string, error) {
	categoryPath, err := FullPath(store, cat)
	if err != nil {
		return "", err
	}
	return categoryPath + PathSeparator + entry.Title, nil
}
