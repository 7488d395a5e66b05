package content

import (
	"sort"
	"testing"

	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/model"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	categories map[int64]*model.Category
}

func (m *memStore) Category(id int64) (*model.Category, error) {
	cat, ok := m.categories[id]
	if !ok {
		return nil, apperr.NotFound("category_not_found", "category not found")
	}
	return cat, nil
}

func (m *memStore) Children(parentID int64) ([]*model.Category, error) {
	var out []*model.Category
	for _, cat := range m.categories {
		if cat.ParentID != nil && *cat.ParentID == parentID {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ref(id int64) *int64 { return &id }

// history(1) > wars(2) > battles(3); history(1) > places(4)
func fixtureStore() *memStore {
	return &memStore{categories: map[int64]*model.Category{
		1: {ID: 1, Title: "History", WorldID: 7},
		2: {ID: 2, Title: "Wars", WorldID: 7, ParentID: ref(1)},
		3: {ID: 3, Title: "Battles", WorldID: 7, ParentID: ref(2)},
		4: {ID: 4, Title: "Places", WorldID: 7, ParentID: ref(1)},
		9: {ID: 9, Title: "Elsewhere", WorldID: 8},
	}}
}

func TestAncestorsRootFirst(t *testing.T) {
	store := fixtureStore()
	chain, err := Ancestors(store, store.categories[3])
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(chain) != 2 || chain[0].ID != 1 || chain[1].ID != 2 {
		t.Fatalf("expected [1 2], got %v", ids(chain))
	}

	chain, err = Ancestors(store, store.categories[1])
	if err != nil {
		t.Fatalf("ancestors of root: %v", err)
	}
	if len(chain) != 0 {
		t.Fatalf("root should have no ancestors, got %v", ids(chain))
	}
}

func TestDescendantsAllDepths(t *testing.T) {
	store := fixtureStore()
	desc, err := Descendants(store, store.categories[1])
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	got := ids(desc)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []int64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	// A node never appears among its own descendants.
	for _, id := range got {
		if id == 1 {
			t.Fatal("node listed among its own descendants")
		}
	}
}

func TestFullPath(t *testing.T) {
	store := fixtureStore()
	path, err := FullPath(store, store.categories[3])
	if err != nil {
		t.Fatalf("full path: %v", err)
	}
	if path != "History > Wars > Battles" {
		t.Fatalf("unexpected path %q", path)
	}

	entry := &model.Entry{Title: "John the Hero"}
	entryPath, err := EntryPath(store, store.categories[3], entry)
	if err != nil {
		t.Fatalf("entry path: %v", err)
	}
	if entryPath != "History > Wars > Battles > John the Hero" {
		t.Fatalf("unexpected entry path %q", entryPath)
	}
}

func TestValidateParentRejectsCrossWorld(t *testing.T) {
	store := fixtureStore()
	err := ValidateParent(store, 7, 0, store.categories[9])
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateParentRejectsCycles(t *testing.T) {
	store := fixtureStore()

	// Reparenting History under its own descendant Battles would cycle.
	err := ValidateParent(store, 7, 1, store.categories[3])
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// A category cannot be its own parent.
	err = ValidateParent(store, 7, 2, store.categories[2])
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Moving Battles under Places is legal.
	if err := ValidateParent(store, 7, 3, store.categories[4]); err != nil {
		t.Fatalf("legal reparent rejected: %v", err)
	}

	// Creating a fresh category under any in-world parent is legal.
	if err := ValidateParent(store, 7, 0, store.categories[3]); err != nil {
		t.Fatalf("create under valid parent rejected: %v", err)
	}
}

func TestReparent(t *testing.T) {
	store := fixtureStore()
	battles := store.categories[3]

	// Omitted parent leaves the current parent in place.
	if err := Reparent(store, battles, nil); err != nil {
		t.Fatalf("nil parent: %v", err)
	}
	if battles.ParentID == nil || *battles.ParentID != 2 {
		t.Fatalf("parent changed on omitted parentId: %v", battles.ParentID)
	}

	// A real id reparents after validation.
	if err := Reparent(store, battles, ref(4)); err != nil {
		t.Fatalf("reparent under Places: %v", err)
	}
	if battles.ParentID == nil || *battles.ParentID != 4 {
		t.Fatalf("parent = %v, want 4", battles.ParentID)
	}

	// Zero moves to the root.
	if err := Reparent(store, battles, ref(0)); err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if battles.ParentID != nil {
		t.Fatalf("parent = %v, want root", battles.ParentID)
	}
}

func TestReparentRejectionsLeaveParentUntouched(t *testing.T) {
	store := fixtureStore()
	history := store.categories[1]

	// Reparenting History under its own descendant Battles would cycle.
	if err := Reparent(store, history, ref(3)); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("cycle err = %v, want validation error", err)
	}
	if history.ParentID != nil {
		t.Fatalf("parent mutated on rejected reparent: %v", history.ParentID)
	}

	// Cross-world parents are rejected too.
	wars := store.categories[2]
	if err := Reparent(store, wars, ref(9)); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("cross-world err = %v, want validation error", err)
	}
	if wars.ParentID == nil || *wars.ParentID != 1 {
		t.Fatalf("parent mutated on rejected reparent: %v", wars.ParentID)
	}
}

func ids(cats []*model.Category) []int64 {
	out := make([]int64, len(cats))
	for i, c := range cats {
		out[i] = c.ID
	}
	return out
}
