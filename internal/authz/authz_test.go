package authz

import (
	"testing"

	"github.com/plothook/api/internal/model"
)

func dm(userID int64) Principal {
	return Principal{UserID: userID, Role: model.RoleDM}
}

func player(userID int64, memberships map[int64]model.WorldRole) Principal {
	return Principal{UserID: userID, Role: model.RolePlayer, Memberships: memberships}
}

func TestCanViewHiddenAncestorPropagates(t *testing.T) {
	// History (visible) > First Great War (hidden) > John the Hero (visible)
	history := &model.Category{ID: 1, WorldID: 7, OwnerID: 1, IsHidden: false}
	war := &model.Category{ID: 2, WorldID: 7, OwnerID: 1, ParentID: &history.ID, IsHidden: true}
	hero := Node{OwnerID: 1, WorldID: 7, Hidden: false, BookType: model.BookWorld}

	p := player(42, map[int64]model.WorldRole{7: model.WorldRolePlayer})
	if CanView(p, hero, history, war) {
		t.Fatal("player should not see entry under hidden ancestor")
	}
	if !CanView(dm(1), hero, history, war) {
		t.Fatal("dm should see entry under hidden ancestor")
	}
	// Without the hidden ancestor the entry is public.
	if !CanView(p, hero, history) {
		t.Fatal("player should see public entry with visible ancestors")
	}
}

func TestCanViewOwnerSeesOwnHiddenContent(t *testing.T) {
	n := Node{OwnerID: 42, WorldID: 7, Hidden: true, BookType: model.BookAdventurer}
	p := player(42, map[int64]model.WorldRole{7: model.WorldRolePlayer})
	if !CanView(p, n) {
		t.Fatal("owner should see own hidden node")
	}
	other := player(43, map[int64]model.WorldRole{7: model.WorldRolePlayer})
	if CanView(other, n) {
		t.Fatal("non-owning player should not see hidden node")
	}
}

func TestCanViewCoCreatorMembership(t *testing.T) {
	n := Node{OwnerID: 1, WorldID: 7, Hidden: true, BookType: model.BookWorld}
	co := player(50, map[int64]model.WorldRole{7: model.WorldRoleCoCreator})
	if !CanView(co, n) {
		t.Fatal("co-creator should see hidden node")
	}
	elsewhere := player(50, map[int64]model.WorldRole{9: model.WorldRoleCoCreator})
	if CanView(elsewhere, n) {
		t.Fatal("co-creator of another world should not see hidden node")
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name string
		p    Principal
		n    Node
		want bool
	}{
		{
			name: "dm edits world book content it does not own",
			p:    dm(1),
			n:    Node{OwnerID: 2, WorldID: 7, BookType: model.BookWorld},
			want: true,
		},
		{
			name: "creator membership edits world book content",
			p:    player(3, map[int64]model.WorldRole{7: model.WorldRoleCreator}),
			n:    Node{OwnerID: 2, WorldID: 7, BookType: model.BookWorld},
			want: true,
		},
		{
			name: "player edits own adventurer content",
			p:    player(2, map[int64]model.WorldRole{7: model.WorldRolePlayer}),
			n:    Node{OwnerID: 2, WorldID: 7, BookType: model.BookAdventurer},
			want: true,
		},
		{
			name: "player cannot edit own world book content",
			p:    player(2, map[int64]model.WorldRole{7: model.WorldRolePlayer}),
			n:    Node{OwnerID: 2, WorldID: 7, BookType: model.BookWorld},
			want: false,
		},
		{
			name: "player cannot edit another player's adventurer content",
			p:    player(2, map[int64]model.WorldRole{7: model.WorldRolePlayer}),
			n:    Node{OwnerID: 3, WorldID: 7, BookType: model.BookAdventurer},
			want: false,
		},
		{
			name: "non-member cannot edit own adventurer content in a foreign world",
			p:    player(2, map[int64]model.WorldRole{9: model.WorldRolePlayer}),
			n:    Node{OwnerID: 2, WorldID: 7, BookType: model.BookAdventurer},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.p, tt.n); got != tt.want {
				t.Fatalf("CanEdit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewHiddenContent(t *testing.T) {
	if !CanViewHiddenContent(dm(1), 7) {
		t.Fatal("dm should view hidden blocks")
	}
	if CanViewHiddenContent(player(2, map[int64]model.WorldRole{7: model.WorldRolePlayer}), 7) {
		t.Fatal("player should not view hidden blocks")
	}
	if !CanViewHiddenContent(player(2, map[int64]model.WorldRole{7: model.WorldRoleCreator}), 7) {
		t.Fatal("creator should view hidden blocks")
	}
}
