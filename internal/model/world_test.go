package model

import (
	"testing"

	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/joincode"
)

func TestWorldJoinableBy(t *testing.T) {
	world := &World{ID: 7, OwnerID: 1, JoinCode: "K7XQ2P4M"}

	tests := []struct {
		name          string
		userID        int64
		alreadyMember bool
		wantCode      string
	}{
		{"new user joins", 2, false, ""},
		{"owner uses own code", 1, false, "already_owner"},
		{"repeat join", 2, true, "already_member"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := world.JoinableBy(tt.userID, tt.alreadyMember)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("JoinableBy: %v", err)
				}
				return
			}
			appErr, ok := err.(*apperr.Error)
			if !ok || appErr.Code != tt.wantCode {
				t.Fatalf("err = %v, want conflict %s", err, tt.wantCode)
			}
			if apperr.KindOf(err) != apperr.KindConflict {
				t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
			}
		})
	}
}

// A lowercased code matches the stored one after normalization, and the
// second join of the same user conflicts.
func TestWorldJoinRepeatScenario(t *testing.T) {
	world := &World{ID: 7, OwnerID: 1, JoinCode: "K7XQ2P4M"}

	if got := joincode.Normalize("k7xq2p4m"); got != world.JoinCode {
		t.Fatalf("normalized code %q does not match stored %q", got, world.JoinCode)
	}

	if err := world.JoinableBy(2, false); err != nil {
		t.Fatalf("first join: %v", err)
	}
	err := world.JoinableBy(2, true)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("repeat join err = %v, want conflict", err)
	}
}
