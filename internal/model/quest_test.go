package model

import (
	"testing"
	"time"

	"github.com/plothook/api/internal/apperr"
)

func TestQuestComplete(t *testing.T) {
	now := time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)
	q := &Quest{Status: QuestActive}

	if err := q.Complete(now); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if q.Status != QuestCompleted {
		t.Fatalf("status = %s, want %s", q.Status, QuestCompleted)
	}
	if q.CompletedAt == nil || !q.CompletedAt.Equal(now) {
		t.Fatalf("CompletedAt = %v, want %v", q.CompletedAt, now)
	}

	// Terminal states reject further transitions.
	if err := q.Complete(now); apperr.KindOf(err) != apperr.KindIllegalTransition {
		t.Fatalf("second Complete err = %v, want illegal transition", err)
	}
	if err := q.Fail(); apperr.KindOf(err) != apperr.KindIllegalTransition {
		t.Fatalf("Fail after Complete err = %v, want illegal transition", err)
	}
}

func TestQuestTerminalStates(t *testing.T) {
	tests := []struct {
		name string
		call func(*Quest) error
		want QuestStatus
	}{
		{"fail", func(q *Quest) error { return q.Fail() }, QuestFailed},
		{"abandon", func(q *Quest) error { return q.Abandon() }, QuestAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Quest{Status: QuestActive}
			if err := tt.call(q); err != nil {
				t.Fatalf("transition: %v", err)
			}
			if q.Status != tt.want {
				t.Fatalf("status = %s, want %s", q.Status, tt.want)
			}
			if q.CompletedAt != nil {
				t.Fatalf("CompletedAt set for %s quest", tt.want)
			}
			if err := tt.call(q); apperr.KindOf(err) != apperr.KindIllegalTransition {
				t.Fatalf("repeat transition err = %v, want illegal transition", err)
			}
		})
	}
}

func TestQuestTypeValid(t *testing.T) {
	for _, qt := range []QuestType{QuestMain, QuestSide, QuestPersonal} {
		if !qt.Valid() {
			t.Fatalf("%s reported invalid", qt)
		}
	}
	if QuestType("epic").Valid() {
		t.Fatalf("unknown quest type reported valid")
	}
}
