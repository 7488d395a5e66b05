package model

import (
	"testing"
	"time"

	"github.com/plothook/api/internal/apperr"
)

var sessionClock = time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC)

func TestSessionLifecycle(t *testing.T) {
	s := &Session{Status: SessionPlanned}

	if err := s.Start(sessionClock); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status != SessionInProgress {
		t.Fatalf("status = %s, want %s", s.Status, SessionInProgress)
	}
	if s.ActualStartTime == nil || !s.ActualStartTime.Equal(sessionClock) {
		t.Fatalf("ActualStartTime = %v, want %v", s.ActualStartTime, sessionClock)
	}

	endTime := sessionClock.Add(3 * time.Hour)
	if err := s.End(endTime); err != nil {
		t.Fatalf("End: %v", err)
	}
	if s.Status != SessionCompleted {
		t.Fatalf("status = %s, want %s", s.Status, SessionCompleted)
	}

	d := s.Duration()
	if d == nil || *d != 3*time.Hour {
		t.Fatalf("Duration = %v, want 3h", d)
	}
}

func TestSessionIllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		from SessionStatus
		call func(*Session) error
	}{
		{"start from in_progress", SessionInProgress, func(s *Session) error { return s.Start(sessionClock) }},
		{"start from completed", SessionCompleted, func(s *Session) error { return s.Start(sessionClock) }},
		{"start from cancelled", SessionCancelled, func(s *Session) error { return s.Start(sessionClock) }},
		{"end from planned", SessionPlanned, func(s *Session) error { return s.End(sessionClock) }},
		{"end from completed", SessionCompleted, func(s *Session) error { return s.End(sessionClock) }},
		{"cancel from in_progress", SessionInProgress, func(s *Session) error { return s.Cancel() }},
		{"cancel from completed", SessionCompleted, func(s *Session) error { return s.Cancel() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{Status: tt.from}
			err := tt.call(s)
			if apperr.KindOf(err) != apperr.KindIllegalTransition {
				t.Fatalf("err = %v, want illegal transition", err)
			}
			if s.Status != tt.from {
				t.Fatalf("status changed to %s after rejected transition", s.Status)
			}
			if s.ActualStartTime != nil || s.ActualEndTime != nil {
				t.Fatalf("timestamps set after rejected transition")
			}
		})
	}
}

func TestSessionCancel(t *testing.T) {
	s := &Session{Status: SessionPlanned}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.Status != SessionCancelled {
		t.Fatalf("status = %s, want %s", s.Status, SessionCancelled)
	}
}

func TestSessionDurationUndefined(t *testing.T) {
	s := &Session{Status: SessionInProgress, ActualStartTime: &sessionClock}
	if d := s.Duration(); d != nil {
		t.Fatalf("Duration = %v for session without end time, want nil", d)
	}
	if d := (&Session{Status: SessionPlanned}).Duration(); d != nil {
		t.Fatalf("Duration = %v for planned session, want nil", d)
	}
}
