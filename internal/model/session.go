package model

import (
	"time"

	"github.com/plothook/api/internal/apperr"
)

type SessionStatus string

const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

type Session struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string          `gorm:"not null;size:200" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	WorldID         int64           `gorm:"not null;index" json:"worldId"`
	DMID            int64           `gorm:"not null;index" json:"dmId"`
	ScheduledDate   time.Time       `json:"scheduledDate"`
	ActualStartTime *time.Time      `json:"actualStartTime"`
	ActualEndTime   *time.Time      `json:"actualEndTime"`
	Status          SessionStatus   `gorm:"not null;size:20;default:'planned'" json:"status"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Players         []SessionPlayer `gorm:"foreignKey:SessionID" json:"players,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (Session) TableName() string {
	return "sessions"
}

// Start moves the session from planned to in progress.
func (s *Session) Start(now time.Time) error {
	if s.Status != SessionPlanned {
		return apperr.IllegalTransition("session_start",
			"session can only be started from planned, current status is "+string(s.Status))
	}
	s.Status = SessionInProgress
	s.ActualStartTime = &now
	return nil
}

// End moves the session from in progress to completed.
func (s *Session) End(now time.Time) error {
	if s.Status != SessionInProgress {
		return apperr.IllegalTransition("session_end",
			"session can only be ended from in_progress, current status is "+string(s.Status))
	}
	s.Status = SessionCompleted
	s.ActualEndTime = &now
	return nil
}

// Cancel moves the session from planned to the cancelled terminal state.
func (s *Session) Cancel() error {
	if s.Status != SessionPlanned {
		return apperr.IllegalTransition("session_cancel",
			"session can only be cancelled from planned, current status is "+string(s.Status))
	}
	s.Status = SessionCancelled
	return nil
}

// Duration is defined only once the session has both timestamps.
func (s *Session) Duration() *time.Duration {
	if s.ActualStartTime == nil || s.ActualEndTime == nil {
		return nil
	}
	d := s.ActualEndTime.Sub(*s.ActualStartTime)
	return &d
}

type SessionPlayer struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64 `gorm:"not null;uniqueIndex:idx_session_players_pair,priority:1" json:"sessionId"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_session_players_pair,priority:2;index" json:"userId"`
}

func (SessionPlayer) TableName() string {
	return "session_players"
}

// SessionNote is a per-session log entry written by the DM or a player.
type SessionNote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64     `gorm:"not null;index" json:"sessionId"`
	Title     string    `gorm:"not null;size:200" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	AuthorID  int64     `gorm:"not null;index" json:"authorId"`
	NoteType  string    `gorm:"size:50;default:'general'" json:"noteType"`
	IsPublic  bool      `gorm:"default:true" json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SessionNote) TableName() string {
	return "session_notes"
}
