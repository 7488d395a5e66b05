package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/plothook/api/internal/apperr"
	"gorm.io/datatypes"
)

type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
	QuestAbandoned QuestStatus = "abandoned"
)

type QuestType string

const (
	QuestMain     QuestType = "main"
	QuestSide     QuestType = "side"
	QuestPersonal QuestType = "personal"
)

func (t QuestType) Valid() bool {
	switch t {
	case QuestMain, QuestSide, QuestPersonal:
		return true
	}
	return false
}

// Quest tracks a campaign quest. Objectives is an ordered JSON list of
// free-text descriptors; progress against them is recorded per session in
// SessionQuestProgress.
type Quest struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title             string         `gorm:"not null;size:200" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	WorldID           int64          `gorm:"not null;index" json:"worldId"`
	QuestType         QuestType      `gorm:"not null;size:20;default:'side'" json:"questType"`
	Status            QuestStatus    `gorm:"not null;size:20;default:'active'" json:"status"`
	Objectives        datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"objectives"`
	AssignedPlayerIDs pq.Int64Array  `gorm:"type:bigint[]" json:"assignedPlayerIds"`
	Rewards           string         `gorm:"type:text" json:"rewards"`
	CompletedAt       *time.Time     `json:"completedAt"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (Quest) TableName() string {
	return "quests"
}

// Complete moves an active quest to the completed terminal state.
func (q *Quest) Complete(now time.Time) error {
	if err := q.transition(QuestCompleted); err != nil {
		return err
	}
	q.CompletedAt = &now
	return nil
}

// Fail moves an active quest to the failed terminal state.
func (q *Quest) Fail() error {
	return q.transition(QuestFailed)
}

// Abandon moves an active quest to the abandoned terminal state.
func (q *Quest) Abandon() error {
	return q.transition(QuestAbandoned)
}

func (q *Quest) transition(to QuestStatus) error {
	if q.Status != QuestActive {
		return apperr.IllegalTransition("quest_"+string(to),
			"only active quests can become "+string(to)+", current status is "+string(q.Status))
	}
	q.Status = to
	return nil
}

// SessionQuestProgress records which objectives were completed for a quest
// during one session. At most one row exists per (session, quest) pair.
type SessionQuestProgress struct {
	ID                  int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID           int64          `gorm:"not null;uniqueIndex:idx_session_quest_progress_pair,priority:1" json:"sessionId"`
	QuestID             int64          `gorm:"not null;uniqueIndex:idx_session_quest_progress_pair,priority:2;index" json:"questId"`
	ObjectivesCompleted datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"objectivesCompleted"`
	Notes               string         `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (SessionQuestProgress) TableName() string {
	return "session_quest_progress"
}
