package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/middleware"
	"github.com/plothook/api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionHandler struct {
	db *gorm.DB
}

func NewSessionHandler(db *gorm.DB) *SessionHandler {
	return &SessionHandler{db: db}
}

type CreateSessionRequest struct {
	Title         string    `json:"title" binding:"required,max=200"`
	Description   string    `json:"description"`
	WorldID       int64     `json:"worldId" binding:"required"`
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
	Notes         string    `json:"notes"`
	PlayerIDs     []int64   `json:"playerIds"`
}

// Create schedules a session. Only a privileged user of the world can run
// one; the caller becomes its DM.
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	if !p.IsPrivileged(req.WorldID) {
		middleware.RecordAuthzDenial("session")
		respondError(c, apperr.Authorization("session_create_denied", "only the DM can schedule sessions"))
		return
	}

	session := model.Session{
		Title:         req.Title,
		Description:   req.Description,
		WorldID:       req.WorldID,
		DMID:          p.UserID,
		ScheduledDate: req.ScheduledDate,
		Status:        model.SessionPlanned,
		Notes:         req.Notes,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		for _, playerID := range req.PlayerIDs {
			if err := tx.Create(&model.SessionPlayer{SessionID: session.ID, UserID: playerID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.db.Preload("Players").First(&session, session.ID)
	c.JSON(http.StatusCreated, session)
}

// List returns sessions the caller runs or plays in.
func (h *SessionHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	query := h.db.Preload("Players").
		Where("dm_id = ? OR id IN (?)", userID,
			h.db.Model(&model.SessionPlayer{}).Select("session_id").Where("user_id = ?", userID)).
		Order("scheduled_date desc")
	if world := c.Query("worldId"); world != "" {
		query = query.Where("world_id = ?", world)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []model.Session
	if err := query.Find(&sessions).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.participantSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"session": session}
	if d := session.Duration(); d != nil {
		resp["durationSeconds"] = int64(d.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

type UpdateSessionRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Description   string     `json:"description"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	Notes         string     `json:"notes"`
}

func (h *SessionHandler) Update(c *gin.Context) {
	session, err := h.dmSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session.Title = req.Title
	session.Description = req.Description
	session.Notes = req.Notes
	if req.ScheduledDate != nil {
		session.ScheduledDate = *req.ScheduledDate
	}
	if err := h.db.Save(session).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	session, err := h.dmSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.ID).Delete(&model.SessionQuestProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&model.SessionNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&model.SessionPlayer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Session{}, session.ID).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// Start begins a planned session.
func (h *SessionHandler) Start(c *gin.Context) {
	h.transition(c, "start", func(s *model.Session, now time.Time) error {
		return s.Start(now)
	})
}

// End completes an in-progress session.
func (h *SessionHandler) End(c *gin.Context) {
	h.transition(c, "end", func(s *model.Session, now time.Time) error {
		return s.End(now)
	})
}

// Cancel abandons a planned session.
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", func(s *model.Session, _ time.Time) error {
		return s.Cancel()
	})
}

// transition applies a DM-only state change with compare-and-set semantics:
// the update only lands if the stored status still matches what we loaded,
// so a concurrent transition surfaces as IllegalTransition instead of being
// overwritten.
func (h *SessionHandler) transition(c *gin.Context, action string, apply func(*model.Session, time.Time) error) {
	session, err := h.dmSession(c)
	if err != nil {
		middleware.RecordSessionTransition(action, false)
		respondError(c, err)
		return
	}

	prior := session.Status
	if err := apply(session, time.Now()); err != nil {
		middleware.RecordSessionTransition(action, false)
		respondError(c, err)
		return
	}

	result := h.db.Model(&model.Session{}).
		Where("id = ? AND status = ?", session.ID, prior).
		Updates(map[string]interface{}{
			"status":            session.Status,
			"actual_start_time": session.ActualStartTime,
			"actual_end_time":   session.ActualEndTime,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		middleware.RecordSessionTransition(action, false)
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		middleware.RecordSessionTransition(action, false)
		respondError(c, apperr.IllegalTransition("session_"+action, "session status changed concurrently"))
		return
	}

	middleware.RecordSessionTransition(action, true)
	c.JSON(http.StatusOK, session)
}

// Notes lists session notes visible to the caller: everything for the DM,
// public notes plus their own for players.
func (h *SessionHandler) Notes(c *gin.Context) {
	session, err := h.participantSession(c)
	if err != nil {
		respondError(c, err)
		return
	}
	userID := currentUserID(c)

	query := h.db.Where("session_id = ?", session.ID).Order("created_at desc")
	if session.DMID != userID {
		query = query.Where("is_public = true OR author_id = ?", userID)
	}

	var notes []model.SessionNote
	if err := query.Find(&notes).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

type CreateNoteRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
	NoteType string `json:"noteType"`
	IsPublic *bool  `json:"isPublic"`
}

func (h *SessionHandler) CreateNote(c *gin.Context) {
	session, err := h.participantSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note := model.SessionNote{
		SessionID: session.ID,
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  currentUserID(c),
		NoteType:  "general",
		IsPublic:  true,
	}
	if req.NoteType != "" {
		note.NoteType = req.NoteType
	}
	if req.IsPublic != nil {
		note.IsPublic = *req.IsPublic
	}

	if err := h.db.Create(&note).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// QuestProgress lists the quest progress records for a session.
func (h *SessionHandler) QuestProgress(c *gin.Context) {
	session, err := h.participantSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var progress []model.SessionQuestProgress
	if err := h.db.Where("session_id = ?", session.ID).Find(&progress).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

type UpsertProgressRequest struct {
	QuestID             int64          `json:"questId" binding:"required"`
	ObjectivesCompleted datatypes.JSON `json:"objectivesCompleted"`
	Notes               string         `json:"notes"`
}

// UpsertQuestProgress records objective progress for a quest in this
// session. Re-posting updates the single (session, quest) record in place.
func (h *SessionHandler) UpsertQuestProgress(c *gin.Context) {
	session, err := h.dmSession(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var quest model.Quest
	if err := h.db.Where("id = ? AND world_id = ?", req.QuestID, session.WorldID).First(&quest).Error; err != nil {
		respondError(c, apperr.NotFound("quest_not_found", "quest not found"))
		return
	}

	objectives := req.ObjectivesCompleted
	if objectives == nil {
		objectives = datatypes.JSON([]byte("[]"))
	}

	progress := model.SessionQuestProgress{
		SessionID:           session.ID,
		QuestID:             quest.ID,
		ObjectivesCompleted: objectives,
		Notes:               req.Notes,
	}
	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "quest_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"objectives_completed", "notes", "updated_at"}),
	}).Create(&progress).Error
	if err != nil {
		respondError(c, err)
		return
	}

	h.db.Where("session_id = ? AND quest_id = ?", session.ID, quest.ID).First(&progress)
	c.JSON(http.StatusOK, progress)
}

// participantSession loads the path session for its DM or one of its
// players. Others get not-found.
func (h *SessionHandler) participantSession(c *gin.Context) (*model.Session, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	userID := currentUserID(c)

	var session model.Session
	if err := h.db.Preload("Players").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session_not_found", "session not found")
		}
		return nil, err
	}

	if session.DMID == userID {
		return &session, nil
	}
	for _, player := range session.Players {
		if player.UserID == userID {
			return &session, nil
		}
	}

	// Privileged users of the world see its sessions too.
	p, err := loadPrincipal(c, h.db)
	if err != nil {
		return nil, err
	}
	if p.IsPrivileged(session.WorldID) {
		return &session, nil
	}

	return nil, apperr.NotFound("session_not_found", "session not found")
}

// dmSession loads the path session and requires the caller to be its DM.
func (h *SessionHandler) dmSession(c *gin.Context) (*model.Session, error) {
	session, err := h.participantSession(c)
	if err != nil {
		return nil, err
	}
	if session.DMID != currentUserID(c) {
		middleware.RecordAuthzDenial("session")
		return nil, apperr.Authorization("session_dm_only", "only the DM can do this")
	}
	return session, nil
}
