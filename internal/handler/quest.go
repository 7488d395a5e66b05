package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/authz"
	"github.com/plothook/api/internal/middleware"
	"github.com/plothook/api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestHandler struct {
	db *gorm.DB
}

func NewQuestHandler(db *gorm.DB) *QuestHandler {
	return &QuestHandler{db: db}
}

type CreateQuestRequest struct {
	Title             string         `json:"title" binding:"required,max=200"`
	Description       string         `json:"description"`
	WorldID           int64          `json:"worldId" binding:"required"`
	QuestType         string         `json:"questType"`
	Objectives        datatypes.JSON `json:"objectives"`
	AssignedPlayerIDs []int64        `json:"assignedPlayerIds"`
	Rewards           string         `json:"rewards"`
}

func (h *QuestHandler) Create(c *gin.Context) {
	var req CreateQuestRequest
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
		middleware.RecordAuthzDenial("quest")
		respondError(c, apperr.Authorization("quest_create_denied", "only the DM can create quests"))
		return
	}

	questType := model.QuestSide
	if req.QuestType != "" {
		questType = model.QuestType(req.QuestType)
		if !questType.Valid() {
			respondError(c, apperr.Validation("invalid_quest_type", "quest type must be main, side or personal"))
			return
		}
	}
	objectives := req.Objectives
	if objectives == nil {
		objectives = datatypes.JSON([]byte("[]"))
	}

	quest := model.Quest{
		Title:             req.Title,
		Description:       req.Description,
		WorldID:           req.WorldID,
		QuestType:         questType,
		Status:            model.QuestActive,
		Objectives:        objectives,
		AssignedPlayerIDs: pq.Int64Array(req.AssignedPlayerIDs),
		Rewards:           req.Rewards,
	}
	if err := h.db.Create(&quest).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quest)
}

// List returns quests in worlds the caller belongs to, newest first.
func (h *QuestHandler) List(c *gin.Context) {
	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	worldIDs := make([]int64, 0, len(p.Memberships))
	for id := range p.Memberships {
		worldIDs = append(worldIDs, id)
	}

	query := h.db.Where("world_id IN ?", worldIDs).Order("created_at desc")
	if world := c.Query("worldId"); world != "" {
		query = query.Where("world_id = ?", world)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if questType := c.Query("questType"); questType != "" {
		query = query.Where("quest_type = ?", questType)
	}

	var quests []model.Quest
	if len(worldIDs) == 0 {
		quests = []model.Quest{}
	} else if err := query.Find(&quests).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quests)
}

func (h *QuestHandler) Get(c *gin.Context) {
	_, quest, err := h.visibleQuest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quest)
}

type UpdateQuestRequest struct {
	Title             string         `json:"title" binding:"required,max=200"`
	Description       string         `json:"description"`
	QuestType         string         `json:"questType"`
	Objectives        datatypes.JSON `json:"objectives"`
	AssignedPlayerIDs []int64        `json:"assignedPlayerIds"`
	Rewards           string         `json:"rewards"`
}

func (h *QuestHandler) Update(c *gin.Context) {
	quest, err := h.dmQuest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quest.Title = req.Title
	quest.Description = req.Description
	quest.Rewards = req.Rewards
	if req.QuestType != "" {
		questType := model.QuestType(req.QuestType)
		if !questType.Valid() {
			respondError(c, apperr.Validation("invalid_quest_type", "quest type must be main, side or personal"))
			return
		}
		quest.QuestType = questType
	}
	if req.Objectives != nil {
		quest.Objectives = req.Objectives
	}
	if req.AssignedPlayerIDs != nil {
		quest.AssignedPlayerIDs = pq.Int64Array(req.AssignedPlayerIDs)
	}

	if err := h.db.Save(quest).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quest)
}

func (h *QuestHandler) Delete(c *gin.Context) {
	quest, err := h.dmQuest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quest_id = ?", quest.ID).Delete(&model.SessionQuestProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quest{}, quest.ID).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quest deleted"})
}

// Complete marks an active quest completed.
func (h *QuestHandler) Complete(c *gin.Context) {
	h.transition(c, "complete", func(q *model.Quest, now time.Time) error {
		return q.Complete(now)
	})
}

// Fail marks an active quest failed.
func (h *QuestHandler) Fail(c *gin.Context) {
	h.transition(c, "fail", func(q *model.Quest, _ time.Time) error {
		return q.Fail()
	})
}

// Abandon marks an active quest abandoned.
func (h *QuestHandler) Abandon(c *gin.Context) {
	h.transition(c, "abandon", func(q *model.Quest, _ time.Time) error {
		return q.Abandon()
	})
}

// transition applies a DM-only quest state change. The update is guarded on
// the status we loaded so concurrent transitions lose cleanly.
func (h *QuestHandler) transition(c *gin.Context, action string, apply func(*model.Quest, time.Time) error) {
	quest, err := h.dmQuest(c)
	if err != nil {
		middleware.RecordQuestTransition(action, false)
		respondError(c, err)
		return
	}

	prior := quest.Status
	if err := apply(quest, time.Now()); err != nil {
		middleware.RecordQuestTransition(action, false)
		respondError(c, err)
		return
	}

	result := h.db.Model(&model.Quest{}).
		Where("id = ? AND status = ?", quest.ID, prior).
		Updates(map[string]interface{}{
			"status":       quest.Status,
			"completed_at": quest.CompletedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		middleware.RecordQuestTransition(action, false)
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		middleware.RecordQuestTransition(action, false)
		respondError(c, apperr.IllegalTransition("quest_"+action, "quest status changed concurrently"))
		return
	}

	middleware.RecordQuestTransition(action, true)
	c.JSON(http.StatusOK, quest)
}

// visibleQuest loads the path quest for members of its world. Non-members
// get not-found rather than forbidden.
func (h *QuestHandler) visibleQuest(c *gin.Context) (authz.Principal, *model.Quest, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return authz.Principal{}, nil, err
	}

	var quest model.Quest
	if err := h.db.First(&quest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.Principal{}, nil, apperr.NotFound("quest_not_found", "quest not found")
		}
		return authz.Principal{}, nil, err
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		return authz.Principal{}, nil, err
	}
	if _, ok := p.Memberships[quest.WorldID]; !ok {
		return authz.Principal{}, nil, apperr.NotFound("quest_not_found", "quest not found")
	}
	return p, &quest, nil
}

// dmQuest loads the path quest and requires a privileged caller.
func (h *QuestHandler) dmQuest(c *gin.Context) (*model.Quest, error) {
	p, quest, err := h.visibleQuest(c)
	if err != nil {
		return nil, err
	}
	if !p.IsPrivileged(quest.WorldID) {
		middleware.RecordAuthzDenial("quest")
		return nil, apperr.Authorization("quest_dm_only", "only the DM can modify quests")
	}
	return quest, nil
}
