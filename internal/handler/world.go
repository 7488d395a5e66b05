package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/cache"
	"github.com/plothook/api/internal/joincode"
	"github.com/plothook/api/internal/middleware"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

// joinCodeAttempts bounds collision re-rolls during world creation. The code
// space is 36^8, so more than a couple of collisions means something is wrong.
const joinCodeAttempts = 5

type WorldHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewWorldHandler(db *gorm.DB, redisCache *cache.RedisCache) *WorldHandler {
	return &WorldHandler{db: db, cache: redisCache}
}

type CreateWorldRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	ThemeColor  string `json:"themeColor"`
}

// Create makes a world owned by the caller and issues its join code.
func (h *WorldHandler) Create(c *gin.Context) {
	var req CreateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	world := model.World{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     currentUserID(c),
		IsActive:    true,
	}
	if req.ThemeColor != "" {
		world.ThemeColor = req.ThemeColor
	}

	// Generation re-rolls on collision; the insert itself relies on the
	// unique index.
	created := false
	for attempt := 0; attempt < joinCodeAttempts && !created; attempt++ {
		code, err := joincode.New()
		if err != nil {
			respondError(c, err)
			return
		}
		var count int64
		h.db.Model(&model.World{}).Where("join_code = ?", code).Count(&count)
		if count > 0 {
			continue
		}
		world.JoinCode = code
		if err := h.db.Create(&world).Error; err == nil {
			created = true
		}
	}
	if !created {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create world"})
		return
	}

	if h.cache != nil {
		if err := h.cache.StoreJoinCode(c.Request.Context(), world.JoinCode, world.ID); err != nil {
			log.Printf("Warning: failed to cache join code: %v", err)
		}
	}

	c.JSON(http.StatusCreated, world)
}

// List returns worlds the caller owns or belongs to.
func (h *WorldHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	var worlds []model.World
	err := h.db.
		Where("is_active = true").
		Where("owner_id = ? OR id IN (?)", userID,
			h.db.Model(&model.WorldMembership{}).Select("world_id").Where("user_id = ?", userID)).
		Order("created_at desc").
		Find(&worlds).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, worlds)
}

func (h *WorldHandler) Get(c *gin.Context) {
	world, err := h.visibleWorld(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

type UpdateWorldRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	ThemeColor  string `json:"themeColor"`
}

func (h *WorldHandler) Update(c *gin.Context) {
	world, err := h.visibleWorld(c)
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	if !p.IsPrivileged(world.ID) {
		middleware.RecordAuthzDenial("world")
		respondError(c, apperr.Authorization("world_edit_denied", "you cannot edit this world"))
		return
	}

	var req UpdateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	world.Name = req.Name
	world.Description = req.Description
	if req.ThemeColor != "" {
		world.ThemeColor = req.ThemeColor
	}
	if err := h.db.Save(world).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

// Delete removes a world and everything it owns. Owner only.
func (h *WorldHandler) Delete(c *gin.Context) {
	world, err := h.visibleWorld(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if world.OwnerID != currentUserID(c) {
		middleware.RecordAuthzDenial("world")
		respondError(c, apperr.Authorization("world_delete_denied", "only the owner can delete a world"))
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		return deleteWorldTree(tx, world.ID)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.ForgetJoinCode(c.Request.Context(), world.JoinCode); err != nil {
			log.Printf("Warning: failed to drop cached join code: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "world deleted"})
}

type JoinWorldRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
}

// Join adds the caller to the world matching the (case-insensitive) code.
func (h *WorldHandler) Join(c *gin.Context) {
	userID := currentUserID(c)

	var req JoinWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "joinCode is required"})
		return
	}
	code := joincode.Normalize(req.JoinCode)

	world, err := h.worldByCode(c, code)
	if err != nil {
		middleware.RecordWorldJoin("not_found")
		respondError(c, err)
		return
	}

	var existing model.WorldMembership
	alreadyMember := h.db.Where("world_id = ? AND user_id = ?", world.ID, userID).First(&existing).Error == nil
	if err := world.JoinableBy(userID, alreadyMember); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			middleware.RecordWorldJoin(appErr.Code)
		}
		respondError(c, err)
		return
	}

	membership := model.WorldMembership{
		WorldID: world.ID,
		UserID:  userID,
		Role:    model.WorldRolePlayer,
	}
	if err := h.db.Create(&membership).Error; err != nil {
		// Concurrent join of the same world hits the unique pair index.
		middleware.RecordWorldJoin("already_member")
		respondError(c, apperr.Conflict("already_member", "you are already a member of this world"))
		return
	}

	middleware.RecordWorldJoin("success")
	c.JSON(http.StatusCreated, membership)
}

// Leave removes the caller's membership. Owners must delete instead.
func (h *WorldHandler) Leave(c *gin.Context) {
	userID := currentUserID(c)
	worldID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var world model.World
	if err := h.db.Where("id = ? AND is_active = true", worldID).First(&world).Error; err != nil {
		respondError(c, apperr.NotFound("world_not_found", "world not found"))
		return
	}

	if world.OwnerID == userID {
		respondError(c, apperr.Conflict("owner_cannot_leave", "the owner cannot leave; delete the world instead"))
		return
	}

	result := h.db.Where("world_id = ? AND user_id = ?", worldID, userID).Delete(&model.WorldMembership{})
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, apperr.NotFound("not_member", "you are not a member of this world"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left world"})
}

// Members lists the world's roster, owner first.
func (h *WorldHandler) Members(c *gin.Context) {
	world, err := h.visibleWorld(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var memberships []model.WorldMembership
	if err := h.db.Where("world_id = ?", world.ID).Order("joined_at").Find(&memberships).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ownerId": world.OwnerID,
		"members": memberships,
	})
}

type UpdateMemberRequest struct {
	Role model.WorldRole `json:"role" binding:"required"`
}

// UpdateMember changes a member's role. Owner only.
func (h *WorldHandler) UpdateMember(c *gin.Context) {
	_, member, err := h.ownedWorldMember(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be creator, co_creator, or player"})
		return
	}

	if err := h.db.Model(member).Update("role", req.Role).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// RemoveMember kicks a member. Owner only.
func (h *WorldHandler) RemoveMember(c *gin.Context) {
	_, member, err := h.ownedWorldMember(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.Delete(member).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// visibleWorld loads the path world and checks the caller can see it.
// Invisible and absent worlds are indistinguishable.
func (h *WorldHandler) visibleWorld(c *gin.Context) (*model.World, error) {
	worldID, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	userID := currentUserID(c)

	var world model.World
	if err := h.db.Where("id = ? AND is_active = true", worldID).First(&world).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("world_not_found", "world not found")
		}
		return nil, err
	}

	if world.OwnerID == userID {
		return &world, nil
	}
	var count int64
	h.db.Model(&model.WorldMembership{}).Where("world_id = ? AND user_id = ?", world.ID, userID).Count(&count)
	if count == 0 {
		return nil, apperr.NotFound("world_not_found", "world not found")
	}
	return &world, nil
}

func (h *WorldHandler) ownedWorldMember(c *gin.Context) (*model.World, *model.WorldMembership, error) {
	world, err := h.visibleWorld(c)
	if err != nil {
		return nil, nil, err
	}
	if world.OwnerID != currentUserID(c) {
		middleware.RecordAuthzDenial("world")
		return nil, nil, apperr.Authorization("world_member_denied", "only the owner can manage members")
	}

	memberID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return nil, nil, apperr.Validation("invalid_user_id", "invalid user id")
	}

	var member model.WorldMembership
	if err := h.db.Where("world_id = ? AND user_id = ?", world.ID, memberID).First(&member).Error; err != nil {
		return nil, nil, apperr.NotFound("not_member", "user is not a member of this world")
	}
	return world, &member, nil
}

func (h *WorldHandler) worldByCode(c *gin.Context, code string) (*model.World, error) {
	if h.cache != nil {
		if id := h.cache.LookupWorldByJoinCode(c.Request.Context(), code); id != 0 {
			var world model.World
			if err := h.db.Where("id = ? AND is_active = true", id).First(&world).Error; err == nil {
				return &world, nil
			}
		}
	}

	var world model.World
	if err := h.db.Where("join_code = ? AND is_active = true", code).First(&world).Error; err != nil {
		return nil, apperr.NotFound("world_not_found", "no world found for that join code")
	}
	if h.cache != nil {
		if err := h.cache.StoreJoinCode(c.Request.Context(), code, world.ID); err != nil {
			log.Printf("Warning: failed to cache join code: %v", err)
		}
	}
	return &world, nil
}

// deleteWorldTree removes a world and all content scoped to it. The cascade
// is explicit so each deletion is visible here instead of hidden in schema
// constraints.
func deleteWorldTree(tx *gorm.DB, worldID int64) error {
	entryIDs := tx.Model(&model.Entry{}).Select("id").Where("world_id = ?", worldID)
	if err := tx.Where("entry_id IN (?)", entryIDs).Delete(&model.HiddenTextBlock{}).Error; err != nil {
		return err
	}
	if err := tx.Where("source_entry_id IN (?) OR target_entry_id IN (?)", entryIDs, entryIDs).Delete(&model.CrossReference{}).Error; err != nil {
		return err
	}
	if err := tx.Where("world_id = ?", worldID).Delete(&model.Entry{}).Error; err != nil {
		return err
	}
	if err := tx.Where("world_id = ?", worldID).Delete(&model.Category{}).Error; err != nil {
		return err
	}

	sessionIDs := tx.Model(&model.Session{}).Select("id").Where("world_id = ?", worldID)
	if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&model.SessionQuestProgress{}).Error; err != nil {
		return err
	}
	if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&model.SessionNote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&model.SessionPlayer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("world_id = ?", worldID).Delete(&model.Session{}).Error; err != nil {
		return err
	}
	if err := tx.Where("world_id = ?", worldID).Delete(&model.Quest{}).Error; err != nil {
		return err
	}
	if err := tx.Where("world_id = ?", worldID).Delete(&model.WorldMembership{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.World{}, worldID).Error
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid_id", "invalid "+name)
	}
	return id, nil
}
