package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/authz"
	"github.com/plothook/api/internal/content"
	"github.com/plothook/api/internal/middleware"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

type EntryHandler struct {
	db    *gorm.DB
	store content.Store
}

func NewEntryHandler(db *gorm.DB) *EntryHandler {
	return &EntryHandler{db: db, store: content.GormStore{DB: db}}
}

type CreateEntryRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Content    string `json:"content"`
	CategoryID int64  `json:"categoryId" binding:"required"`
	IsHidden   bool   `json:"isHidden"`
}

// Create adds an entry under a category. The entry inherits the category's
// world and book type.
func (h *EntryHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	cat, err := h.store.Category(req.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := requireWorldAccess(h.db, p, cat.WorldID); err != nil {
		respondError(c, err)
		return
	}

	entry := model.Entry{
		ID:         uuid.NewString(),
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: cat.ID,
		BookType:   cat.BookType,
		WorldID:    cat.WorldID,
		OwnerID:    p.UserID,
		IsHidden:   req.IsHidden,
	}

	if !authz.CanEdit(p, authz.EntryNode(&entry)) {
		middleware.RecordAuthzDenial("entry")
		respondError(c, apperr.Authorization("entry_create_denied", "you cannot create content in this book"))
		return
	}

	if err := h.db.Create(&entry).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// List returns entries visible to the caller, optionally filtered by world,
// category, and book type.
func (h *EntryHandler) List(c *gin.Context) {
	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	query := h.db.Order("updated_at desc")
	if world := c.Query("worldId"); world != "" {
		query = query.Where("world_id = ?", world)
	}
	if category := c.Query("categoryId"); category != "" {
		query = query.Where("category_id = ?", category)
	}
	if book := c.Query("bookType"); book != "" {
		query = query.Where("book_type = ?", book)
	}

	var entries []model.Entry
	if err := query.Find(&entries).Error; err != nil {
		respondError(c, err)
		return
	}

	// Chains are cached per category so sibling entries share one walk.
	chains := make(map[int64][]*model.Category)
	visible := make([]model.Entry, 0, len(entries))
	for i := range entries {
		chain, ok := chains[entries[i].CategoryID]
		if !ok {
			chain, err = h.chainFor(entries[i].CategoryID)
			if err != nil {
				respondError(c, err)
				return
			}
			chains[entries[i].CategoryID] = chain
		}
		if authz.CanView(p, authz.EntryNode(&entries[i]), chain...) {
			visible = append(visible, entries[i])
		}
	}
	c.JSON(http.StatusOK, visible)
}

func (h *EntryHandler) Get(c *gin.Context) {
	_, entry, chain, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cat := chain[len(chain)-1]
	path, err := content.EntryPath(h.store, cat, entry)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "fullPath": path})
}

type UpdateEntryRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content"`
	IsHidden *bool  `json:"isHidden"`
}

func (h *EntryHandler) Update(c *gin.Context) {
	p, entry, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanEdit(p, authz.EntryNode(entry)) {
		middleware.RecordAuthzDenial("entry")
		respondError(c, apperr.Authorization("entry_edit_denied", "you cannot edit this entry"))
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Shrinking the content must not orphan hidden block ranges.
	var blocks []model.HiddenTextBlock
	if err := h.db.Where("entry_id = ?", entry.ID).Order("start_position").Find(&blocks).Error; err != nil {
		respondError(c, err)
		return
	}
	contentLen := model.ContentLength(req.Content)
	for _, b := range blocks {
		if b.EndPosition > contentLen {
			respondError(c, apperr.Validation("hidden_block_range",
				"content update would cut off an existing hidden block"))
			return
		}
	}

	entry.Title = req.Title
	entry.Content = req.Content
	if req.IsHidden != nil {
		entry.IsHidden = *req.IsHidden
	}
	if err := h.db.Save(entry).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	p, entry, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanEdit(p, authz.EntryNode(entry)) {
		middleware.RecordAuthzDenial("entry")
		respondError(c, apperr.Authorization("entry_edit_denied", "you cannot delete this entry"))
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&model.HiddenTextBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("source_entry_id = ? OR target_entry_id = ?", entry.ID, entry.ID).Delete(&model.CrossReference{}).Error; err != nil {
			return err
		}
		return tx.Delete(entry).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

// HiddenBlocks lists an entry's hidden text blocks. Privileged users only,
// regardless of the entry's own visibility.
func (h *EntryHandler) HiddenBlocks(c *gin.Context) {
	p, entry, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanViewHiddenContent(p, entry.WorldID) {
		middleware.RecordAuthzDenial("hidden_block")
		respondError(c, apperr.Authorization("hidden_content_denied", "only DMs can view hidden content"))
		return
	}

	var blocks []model.HiddenTextBlock
	if err := h.db.Where("entry_id = ?", entry.ID).Order("start_position").Find(&blocks).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

type HiddenBlockRequest struct {
	Content       string `json:"content" binding:"required"`
	StartPosition int    `json:"startPosition"`
	EndPosition   int    `json:"endPosition" binding:"required"`
}

func (h *EntryHandler) CreateHiddenBlock(c *gin.Context) {
	p, entry, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanViewHiddenContent(p, entry.WorldID) {
		middleware.RecordAuthzDenial("hidden_block")
		respondError(c, apperr.Authorization("hidden_content_denied", "only DMs can create hidden content"))
		return
	}

	var req HiddenBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block := model.HiddenTextBlock{
		EntryID:       entry.ID,
		Content:       req.Content,
		StartPosition: req.StartPosition,
		EndPosition:   req.EndPosition,
	}

	var siblings []model.HiddenTextBlock
	if err := h.db.Where("entry_id = ?", entry.ID).Find(&siblings).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := block.Validate(model.ContentLength(entry.Content), siblings); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.Create(&block).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h *EntryHandler) UpdateHiddenBlock(c *gin.Context) {
	block, entry, err := h.privilegedBlock(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req HiddenBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block.Content = req.Content
	block.StartPosition = req.StartPosition
	block.EndPosition = req.EndPosition

	var siblings []model.HiddenTextBlock
	if err := h.db.Where("entry_id = ?", entry.ID).Find(&siblings).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := block.Validate(model.ContentLength(entry.Content), siblings); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.Save(block).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

func (h *EntryHandler) DeleteHiddenBlock(c *gin.Context) {
	block, _, err := h.privilegedBlock(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.Delete(block).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "hidden block deleted"})
}

// References lists the visible cross references touching an entry.
func (h *EntryHandler) References(c *gin.Context) {
	_, entry, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var outgoing, incoming []model.CrossReference
	if err := h.db.Where("source_entry_id = ?", entry.ID).Order("created_at desc").Find(&outgoing).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Where("target_entry_id = ?", entry.ID).Order("created_at desc").Find(&incoming).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outgoing": outgoing, "incoming": incoming})
}

type CreateReferenceRequest struct {
	TargetEntryID string `json:"targetEntryId" binding:"required"`
	Description   string `json:"description"`
}

// CreateReference links the path entry to a target. The caller must own the
// source entry; the target only needs to exist.
func (h *EntryHandler) CreateReference(c *gin.Context) {
	p, source, _, err := h.visibleEntry(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref := model.CrossReference{
		SourceEntryID: source.ID,
		TargetEntryID: req.TargetEntryID,
		Description:   req.Description,
	}
	if err := ref.Validate(); err != nil {
		respondError(c, err)
		return
	}

	if source.OwnerID != p.UserID {
		middleware.RecordAuthzDenial("cross_reference")
		respondError(c, apperr.Authorization("reference_denied", "you can only create references from your own entries"))
		return
	}

	var target model.Entry
	if err := h.db.First(&target, "id = ?", req.TargetEntryID).Error; err != nil {
		respondError(c, apperr.NotFound("entry_not_found", "target entry not found"))
		return
	}

	if err := h.db.Create(&ref).Error; err != nil {
		respondError(c, apperr.Conflict("reference_exists", "these entries are already linked"))
		return
	}
	c.JSON(http.StatusCreated, ref)
}

func (h *EntryHandler) DeleteReference(c *gin.Context) {
	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	refID, err := paramID(c, "refId")
	if err != nil {
		respondError(c, err)
		return
	}

	var ref model.CrossReference
	if err := h.db.Where("id = ? AND source_entry_id = ?", refID, c.Param("id")).First(&ref).Error; err != nil {
		respondError(c, apperr.NotFound("reference_not_found", "reference not found"))
		return
	}

	var source model.Entry
	if err := h.db.First(&source, "id = ?", ref.SourceEntryID).Error; err != nil {
		respondError(c, err)
		return
	}
	if source.OwnerID != p.UserID && !p.IsPrivileged(source.WorldID) {
		middleware.RecordAuthzDenial("cross_reference")
		respondError(c, apperr.Authorization("reference_denied", "you cannot delete this reference"))
		return
	}

	if err := h.db.Delete(&ref).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reference deleted"})
}

// visibleEntry loads the path entry and enforces can_view, including the
// hidden flags of the entry's whole category chain. The chain (root first,
// own category last) is returned for reuse.
func (h *EntryHandler) visibleEntry(c *gin.Context) (authz.Principal, *model.Entry, []*model.Category, error) {
	id := c.Param("id")
	if id == "" {
		return authz.Principal{}, nil, nil, apperr.Validation("invalid_id", "invalid id")
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		return authz.Principal{}, nil, nil, err
	}

	var entry model.Entry
	if err := h.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.Principal{}, nil, nil, apperr.NotFound("entry_not_found", "entry not found")
		}
		return authz.Principal{}, nil, nil, err
	}

	chain, err := h.chainFor(entry.CategoryID)
	if err != nil {
		return authz.Principal{}, nil, nil, err
	}

	if !authz.CanView(p, authz.EntryNode(&entry), chain...) {
		return authz.Principal{}, nil, nil, apperr.NotFound("entry_not_found", "entry not found")
	}
	return p, &entry, chain, nil
}

func (h *EntryHandler) chainFor(categoryID int64) ([]*model.Category, error) {
	cat, err := h.store.Category(categoryID)
	if err != nil {
		return nil, err
	}
	ancestors, err := content.Ancestors(h.store, cat)
	if err != nil {
		return nil, err
	}
	return append(ancestors, cat), nil
}

func (h *EntryHandler) privilegedBlock(c *gin.Context) (*model.HiddenTextBlock, *model.Entry, error) {
	blockID, err := paramID(c, "blockId")
	if err != nil {
		return nil, nil, err
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		return nil, nil, err
	}

	var block model.HiddenTextBlock
	if err := h.db.Where("id = ? AND entry_id = ?", blockID, c.Param("id")).First(&block).Error; err != nil {
		return nil, nil, apperr.NotFound("hidden_block_not_found", "hidden block not found")
	}

	var entry model.Entry
	if err := h.db.First(&entry, "id = ?", block.EntryID).Error; err != nil {
		return nil, nil, err
	}

	if !authz.CanViewHiddenContent(p, entry.WorldID) {
		middleware.RecordAuthzDenial("hidden_block")
		// Not-found rather than forbidden: players must not learn the block
		// exists.
		return nil, nil, apperr.NotFound("hidden_block_not_found", "hidden block not found")
	}
	return &block, &entry, nil
}
