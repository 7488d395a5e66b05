package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/authz"
	"github.com/plothook/api/internal/content"
	"github.com/plothook/api/internal/middleware"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db    *gorm.DB
	store content.Store
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db, store: content.GormStore{DB: db}}
}

type CreateCategoryRequest struct {
	Title       string         `json:"title" binding:"required,max=200"`
	Description string         `json:"description"`
	BookType    model.BookType `json:"bookType" binding:"required"`
	WorldID     int64          `json:"worldId" binding:"required"`
	ParentID    *int64         `json:"parentId"`
	IsHidden    bool           `json:"isHidden"`
	SortOrder   int            `json:"sortOrder"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.BookType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bookType must be world, adventurer, or story"})
		return
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := requireWorldAccess(h.db, p, req.WorldID); err != nil {
		respondError(c, err)
		return
	}

	cat := model.Category{
		Title:       req.Title,
		Description: req.Description,
		BookType:    req.BookType,
		WorldID:     req.WorldID,
		ParentID:    req.ParentID,
		OwnerID:     p.UserID,
		IsHidden:    req.IsHidden,
		SortOrder:   req.SortOrder,
	}

	// Creation follows the edit rule: players may only author Adventurer's
	// Book content.
	if !authz.CanEdit(p, authz.CategoryNode(&cat)) {
		middleware.RecordAuthzDenial("category")
		respondError(c, apperr.Authorization("category_create_denied", "you cannot create content in this book"))
		return
	}

	if req.ParentID != nil {
		parent, err := h.store.Category(*req.ParentID)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := content.ValidateParent(h.store, req.WorldID, 0, parent); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.db.Create(&cat).Error; err != nil {
		respondError(c, apperr.Conflict("category_exists", "a sibling category with this title already exists"))
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// List returns the categories visible to the caller, optionally filtered by
// world, book type, and parent.
func (h *CategoryHandler) List(c *gin.Context) {
	p, err := loadPrincipal(c, h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	query := h.db.Order("sort_order, title")
	if world := c.Query("worldId"); world != "" {
		query = query.Where("world_id = ?", world)
	}
	if book := c.Query("bookType"); book != "" {
		query = query.Where("book_type = ?", book)
	}
	if parent := c.Query("parentId"); parent != "" {
		query = query.Where("parent_id = ?", parent)
	}

	var cats []model.Category
	if err := query.Find(&cats).Error; err != nil {
		respondError(c, err)
		return
	}

	visible := make([]model.Category, 0, len(cats))
	for i := range cats {
		ok, err := h.canViewCategory(p, &cats[i])
		if err != nil {
			respondError(c, err)
			return
		}
		if ok {
			visible = append(visible, cats[i])
		}
	}
	c.JSON(http.StatusOK, visible)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	_, cat, err := h.visibleCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}

	path, err := content.FullPath(h.store, cat)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "fullPath": path})
}

type UpdateCategoryRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parentId"`
	IsHidden    *bool  `json:"isHidden"`
	SortOrder   *int   `json:"sortOrder"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	p, cat, err := h.visibleCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanEdit(p, authz.CategoryNode(cat)) {
		middleware.RecordAuthzDenial("category")
		respondError(c, apperr.Authorization("category_edit_denied", "you cannot edit this category"))
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Omitted parentId preserves the current parent; zero moves to the root.
	if err := content.Reparent(h.store, cat, req.ParentID); err != nil {
		respondError(c, err)
		return
	}

	cat.Title = req.Title
	cat.Description = req.Description
	if req.IsHidden != nil {
		cat.IsHidden = *req.IsHidden
	}
	if req.SortOrder != nil {
		cat.SortOrder = *req.SortOrder
	}

	if err := h.db.Save(cat).Error; err != nil {
		respondError(c, apperr.Conflict("category_exists", "a sibling category with this title already exists"))
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Delete removes the category and its whole subtree, entries included.
func (h *CategoryHandler) Delete(c *gin.Context) {
	p, cat, err := h.visibleCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !authz.CanEdit(p, authz.CategoryNode(cat)) {
		middleware.RecordAuthzDenial("category")
		respondError(c, apperr.Authorization("category_edit_denied", "you cannot delete this category"))
		return
	}

	descendants, err := content.Descendants(h.store, cat)
	if err != nil {
		respondError(c, err)
		return
	}
	ids := make([]int64, 0, len(descendants)+1)
	ids = append(ids, cat.ID)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		entryIDs := tx.Model(&model.Entry{}).Select("id").Where("category_id IN ?", ids)
		if err := tx.Where("entry_id IN (?)", entryIDs).Delete(&model.HiddenTextBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("source_entry_id IN (?) OR target_entry_id IN (?)", entryIDs, entryIDs).Delete(&model.CrossReference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id IN ?", ids).Delete(&model.Entry{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Category{}).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// Children lists the direct visible children of a category.
func (h *CategoryHandler) Children(c *gin.Context) {
	p, cat, err := h.visibleCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}

	children, err := h.store.Children(cat.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	visible := make([]*model.Category, 0, len(children))
	for _, child := range children {
		ok, err := h.canViewCategory(p, child)
		if err != nil {
			respondError(c, err)
			return
		}
		if ok {
			visible = append(visible, child)
		}
	}
	c.JSON(http.StatusOK, visible)
}

// Entries lists the visible entries directly under a category.
func (h *CategoryHandler) Entries(c *gin.Context) {
	p, cat, err := h.visibleCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var entries []model.Entry
	if err := h.db.Where("category_id = ?", cat.ID).Order("updated_at desc").Find(&entries).Error; err != nil {
		respondError(c, err)
		return
	}

	chain, err := h.categoryChain(cat)
	if err != nil {
		respondError(c, err)
		return
	}

	visible := make([]model.Entry, 0, len(entries))
	for i := range entries {
		if authz.CanView(p, authz.EntryNode(&entries[i]), chain...) {
			visible = append(visible, entries[i])
		}
	}
	c.JSON(http.StatusOK, visible)
}

// visibleCategory loads the path category and enforces can_view, walking the
// ancestor chain so hidden parents hide their subtrees. Invisible and absent
// categories are indistinguishable.
func (h *CategoryHandler) visibleCategory(c *gin.Context) (authz.Principal, *model.Category, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return authz.Principal{}, nil, err
	}

	p, err := loadPrincipal(c, h.db)
	if err != nil {
		return authz.Principal{}, nil, err
	}

	var cat model.Category
	if err := h.db.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.Principal{}, nil, apperr.NotFound("category_not_found", "category not found")
		}
		return authz.Principal{}, nil, err
	}

	ok, err := h.canViewCategory(p, &cat)
	if err != nil {
		return authz.Principal{}, nil, err
	}
	if !ok {
		return authz.Principal{}, nil, apperr.NotFound("category_not_found", "category not found")
	}
	return p, &cat, nil
}

func (h *CategoryHandler) canViewCategory(p authz.Principal, cat *model.Category) (bool, error) {
	ancestors, err := content.Ancestors(h.store, cat)
	if err != nil {
		return false, err
	}
	return authz.CanView(p, authz.CategoryNode(cat), ancestors...), nil
}

// categoryChain is the category plus its ancestors, for entry visibility.
func (h *CategoryHandler) categoryChain(cat *model.Category) ([]*model.Category, error) {
	ancestors, err := content.Ancestors(h.store, cat)
	if err != nil {
		return nil, err
	}
	return append(ancestors, cat), nil
}
