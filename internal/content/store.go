package content

import (
	"errors"

	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

// GormStore resolves categories from the database.
type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) Category(id int64) (*model.Category, error) {
	var cat model.Category
	if err := s.DB.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category_not_found", "category not found")
		}
		return nil, err
	}
	return &cat, nil
}

func (s GormStore) Children(parentID int64) ([]*model.Category, error) {
	var children []*model.Category
	if err := s.DB.Where("parent_id = ?", parentID).Order("sort_order, title").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}
