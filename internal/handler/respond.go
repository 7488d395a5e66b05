package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/apperr"
	"github.com/plothook/api/internal/authz"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

// respondError writes an application error with its mapped status. Unknown
// errors are logged and surfaced as a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(apperr.Status(appErr), gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func currentUserID(c *gin.Context) int64 {
	v, _ := c.Get("userID")
	id, _ := v.(int64)
	return id
}

// requireWorldAccess checks the caller belongs to the active world the
// content lives in. Non-members get not-found, never forbidden.
func requireWorldAccess(db *gorm.DB, p authz.Principal, worldID int64) error {
	if _, ok := p.WorldRole(worldID); ok || p.Role == model.RoleDM {
		var count int64
		db.Model(&model.World{}).Where("id = ? AND is_active = true", worldID).Count(&count)
		if count > 0 {
			return nil
		}
	}
	return apperr.NotFound("world_not_found", "world not found")
}

// loadPrincipal resolves the acting identity for this request: claims from
// the auth middleware plus the user's world membership roles.
func loadPrincipal(c *gin.Context, db *gorm.DB) (authz.Principal, error) {
	userID := currentUserID(c)
	if userID == 0 {
		return authz.Principal{}, apperr.Authorization("unauthenticated", "authentication required")
	}

	roleVal, _ := c.Get("userRole")
	roleStr, _ := roleVal.(string)

	var memberships []model.WorldMembership
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return authz.Principal{}, err
	}

	p := authz.Principal{
		UserID:      userID,
		Role:        model.Role(roleStr),
		Memberships: make(map[int64]model.WorldRole, len(memberships)),
	}
	for _, m := range memberships {
		p.Memberships[m.WorldID] = m.Role
	}

	// The owner of a world always carries creator rights, membership row or
	// not.
	var ownedIDs []int64
	if err := db.Model(&model.World{}).Where("owner_id = ? AND is_active = true", userID).Pluck("id", &ownedIDs).Error; err != nil {
		return authz.Principal{}, err
	}
	for _, id := range ownedIDs {
		p.Memberships[id] = model.WorldRoleCreator
	}

	return p, nil
}
