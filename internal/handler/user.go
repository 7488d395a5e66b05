package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/auth"
	"github.com/plothook/api/internal/model"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns users visible to the caller: DMs see everyone, players see
// only other players.
func (h *UserHandler) List(c *gin.Context) {
	roleVal, _ := c.Get("userRole")
	role, _ := roleVal.(string)

	query := h.db.Where("is_active = true")
	if model.Role(role) != model.RoleDM {
		query = query.Where("role = ?", model.RolePlayer)
	}

	var users []model.User
	if err := query.Order("username").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type UpdateMeRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Bio      string `json:"bio"`
}

// UpdateMe applies the validated account form: username, email, bio.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := currentUserID(c)

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	h.db.Model(&model.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", req.Username, req.Email, userID).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	user.Username = req.Username
	user.Email = req.Email
	user.Bio = req.Bio
	if err := h.db.Save(&user).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	FavoriteEdition       string `json:"favoriteEdition"`
	DMExperienceYears     *int   `json:"dmExperienceYears"`
	PlayerExperienceYears *int   `json:"playerExperienceYears"`
	DiscordUsername       string `json:"discordUsername"`
	TwitterHandle         string `json:"twitterHandle"`
	ProfilePublic         *bool  `json:"profilePublic"`
	ShowEmail             *bool  `json:"showEmail"`
}

// UpdateMyProfile applies the extended-profile form.
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	userID := currentUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DMExperienceYears != nil && *req.DMExperienceYears < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dmExperienceYears must not be negative"})
		return
	}
	if req.PlayerExperienceYears != nil && *req.PlayerExperienceYears < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerExperienceYears must not be negative"})
		return
	}

	var profile model.UserProfile
	if err := h.db.Where("user_id = ?", userID).FirstOrCreate(&profile, model.UserProfile{UserID: userID}).Error; err != nil {
		respondError(c, err)
		return
	}

	profile.FavoriteEdition = req.FavoriteEdition
	profile.DiscordUsername = req.DiscordUsername
	profile.TwitterHandle = req.TwitterHandle
	if req.DMExperienceYears != nil {
		profile.DMExperienceYears = *req.DMExperienceYears
	}
	if req.PlayerExperienceYears != nil {
		profile.PlayerExperienceYears = *req.PlayerExperienceYears
	}
	if req.ProfilePublic != nil {
		profile.ProfilePublic = *req.ProfilePublic
	}
	if req.ShowEmail != nil {
		profile.ShowEmail = *req.ShowEmail
	}

	if err := h.db.Save(&profile).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := currentUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		c.JSON(http.StatusForbidden, gin.H{"error": "current password is incorrect"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hash,
		"updated_at":    time.Now(),
	}).Error; err != nil {
		respondError(c, err)
		return
	}

	// Revoke outstanding refresh tokens so old sessions can't mint new
	// access tokens.
	h.db.Model(&model.RefreshToken{}).Where("user_id = ?", userID).Update("revoked", true)

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// ToggleTheme flips between light and dark.
func (h *UserHandler) ToggleTheme(c *gin.Context) {
	userID := currentUserID(c)

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	theme := model.ThemeDark
	if user.ThemePreference == model.ThemeDark {
		theme = model.ThemeLight
	}
	if err := h.db.Model(&user).Update("theme_preference", theme).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

type DeleteMeRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// DeleteMe removes the account and everything it owns.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID := currentUserID(c)

	var req DeleteMeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != "DELETE" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type DELETE to confirm account deletion"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var worldIDs []int64
		if err := tx.Model(&model.World{}).Where("owner_id = ?", userID).Pluck("id", &worldIDs).Error; err != nil {
			return err
		}
		for _, worldID := range worldIDs {
			if err := deleteWorldTree(tx, worldID); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&model.WorldMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.SessionPlayer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserProfile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// PublicProfile shows another user's profile when it is public.
func (h *UserHandler) PublicProfile(c *gin.Context) {
	username := c.Param("username")

	var user model.User
	if err := h.db.Where("username = ? AND is_active = true", username).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	var profile model.UserProfile
	if err := h.db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	// Private profiles are indistinguishable from absent ones.
	if !profile.ProfilePublic {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	resp := gin.H{
		"username": user.Username,
		"role":     user.Role,
		"bio":      user.Bio,
		"profile":  profile,
	}
	if profile.ShowEmail {
		resp["email"] = user.Email
	}
	c.JSON(http.StatusOK, resp)
}
