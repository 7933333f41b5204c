package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/services"
)

// CheckAdmin reads the admin flag from the database, not from the session.
func CheckAdmin(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		isAdmin, err := ps.IsAdmin(c.Request.Context(), claims.ID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"isAdmin": isAdmin})
	}
}

func CheckUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": claims.ID})
	}
}

func GetUsername(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID int64 `json:"user_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("user_id is required"))
			return
		}
		rows, err := ps.Username(c.Request.Context(), req.UserID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(rows, "Username fetched successfully"))
	}
}

func GetUserInfo(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "userId")
		if !ok {
			return
		}
		info, err := ps.UserInfo(c.Request.Context(), userID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse([]*models.UserInfo{info}, "User info fetched successfully"))
	}
}

func GetUserLodgings(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		lodgings, err := ps.UserLodgings(c.Request.Context(), claims.ID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(lodgings, "Lodgments fetched successfully"))
	}
}

func GetUserUniversities(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		universities, err := ps.UserUniversities(c.Request.Context(), claims.ID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(universities, "Universities fetched successfully"))
	}
}
