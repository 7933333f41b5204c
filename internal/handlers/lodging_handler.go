package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/middleware"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/services"
)

func NearbyLodgings(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, ok := paramFloat(c, "lat")
		if !ok {
			return
		}
		lon, ok := paramFloat(c, "lon")
		if !ok {
			return
		}
		radius, ok := paramFloat(c, "radius")
		if !ok {
			return
		}
		lodgings, err := ls.Nearby(c.Request.Context(), lat, lon, radius)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lodgings)
	}
}

// GetLodging returns one lodging. Views are keyed on the X-Session-ID header,
// or on the client address when it is absent.
func GetLodging(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "postId")
		if !ok {
			return
		}

		viewer := services.ViewContext{
			SessionID: c.GetHeader("X-Session-ID"),
			UserAgent: c.Request.UserAgent(),
		}
		if viewer.SessionID == "" {
			viewer.SessionID = c.ClientIP()
		}
		if claims, ok := middleware.Claims(c); ok {
			userID := claims.ID
			viewer.UserID = &userID
		}

		lodging, err := ls.Get(c.Request.Context(), id, viewer)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(lodging, "Lodge description fetched successfully"))
	}
}

func StoreLodging(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req models.StoreLodgingRequest
		if !bindJSON(c, &req, "Some field is missing!") {
			return
		}
		id, err := ls.Store(c.Request.Context(), claims.ID, req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"id": id}, "Lodge and images registered successfully"))
	}
}

func DeleteLodging(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "postId")
		if !ok {
			return
		}
		if err := ls.Delete(c.Request.Context(), claims, id); err != nil {
			if services.KindOf(err) != services.KindUpstream {
				RespondError(c, err)
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, models.SuccessResponse(false, "Error deleting the lodge"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(true, "Lodge deleted successfully"))
	}
}

func LodgingStats(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "postId")
		if !ok {
			return
		}
		stats, err := ls.Stats(c.Request.Context(), claims, id)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func OwnerLodgingStats(ls *services.LodgingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		stats, err := ls.OwnerStats(c.Request.Context(), claims)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
