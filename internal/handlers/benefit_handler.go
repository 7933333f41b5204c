package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/services"
)

func ListBenefits(b *services.BenefitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		benefits, err := b.ListBenefits(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, benefits)
	}
}

func ListCategories(b *services.BenefitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		categories, err := b.ListCategories(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func FeaturedImages(b *services.BenefitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		images, err := b.FeaturedImages(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, images)
	}
}

func BenefitsByCategory(b *services.BenefitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		category := helpers.StringTrim(c.Param("category"))
		if category == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("universityId and category name is required"))
			return
		}
		benefits, err := b.BenefitsByCategory(c.Request.Context(), universityID, category)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, benefits)
	}
}
