package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/services"
)

func ListDomains(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		domains, err := us.Domains(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, domains)
	}
}

func UniversityCoordinates(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		coords, err := us.Coordinates(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, coords)
	}
}

// MyUniversity answers with the bare university id of the caller.
func MyUniversity(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, err := us.MyUniversity(c.Request.Context(), claims.ID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, id)
	}
}

func AddMail(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req models.AddMailRequest
		if !bindJSON(c, &req, "Mail and university_id are required") {
			return
		}
		if err := u.AddMail(c.Request.Context(), claims.ID, req); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.MessageResponse("Email added and verification sent"))
	}
}

func UniversityByDomain(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		university, err := us.ByDomain(c.Request.Context(), c.Param("universityDomain"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, university)
	}
}

func ContactsByUniversity(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		activeUserID, ok := paramID(c, "activeUserId")
		if !ok {
			return
		}
		contacts, err := us.ContactsByUniversity(c.Request.Context(), universityID, activeUserID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contacts)
	}
}

func OtherUniversities(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		universities, err := us.OtherUniversities(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, universities)
	}
}

func ContactUniversity(us *services.UniversityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		universityID, ok := paramID(c, "universityId")
		if !ok {
			return
		}
		universities, err := us.University(c.Request.Context(), universityID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, universities)
	}
}
