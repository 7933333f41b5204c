package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/middleware"
	"github.com/joshua-takyi/studenthub/internal/services"
)

// RespondError writes err as {"message"} with the status of its kind. Upstream
// causes are attached to the context for the error middleware to log.
func RespondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("Internal Server Error"))
		return
	}
	if se.Kind == services.KindUpstream {
		_ = c.Error(err)
	}
	c.JSON(se.Status(), helpers.ErrorResponse(se.Message))
}

// paramID parses a numeric path parameter, answering 400 when it is missing or malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	raw := helpers.StringTrim(c.Param(name))
	if raw == "" {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(fmt.Sprintf("%s is required", name)))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return id, true
}

func paramFloat(c *gin.Context, name string) (float64, bool) {
	raw := helpers.StringTrim(c.Param(name))
	v, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("latitud, longitud and radius is required"))
		return 0, false
	}
	return v, true
}

// bindJSON decodes the body, answering 400 with msg when it is not valid JSON.
func bindJSON(c *gin.Context, dest any, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(msg))
		return false
	}
	return true
}

// caller returns the session claims set by the auth middleware.
func caller(c *gin.Context) (*helpers.SessionClaims, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("Unauthorized"))
		return nil, false
	}
	return claims, true
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (cc CookieConfig) set(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(cc.Name, value, int(cc.MaxAge.Seconds()), "/", "", cc.Secure, true)
}

func (cc CookieConfig) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(cc.Name, "", -1, "/", "", cc.Secure, true)
}
