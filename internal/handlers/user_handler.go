package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/middleware"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/services"
)

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterRequest
		if !bindJSON(c, &req, "Username, password and email are required") {
			return
		}
		if err := u.Register(c.Request.Context(), req); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.MessageResponse("User registered successfully"))
	}
}

// Login sets the session cookie and also returns the token for clients that
// send it as a bearer header.
func Login(u *services.UserService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if !bindJSON(c, &req, "Username and password are required") {
			return
		}
		token, err := u.Login(c.Request.Context(), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		cookie.set(c, token)
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func ValidateOngoingLogin(u *services.UserService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.SessionToken(c, cookieName)
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"isAvailable": false})
			return
		}
		if _, err := u.ParseSession(token); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"isAvailable": true})
	}
}

func Logout(cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie.clear(c)
		c.JSON(http.StatusOK, helpers.MessageResponse("Logged out successfully"))
	}
}

func ResetPassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FullMail string `json:"fullMail"`
		}
		if !bindJSON(c, &req, "Email is required") {
			return
		}
		if err := u.RequestPasswordReset(c.Request.Context(), req.FullMail); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.MessageResponse("Password reset email sent"))
	}
}

func ChangePassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Password string `json:"password"`
			Token    string `json:"token"`
		}
		if !bindJSON(c, &req, "Password and token are required") {
			return
		}
		if err := u.ChangePassword(c.Request.Context(), req.Password, req.Token); err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.MessageResponse("Password updated successfully"))
	}
}

func CheckUsername(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taken, err := u.UsernameTaken(c.Request.Context(), c.Param("username"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"isTaken": taken})
	}
}

func CheckEmail(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taken, err := u.EmailTaken(c.Request.Context(), c.Param("fullMail"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"isTaken": taken})
	}
}

func ValidateEmail(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		already, err := u.VerifyEmail(c.Request.Context(), c.Param("token"))
		if err != nil {
			RespondError(c, err)
			return
		}
		if already {
			c.JSON(http.StatusOK, helpers.MessageResponse("Email is already verified"))
			return
		}
		c.JSON(http.StatusOK, helpers.MessageResponse("Email verified successfully"))
	}
}

func HashPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("Password is required"))
			return
		}
		hashed, err := helpers.HashPassword(req.Password)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("Error hashing password"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"hashedPassword": hashed})
	}
}

func ComparePasswords() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlainPassword  string `json:"plainPassword"`
			HashedPassword string `json:"hashedPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.PlainPassword == "" || req.HashedPassword == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("Both password and hash are required"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"isValid": helpers.VerifyPassword(req.PlainPassword, req.HashedPassword)})
	}
}
