package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/container"
	"github.com/joshua-takyi/studenthub/internal/handlers"
	"github.com/joshua-takyi/studenthub/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ClientIP keys the rate limiter and view dedupe, so forwarded headers
	// only count when the peer is a configured proxy.
	if err := r.SetTrustedProxies(container.Config.TrustedProxies); err != nil {
		container.Logger.Warn("ignoring TRUSTED_PROXIES", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(middleware.BodyLimit(container.Config.BodyLimit))
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "StudentHub API working")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "studenthub-api",
		})
	})

	cookieName := container.Config.CookieName
	auth := middleware.AuthMiddleware(container.UserService, cookieName)
	limit := container.RateLimiter.Limit

	benefitRoutes := r.Group("/benefits")
	{
		benefitRoutes.GET("/:universityId/benefit", handlers.ListBenefits(container.BenefitService))
		benefitRoutes.GET("/:universityId/categories", handlers.ListCategories(container.BenefitService))
		benefitRoutes.GET("/:universityId/featured_images", handlers.FeaturedImages(container.BenefitService))
		benefitRoutes.GET("/:universityId/:category", handlers.BenefitsByCategory(container.BenefitService))
	}

	userRoutes := r.Group("/users")
	{
		userRoutes.POST("/register", limit("register"), handlers.Register(container.UserService))
		userRoutes.POST("/validate_login", limit("validate_login"), handlers.Login(container.UserService, container.Cookie))
		userRoutes.POST("/validate_ongoing_login", handlers.ValidateOngoingLogin(container.UserService, cookieName))
		userRoutes.POST("/logout", handlers.Logout(container.Cookie))
		userRoutes.POST("/reset_password", limit("reset_password"), handlers.ResetPassword(container.UserService))
		userRoutes.POST("/change_password", handlers.ChangePassword(container.UserService))
		userRoutes.GET("/check-username/:username", handlers.CheckUsername(container.UserService))
		userRoutes.GET("/check-email/:fullMail", handlers.CheckEmail(container.UserService))
		userRoutes.GET("/validate_email/:token", handlers.ValidateEmail(container.UserService))
		userRoutes.POST("/hash_password", handlers.HashPassword())
		userRoutes.POST("/compare_passwords", handlers.ComparePasswords())
	}

	universityRoutes := r.Group("/universities")
	{
		universityRoutes.GET("/domains", handlers.ListDomains(container.UniversityService))
		universityRoutes.GET("/coordinates/:universityId", handlers.UniversityCoordinates(container.UniversityService))
		universityRoutes.POST("/my_university", auth, handlers.MyUniversity(container.UniversityService))
		universityRoutes.POST("/mail", auth, handlers.AddMail(container.UserService))
		universityRoutes.GET("/get_university/:universityDomain", handlers.UniversityByDomain(container.UniversityService))
	}

	contactRoutes := r.Group("/contacts")
	{
		contactRoutes.GET("/:universityId/:activeUserId/contactsByUniversity", handlers.ContactsByUniversity(container.UniversityService))
		contactRoutes.GET("/:universityId/allUniversities", handlers.OtherUniversities(container.UniversityService))
		contactRoutes.GET("/:universityId/myUniversity", handlers.ContactUniversity(container.UniversityService))
	}

	profileRoutes := r.Group("/user")
	{
		profileRoutes.POST("/admin", auth, handlers.CheckAdmin(container.ProfileService))
		profileRoutes.POST("/user_id", auth, handlers.CheckUserID())
		profileRoutes.POST("/username", handlers.GetUsername(container.ProfileService))
		profileRoutes.GET("/get_user/:userId", handlers.GetUserInfo(container.ProfileService))
		profileRoutes.GET("/get_user_info/:userId", handlers.GetUserInfo(container.ProfileService))
		profileRoutes.POST("/get_user_lodgments", auth, handlers.GetUserLodgings(container.ProfileService))
		profileRoutes.GET("/get_user_universities", auth, handlers.GetUserUniversities(container.ProfileService))
	}

	lodgingRoutes := r.Group("/lodging")
	{
		lodgingRoutes.GET("/lodging_post/:lat/:lon/:radius", handlers.NearbyLodgings(container.LodgingService))
		lodgingRoutes.GET("/get_lodge/:postId", middleware.OptionalAuth(container.UserService, cookieName), handlers.GetLodging(container.LodgingService))
		lodgingRoutes.POST("/store_lodge", auth, handlers.StoreLodging(container.LodgingService))
		lodgingRoutes.GET("/delete_lodge/:postId", auth, handlers.DeleteLodging(container.LodgingService))
		lodgingRoutes.DELETE("/:postId", auth, handlers.DeleteLodging(container.LodgingService))
		lodgingRoutes.GET("/stats/:postId", auth, handlers.LodgingStats(container.LodgingService))
		lodgingRoutes.GET("/stats", auth, handlers.OwnerLodgingStats(container.LodgingService))
	}

	messageRoutes := r.Group("/messages")
	messageRoutes.Use(auth)
	{
		messageRoutes.POST("/chat", handlers.SendMessage(container.ChatService))
		messageRoutes.POST("/getChats", handlers.ListChats(container.ChatService))
		messageRoutes.POST("/read", handlers.ReadMessages(container.ChatService))
		messageRoutes.POST("/getMessages", handlers.GetMessages(container.ChatService))
	}

	return r
}
