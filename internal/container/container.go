package container

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/joshua-takyi/studenthub/internal/config"
	"github.com/joshua-takyi/studenthub/internal/handlers"
	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/mailer"
	"github.com/joshua-takyi/studenthub/internal/middleware"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/realtime"
	"github.com/joshua-takyi/studenthub/internal/services"
)

// Backends are the external systems the services talk to. Views and Redis
// may be nil.
type Backends struct {
	Store     models.Store
	Lodgings  models.LodgingWriter
	Images    models.ImageRemover
	Views     models.LodgingViewsRepo
	Mailer    mailer.Service
	Publisher realtime.Publisher
	Redis     redis.Cmdable
}

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	Config *config.Config
	Cookie handlers.CookieConfig

	RateLimiter *middleware.RateLimiter

	UserService       *services.UserService
	ProfileService    *services.ProfileService
	BenefitService    *services.BenefitService
	UniversityService *services.UniversityService
	LodgingService    *services.LodgingService
	ChatService       *services.ChatService
}

// NewContainer creates a new dependency injection container
func NewContainer(logger *slog.Logger, cfg *config.Config, b Backends) (*Container, error) {
	tokens, err := helpers.NewTokenManager(cfg.JWTKeyID, cfg.JWTSecret, cfg.JWTPreviousKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to set up token signing: %v", err)
	}

	authCfg := services.AuthConfig{
		SessionTTL:   cfg.SessionTTL,
		MailTokenTTL: cfg.MailTokenTTL,
		Links:        mailer.Links{FrontendURL: cfg.FrontendURL},
	}

	return &Container{
		Logger: logger,
		Config: cfg,
		Cookie: handlers.CookieConfig{
			Name:   cfg.CookieName,
			MaxAge: cfg.CookieMaxAge,
			Secure: true, // SameSite=None is rejected without it, in every environment
		},
		RateLimiter:       middleware.NewRateLimiter(b.Redis, cfg.RateLimitRequests, cfg.RateLimitWindow, logger),
		UserService:       services.NewUserService(b.Store, tokens, b.Mailer, authCfg, logger),
		ProfileService:    services.NewProfileService(b.Store),
		BenefitService:    services.NewBenefitService(b.Store),
		UniversityService: services.NewUniversityService(b.Store),
		LodgingService:    services.NewLodgingService(b.Store, b.Lodgings, b.Images, b.Views, logger),
		ChatService:       services.NewChatService(b.Store, b.Publisher, logger),
	}, nil
}
