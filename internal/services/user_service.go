package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/mailer"
	"github.com/joshua-takyi/studenthub/internal/models"
)

type AuthConfig struct {
	SessionTTL   time.Duration
	MailTokenTTL time.Duration
	Links        mailer.Links
}

// UserService runs registration, login, email verification and password reset.
type UserService struct {
	store  models.Store
	tokens *helpers.TokenManager
	mail   mailer.Service
	cfg    AuthConfig
	logger *slog.Logger
}

func NewUserService(store models.Store, tokens *helpers.TokenManager, mail mailer.Service, cfg AuthConfig, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		mail:   mail,
		cfg:    cfg,
		logger: logger,
	}
}

func (u *UserService) Register(ctx context.Context, req models.RegisterRequest) error {
	username := strings.TrimSpace(req.Username)
	fullMail := strings.TrimSpace(req.FullMail)
	if username == "" || req.Password == "" || fullMail == "" {
		return Validation("Username, password and email are required")
	}
	domain := domainOf(fullMail)
	if domain == "" {
		return Validation("Invalid email format")
	}

	taken, err := models.Exists(ctx, u.store, models.AppUserTable, models.Eq("username", username))
	if err != nil {
		return Upstream("Error creating user", err)
	}
	if taken {
		return Validation("Username is already taken")
	}
	taken, err = models.Exists(ctx, u.store, models.MailTable, models.Eq("Mail", fullMail))
	if err != nil {
		return Upstream("Error creating user", err)
	}
	if taken {
		return Validation("Email is already taken")
	}

	university, err := models.SelectOne[models.University](ctx, u.store, models.Query{
		Table:   models.UniversityTable,
		Columns: "university_id",
		Filters: []models.Filter{models.Eq("domain", domain)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return NotFound("University not found for email domain")
		}
		return Upstream("Error creating user", err)
	}

	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		return Upstream("Error creating user", err)
	}

	var created []models.AppUser
	if err := u.store.Insert(ctx, models.AppUserTable, models.AppUser{
		Username:     username,
		PasswordHash: hash,
	}, &created); err != nil {
		return Upstream("Error creating user", err)
	}
	if len(created) == 0 {
		return Upstream("Error creating user", errors.New("insert returned no user"))
	}
	userID := created[0].UserID

	if err := u.store.Insert(ctx, models.MailTable, models.Mail{
		Mail:         fullMail,
		UniversityID: university.UniversityID,
		UserID:       userID,
		IsPrimary:    true,
	}, nil); err != nil {
		// undo the user row so the username is not left claimed
		if _, delErr := u.store.Delete(ctx, models.AppUserTable, models.Eq("user_id", userID)); delErr != nil {
			u.logger.ErrorContext(ctx, "failed to roll back user after mail insert error",
				"user_id", userID, "error", delErr)
		}
		return Upstream("Error inserting email", err)
	}

	u.sendVerification(ctx, fullMail)
	return nil
}

func (u *UserService) sendVerification(ctx context.Context, fullMail string) {
	token, err := u.tokens.Issue(&helpers.MailClaims{FullMail: fullMail}, helpers.AudienceEmailVerification, u.cfg.MailTokenTTL)
	if err != nil {
		u.logger.ErrorContext(ctx, "failed to sign verification token", "error", err)
		return
	}
	if err := mailer.SendVerification(ctx, u.mail, fullMail, u.cfg.Links.Verification(token)); err != nil {
		u.logger.WarnContext(ctx, "failed to send verification email", "to", fullMail, "error", err)
	}
}

// Login checks credentials and returns a session token.
func (u *UserService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return "", Validation("Username and password are required")
	}

	user, err := models.SelectOne[models.AppUser](ctx, u.store, models.Query{
		Table:   models.AppUserTable,
		Columns: "user_id,username,password_hash,is_admin",
		Filters: []models.Filter{models.Eq("username", username)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", AuthFailed("Incorrect username")
		}
		return "", Upstream("Error logging in", err)
	}
	if !helpers.VerifyPassword(req.Password, user.PasswordHash) {
		return "", AuthFailed("Incorrect password")
	}

	verified, err := models.Exists(ctx, u.store, models.MailTable,
		models.Eq("user_id", user.UserID), models.Eq("is_verified", true))
	if err != nil {
		return "", Upstream("Error logging in", err)
	}
	if !verified {
		return "", AuthFailed("Email not yet verified")
	}

	if helpers.NeedsRehash(user.PasswordHash) {
		u.upgradeHash(ctx, user.UserID, req.Password)
	}

	token, err := u.tokens.Issue(&helpers.SessionClaims{
		ID:       user.UserID,
		Username: user.Username,
		Admin:    user.IsAdmin,
	}, helpers.AudienceSession, u.cfg.SessionTTL)
	if err != nil {
		return "", Upstream("Error logging in", err)
	}
	return token, nil
}

func (u *UserService) upgradeHash(ctx context.Context, userID int64, password string) {
	hash, err := helpers.HashPassword(password)
	if err == nil {
		_, err = u.store.Update(ctx, models.AppUserTable, map[string]any{"password_hash": hash}, models.Eq("user_id", userID))
	}
	if err != nil {
		u.logger.WarnContext(ctx, "failed to upgrade legacy password hash", "user_id", userID, "error", err)
	}
}

// ParseSession verifies a session token.
func (u *UserService) ParseSession(token string) (*helpers.SessionClaims, error) {
	var claims helpers.SessionClaims
	if err := u.tokens.Verify(token, helpers.AudienceSession, &claims); err != nil {
		return nil, tokenError(err)
	}
	return &claims, nil
}

func (u *UserService) parseMailToken(token, audience string) (string, error) {
	var claims helpers.MailClaims
	if err := u.tokens.Verify(token, audience, &claims); err != nil {
		return "", tokenError(err)
	}
	if claims.FullMail == "" {
		return "", AuthFailed("Invalid token")
	}
	return claims.FullMail, nil
}

func tokenError(err error) error {
	if errors.Is(err, helpers.ErrTokenExpired) {
		return AuthFailed("Token has expired")
	}
	return AuthFailed("Invalid token")
}

// VerifyEmail marks the mail in a verification token as verified. It reports
// whether the mail had already been verified.
func (u *UserService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	fullMail, err := u.parseMailToken(token, helpers.AudienceEmailVerification)
	if err != nil {
		return false, err
	}

	mail, err := models.SelectOne[models.Mail](ctx, u.store, models.Query{
		Table:   models.MailTable,
		Columns: "Mail,is_verified",
		Filters: []models.Filter{models.Eq("Mail", fullMail)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, NotFound("Email not found")
		}
		return false, Upstream("Error verifying email", err)
	}
	if mail.IsVerified {
		return true, nil
	}

	if _, err := u.store.Update(ctx, models.MailTable, map[string]any{"is_verified": true}, models.Eq("Mail", fullMail)); err != nil {
		return false, Upstream("Error updating verification status", err)
	}
	return false, nil
}

// RequestPasswordReset emails a reset link when the address is registered.
// Unknown addresses succeed silently.
func (u *UserService) RequestPasswordReset(ctx context.Context, fullMail string) error {
	fullMail = strings.TrimSpace(fullMail)
	if fullMail == "" {
		return Validation("Email is required")
	}

	exists, err := models.Exists(ctx, u.store, models.MailTable, models.Eq("Mail", fullMail))
	if err != nil {
		return Upstream("Error sending password reset email", err)
	}
	if !exists {
		u.logger.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}

	token, err := u.tokens.Issue(&helpers.MailClaims{FullMail: fullMail}, helpers.AudiencePasswordReset, u.cfg.MailTokenTTL)
	if err != nil {
		return Upstream("Error sending password reset email", err)
	}
	if err := mailer.SendPasswordReset(ctx, u.mail, fullMail, u.cfg.Links.PasswordReset(token)); err != nil {
		u.logger.WarnContext(ctx, "failed to send password reset email", "to", fullMail, "error", err)
	}
	return nil
}

func (u *UserService) ChangePassword(ctx context.Context, password, token string) error {
	if password == "" || token == "" {
		return Validation("Password and token are required")
	}
	fullMail, err := u.parseMailToken(token, helpers.AudiencePasswordReset)
	if err != nil {
		return err
	}

	mail, err := models.SelectOne[models.Mail](ctx, u.store, models.Query{
		Table:   models.MailTable,
		Columns: "user_id",
		Filters: []models.Filter{models.Eq("Mail", fullMail)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return NotFound("Email not found")
		}
		return Upstream("Error getting user id", err)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return Upstream("Error updating user password", err)
	}
	n, err := u.store.Update(ctx, models.AppUserTable, map[string]any{"password_hash": hash}, models.Eq("user_id", mail.UserID))
	if err != nil {
		return Upstream("Error updating user password", err)
	}
	if n == 0 {
		return NotFound("User not found")
	}
	return nil
}

func (u *UserService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	taken, err := models.Exists(ctx, u.store, models.AppUserTable, models.Eq("username", strings.TrimSpace(username)))
	if err != nil {
		return false, Upstream("Internal Server Error", err)
	}
	return taken, nil
}

func (u *UserService) EmailTaken(ctx context.Context, fullMail string) (bool, error) {
	taken, err := models.Exists(ctx, u.store, models.MailTable, models.Eq("Mail", strings.TrimSpace(fullMail)))
	if err != nil {
		return false, Upstream("Internal Server Error", err)
	}
	return taken, nil
}

// AddMail attaches another unverified address to the user and sends its verification link.
func (u *UserService) AddMail(ctx context.Context, userID int64, req models.AddMailRequest) error {
	req.Mail = strings.TrimSpace(req.Mail)
	if err := models.Validate.Struct(req); err != nil {
		return Validation("Mail and university_id are required")
	}

	taken, err := models.Exists(ctx, u.store, models.MailTable, models.Eq("Mail", req.Mail))
	if err != nil {
		return Upstream("Error adding email", err)
	}
	if taken {
		return Validation("Email is already registered")
	}

	if err := u.store.Insert(ctx, models.MailTable, models.Mail{
		Mail:         req.Mail,
		UniversityID: req.UniversityID,
		UserID:       userID,
		IsPrimary:    req.IsPrimary,
	}, nil); err != nil {
		return Upstream("Error adding email", err)
	}

	u.sendVerification(ctx, req.Mail)
	return nil
}
