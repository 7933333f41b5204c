package models

const (
	AppUserTable    = "appuser"
	MailTable       = "mail"
	UniversityTable = "university"
	ImageTable      = "image"
)

type AppUser struct {
	UserID         int64  `json:"user_id,omitempty"`
	Username       string `json:"username"`
	PasswordHash   string `json:"password_hash,omitempty"`
	IsAdmin        bool   `json:"is_admin"`
	ProfilePicture *int64 `json:"profile_picture,omitempty"`
}

// Mail is an email address owned by a user and tied to a university.
// The column is literally named "Mail".
type Mail struct {
	Mail         string `json:"Mail" validate:"required,email"`
	UniversityID int64  `json:"university_id" validate:"required"`
	UserID       int64  `json:"user_id"`
	IsPrimary    bool   `json:"is_primary"`
	IsVerified   bool   `json:"is_verified"`
}

type University struct {
	UniversityID int64    `json:"university_id"`
	Name         string   `json:"name"`
	Domain       string   `json:"domain,omitempty"`
	Latitud      *float64 `json:"latitud,omitempty"`
	Longitud     *float64 `json:"longitud,omitempty"`
}

type Image struct {
	ID          int64  `json:"id,omitempty"`
	Base64Image string `json:"base64image"`
	Name        string `json:"name,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullMail string `json:"fullMail"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AddMailRequest struct {
	Mail         string `json:"Mail" validate:"required,email"`
	UniversityID int64  `json:"university_id" validate:"required"`
	IsPrimary    bool   `json:"is_primary"`
}

type UserMail struct {
	Mail           string `json:"Mail"`
	UniversityID   int64  `json:"university_id"`
	UniversityName string `json:"university_name"`
	IsPrimary      bool   `json:"is_primary"`
	IsVerified     bool   `json:"is_verified"`
}

type UserInfo struct {
	UserID         int64      `json:"user_id"`
	Username       string     `json:"username"`
	IsAdmin        bool       `json:"is_admin"`
	ProfilePicture *string    `json:"profile_picture"`
	Mails          []UserMail `json:"mails"`
}

// Contact is a mail of another user at the same university.
type Contact struct {
	Mail           string  `json:"Mail"`
	UniversityID   int64   `json:"university_id"`
	UserID         int64   `json:"user_id"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
	UniversityName string  `json:"university_name"`
}

type Coordinates struct {
	Latitud  *float64 `json:"latitud"`
	Longitud *float64 `json:"longitud"`
}
