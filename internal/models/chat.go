package models

const (
	MessageTable         = "message"
	ChatParticipantTable = "chat_participant"
)

type Message struct {
	ID        int64     `json:"id,omitempty"`
	ChatID    int64     `json:"chat_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
	Read      bool      `json:"read"`
}

type ChatParticipant struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
	ChatID  int64  `json:"chatId" validate:"required"`
}

type ReadMessagesRequest struct {
	ChatID int64 `json:"chatId" validate:"required"`
	UserID int64 `json:"userId" validate:"required"`
}

type ChatRequest struct {
	ChatID int64 `json:"chatId" validate:"required"`
}

// ChatSummary is one entry of a user's chat list.
type ChatSummary struct {
	ChatID                 int64      `json:"chat_id"`
	LatestMessage          string     `json:"latest_message"`
	LatestMessageTimestamp *Timestamp `json:"latest_message_timestamp"`
	OtherUsername          *string    `json:"other_username"`
	UserID                 *int64     `json:"user_id"`
	OtherProfilePicture    *string    `json:"other_profile_picture"`
	UnreadCount            int64      `json:"unread_count"`
}
