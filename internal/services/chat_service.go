package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/realtime"
)

// ChatService stores chat messages and relays them to subscribed clients.
// Messages are persisted before they are published. A relay failure is logged
// and does not fail the request, since the message is already stored.
type ChatService struct {
	store     models.Store
	publisher realtime.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewChatService(store models.Store, publisher realtime.Publisher, logger *slog.Logger) *ChatService {
	return &ChatService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (cs *ChatService) Send(ctx context.Context, userID int64, req models.SendMessageRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if err := models.Validate.Struct(req); err != nil {
		return Validation("message and chatId are required")
	}
	if err := cs.requireParticipant(ctx, req.ChatID, userID); err != nil {
		return err
	}

	createdAt := cs.now().UTC()
	if err := cs.store.Insert(ctx, models.MessageTable, models.Message{
		ChatID:    req.ChatID,
		UserID:    userID,
		Message:   req.Message,
		CreatedAt: models.NewTimestamp(createdAt),
	}, nil); err != nil {
		return Upstream("Error saving message", err)
	}

	cs.publish(ctx, req.ChatID, realtime.EventNewMessage, realtime.NewMessageEvent{
		CreatedAt: createdAt.Format(time.RFC3339Nano),
		Message:   req.Message,
		Read:      false,
		UserID:    userID,
	})
	return nil
}

// MarkRead flags the messages authorID sent in the chat as read.
func (cs *ChatService) MarkRead(ctx context.Context, callerID int64, req models.ReadMessagesRequest) error {
	if err := models.Validate.Struct(req); err != nil {
		return Validation("chatId and userId are required")
	}
	if err := cs.requireParticipant(ctx, req.ChatID, callerID); err != nil {
		return err
	}

	if _, err := cs.store.Update(ctx, models.MessageTable, map[string]any{"read": true},
		models.Eq("chat_id", req.ChatID), models.Eq("user_id", req.UserID)); err != nil {
		return Upstream("Error processing read receipt", err)
	}

	cs.publish(ctx, req.ChatID, realtime.EventMessageRead, realtime.MessageReadEvent{
		ChatID: req.ChatID,
		UserID: req.UserID,
	})
	return nil
}

func (cs *ChatService) publish(ctx context.Context, chatID int64, event string, payload any) {
	if err := cs.publisher.Publish(ctx, realtime.ChatChannel(chatID), event, payload); err != nil {
		cs.logger.WarnContext(ctx, "failed to publish chat event",
			"chat_id", chatID, "event", event, "error", err)
	}
}

// Messages returns the messages of a chat oldest first.
func (cs *ChatService) Messages(ctx context.Context, userID int64, req models.ChatRequest) ([]models.Message, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, Validation("chatId is required")
	}
	if err := cs.requireParticipant(ctx, req.ChatID, userID); err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := cs.store.Select(ctx, models.Query{
		Table:   models.MessageTable,
		Columns: "user_id,message,created_at,read",
		Filters: []models.Filter{models.Eq("chat_id", req.ChatID)},
		OrderBy: "created_at",
	}, &messages); err != nil {
		return nil, Upstream("Error fetching messages", err)
	}
	if len(messages) == 0 {
		return nil, NotFound("Messages not found")
	}
	return messages, nil
}

// ListChats returns the user's chats, most recent activity first. Chats without
// messages come last.
func (cs *ChatService) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	var memberships []models.ChatParticipant
	if err := cs.store.Select(ctx, models.Query{
		Table:   models.ChatParticipantTable,
		Columns: "chat_id",
		Filters: []models.Filter{models.Eq("user_id", userID)},
	}, &memberships); err != nil {
		return nil, Upstream("Error fetching chats", err)
	}
	chatIDs := Unique(Pluck(memberships, func(p models.ChatParticipant) int64 { return p.ChatID }))
	if len(chatIDs) == 0 {
		return nil, NotFound("Chats not found")
	}

	out := make([]models.ChatSummary, len(chatIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, chatID := range chatIDs {
		i, chatID := i, chatID
		g.Go(func() error {
			summary, err := cs.summarize(gctx, chatID, userID)
			if err != nil {
				return err
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Upstream("Error fetching chats", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LatestMessageTimestamp, out[j].LatestMessageTimestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(b.Time)
		}
	})
	return out, nil
}

func (cs *ChatService) summarize(ctx context.Context, chatID, userID int64) (models.ChatSummary, error) {
	summary := models.ChatSummary{ChatID: chatID}

	var latest []models.Message
	if err := cs.store.Select(ctx, models.Query{
		Table:   models.MessageTable,
		Columns: "message,created_at,user_id",
		Filters: []models.Filter{models.Eq("chat_id", chatID)},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   1,
	}, &latest); err != nil {
		return summary, err
	}
	if len(latest) > 0 {
		summary.LatestMessage = latest[0].Message
		ts := latest[0].CreatedAt
		summary.LatestMessageTimestamp = &ts
	}

	var others []models.ChatParticipant
	if err := cs.store.Select(ctx, models.Query{
		Table:   models.ChatParticipantTable,
		Columns: "chat_id,user_id",
		Filters: []models.Filter{models.Eq("chat_id", chatID), models.Neq("user_id", userID)},
		Limit:   1,
	}, &others); err != nil {
		return summary, err
	}
	if len(others) == 0 {
		return summary, nil
	}

	other := others[0].UserID
	summary.UserID = &other
	profiles, err := userProfiles(ctx, cs.store, []int64{other})
	if err != nil {
		return summary, err
	}
	if p, ok := profiles[other]; ok {
		username := p.Username
		summary.OtherUsername = &username
		summary.OtherProfilePicture = p.Picture
	}

	unread, err := cs.store.Count(ctx, models.MessageTable,
		models.Eq("chat_id", chatID), models.Eq("user_id", other), models.Eq("read", false))
	if err != nil {
		return summary, err
	}
	summary.UnreadCount = unread
	return summary, nil
}

func (cs *ChatService) requireParticipant(ctx context.Context, chatID, userID int64) error {
	ok, err := models.Exists(ctx, cs.store, models.ChatParticipantTable,
		models.Eq("chat_id", chatID), models.Eq("user_id", userID))
	if err != nil {
		return Upstream("Error checking chat membership", err)
	}
	if !ok {
		return Unauthorized("You are not a participant of this chat")
	}
	return nil
}
