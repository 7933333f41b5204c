// Package realtime relays chat events to connected clients through a pub/sub service.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/pusher/pusher-http-go/v5"
)

const (
	EventNewMessage  = "new-message"
	EventMessageRead = "message-read"
)

type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
	Close() error
}

// ChatChannel names the channel clients of one chat subscribe to.
func ChatChannel(chatID int64) string {
	return fmt.Sprintf("chat-channel-%d", chatID)
}

type NewMessageEvent struct {
	CreatedAt string `json:"created_at"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	UserID    int64  `json:"user_id"`
}

type MessageReadEvent struct {
	ChatID int64 `json:"chatId"`
	UserID int64 `json:"userId"`
}

// PusherPublisher triggers events on Pusher channels.
type PusherPublisher struct {
	client *pusher.Client
}

func NewPusherPublisher(appID, key, secret, cluster string) *PusherPublisher {
	return &PusherPublisher{client: &pusher.Client{
		AppID:   appID,
		Key:     key,
		Secret:  secret,
		Cluster: cluster,
		Secure:  true,
	}}
}

func (p *PusherPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.client.Trigger(channel, event, payload); err != nil {
		return fmt.Errorf("pusher trigger %s/%s: %v", channel, event, err)
	}
	return nil
}

func (p *PusherPublisher) Close() error { return nil }

// NATSPublisher publishes JSON payloads on subject "<channel>.<event>".
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("studenthub-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func Subject(channel, event string) string {
	return channel + "." + event
}

func (n *NATSPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	return n.conn.Publish(Subject(channel, event), data)
}

func (n *NATSPublisher) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// LogPublisher only logs events. Used when no relay is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	l.logger.DebugContext(ctx, "relay event", "channel", channel, "event", event, "payload", payload)
	return nil
}

func (l *LogPublisher) Close() error { return nil }
