package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gotd/td/tg"

	"dealwatch/pkg/logx"
)

const DefaultRelaySource = "3commas_notifications_bot"

// Forwarder delivers relayed text.
type Forwarder interface {
	SendText(ctx context.Context, text string) error
}

// Relay forwards every new message from one Telegram account (the 3Commas
// notifications bot by default) to the notification chat unchanged.
type Relay struct {
	client    *Client
	source    string
	forwarder Forwarder
	// sourceID is the user id of source, 0 until resolved. Short updates
	// carry no user entities, so only the id identifies the sender there.
	sourceID atomic.Int64
}

func NewRelay(client *Client, source string, forwarder Forwarder) *Relay {
	if source == "" {
		source = DefaultRelaySource
	}

	r := &Relay{
		client:    client,
		source:    strings.TrimPrefix(source, "@"),
		forwarder: forwarder,
	}

	if client != nil {
		client.OnNewMessage(r.HandleNewMessage)
	}

	return r
}

// Run keeps the session open until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	err := r.client.Start(ctx, func(ctx context.Context) error {
		id, err := r.client.ResolveUsername(ctx, r.source)
		if err != nil {
			logger(ctx).Warn("relay source not resolved, matching by username only",
				slog.String("source", r.source), logx.Error(err))
		} else {
			r.sourceID.Store(id)
		}

		logger(ctx).Info("relay listening",
			slog.String("source", r.source), slog.Int64("source-id", r.sourceID.Load()))

		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("client.Start: %w", err)
	}

	return nil
}

// HandleNewMessage forwards the message when it comes from the source account.
// Delivery failures are logged and never stop the session.
func (r *Relay) HandleNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out || msg.Message == "" {
		return nil
	}

	if !r.fromSource(e, msg) {
		return nil
	}

	logger(ctx).Info("relaying message", slog.Int("message-id", msg.ID))

	if err := r.forwarder.SendText(ctx, msg.Message); err != nil {
		logger(ctx).Error("relay delivery failed", slog.Int("message-id", msg.ID), logx.Error(err))
	}

	return nil
}

func (r *Relay) fromSource(e tg.Entities, msg *tg.Message) bool {
	senderID, ok := senderUserID(msg)
	if !ok {
		return false
	}

	if id := r.sourceID.Load(); id != 0 {
		return senderID == id
	}

	u, ok := e.Users[senderID]
	if !ok || u == nil || !strings.EqualFold(u.Username, r.source) {
		return false
	}

	r.sourceID.CompareAndSwap(0, senderID)

	return true
}

// senderUserID resolves the author of msg. Messages in a private chat with
// a bot may carry no FromID, so the peer is the author.
func senderUserID(msg *tg.Message) (int64, bool) {
	peer := msg.PeerID
	if from, ok := msg.GetFromID(); ok {
		peer = from
	}

	user, ok := peer.(*tg.PeerUser)
	if !ok {
		return 0, false
	}

	return user.UserID, true
}
