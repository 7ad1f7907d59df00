package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// TelegramBot delivers notifications to a single chat through the Bot API.
type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramBot(token string, chatID int64, opts ...telego.BotOption) (*TelegramBot, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// Bot exposes the underlying client so command handling can share it.
func (b *TelegramBot) Bot() *telego.Bot {
	return b.bot
}

func (b *TelegramBot) SendEvent(ctx context.Context, event entity.Event) error {
	msg := tu.Message(
		tu.ID(b.chatID),
		FormatEvent(event),
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send %s event for deal %s: %w", event.Kind, event.Deal.ID, err)
	}

	return nil
}

// SendText sends text as is, without markup.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send text: %w", err)
	}

	return nil
}

// Announce sends text and only logs a failure.
func (b *TelegramBot) Announce(ctx context.Context, text string) {
	if err := b.SendText(ctx, text); err != nil {
		logger(ctx).Warn("announcement not delivered", logx.Error(err))
		return
	}

	logger(ctx).Info("announcement delivered")
}
