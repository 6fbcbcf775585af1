package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gym-membership/internal/config"
	"gym-membership/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*AdminNotifier)(nil)

// messageSender is the part of tgbotapi.BotAPI we use.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminNotifier pushes operational messages to the configured admin chats.
type AdminNotifier struct {
	bot     messageSender
	chatIDs []int64
	log     *zerolog.Logger
}

func NewAdminNotifier(cfg *config.TelegramConfig, logger *zerolog.Logger) (*AdminNotifier, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if len(cfg.AdminChatIDs) == 0 {
		return nil, errors.New("telegram admin_chat_ids is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newAdminNotifier(bot, cfg.AdminChatIDs, logger), nil
}

func newAdminNotifier(bot messageSender, chatIDs []int64, logger *zerolog.Logger) *AdminNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "telegram_notifier").Logger()
	return &AdminNotifier{bot: bot, chatIDs: chatIDs, log: &l}
}

// NotifyAdmins sends text to every admin chat. Delivery continues past failed
// chats; the first error is returned.
func (n *AdminNotifier) NotifyAdmins(ctx context.Context, text string) error {
	var firstErr error
	for _, id := range n.chatIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn().Err(err).Int64("chat_id", id).Msg("send failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
