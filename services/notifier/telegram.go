package notifier

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

const telegramProvider = "telegram"

// TelegramSender delivers messages to one chat through the Bot API
type TelegramSender struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
}

// NewTelegramSender creates a sender for token and chatID. chatID is a numeric id
// or an "@channel" name. An empty endpoint uses the public Bot API.
// The bot is not contacted until the first Send.
func NewTelegramSender(token, chatID, endpoint string, timeout time.Duration) (*TelegramSender, error) {
	if token == "" || chatID == "" {
		return nil, apperrors.NewConfiguration("telegram token and chat id are required", nil)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)

	s := &TelegramSender{bot: bot}
	if strings.HasPrefix(chatID, "@") {
		s.channel = chatID
		return s, nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, apperrors.NewConfiguration("invalid telegram chat id "+strconv.Quote(chatID), err)
	}
	s.chatID = id
	return s, nil
}

// Send posts text as a MarkdownV2 message with link previews disabled
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewNotification(telegramProvider, "send cancelled", err)
	}

	var msg tgbotapi.MessageConfig
	if s.channel != "" {
		msg = tgbotapi.NewMessageToChannel(s.channel, text)
	} else {
		msg = tgbotapi.NewMessage(s.chatID, text)
	}
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return apperrors.NewRateLimit(telegramProvider, time.Duration(apiErr.RetryAfter)*time.Second)
		}
		return apperrors.NewNotification(telegramProvider, "failed to send message", err)
	}
	return nil
}
