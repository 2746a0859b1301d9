// Package delivery sends finished digests to subscribers over Telegram, or
// to stdout for dry runs.
package delivery

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/justDance-everybody/web3-info-denoise/internal/digest"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
	"github.com/justDance-everybody/web3-info-denoise/internal/translator"
)

// telegramMessageLimit is Telegram's hard cap per message.
const telegramMessageLimit = 4096

// Bot is the slice of the Telegram API client used for sending.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot Bot
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	log.Printf("[delivery] telegram bot authorized as @%s", bot.Self.UserName)
	return &Telegram{bot: bot}, nil
}

// NewTelegramWithBot wires an existing client, used in tests.
func NewTelegramWithBot(bot Bot) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) Send(ctx context.Context, sub *digest.Subscriber, items []selector.Selected, summary string) error {
	if sub.ChatID == 0 {
		return fmt.Errorf("subscriber %s has no chat id", sub.ID)
	}

	language := sub.Language
	if language == "" {
		language = translator.LanguageEnglish
	}
	text := FormatHTML(items, summary, language)

	for _, chunk := range splitMessage(text, telegramMessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(sub.ChatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("sending to chat %d: %w", sub.ChatID, err)
		}
	}
	return nil
}

// splitMessage breaks text on line boundaries so no chunk exceeds limit.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current []byte
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			line := text[start:i]
			start = i + 1
			if len(current)+len(line)+1 > limit && len(current) > 0 {
				chunks = append(chunks, string(current))
				current = current[:0]
			}
			if len(current) > 0 {
				current = append(current, '\n')
			}
			current = append(current, line...)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}
