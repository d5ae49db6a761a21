package botkit

import (
	"context"
	"fmt"
)

// BotInfo holds bot profile information.
type BotInfo struct {
	// Name is the bot's display name.
	Name string

	// ShortDescription is shown on the bot's profile page and in shared links.
	ShortDescription string

	// Description is the longer description shown in an empty chat with the bot.
	Description string

	// LangCode is the language code for this info.
	// Empty string means default language.
	LangCode string
}

// UpdateBotInfo updates the bot's profile information.
// Only non-empty fields that differ from the current values are sent.
func (b *Bot) UpdateBotInfo(ctx context.Context, info BotInfo) error {
	var changed []string

	if info.Name != "" {
		current, err := b.GetMyName(ctx, info.LangCode)
		if err != nil {
			return fmt.Errorf("failed to get bot name: %w", err)
		}
		if current.Name != info.Name {
			if err := b.SetMyName(ctx, info.Name, info.LangCode); err != nil {
				return fmt.Errorf("failed to set bot name: %w", err)
			}
			changed = append(changed, "name")
		}
	}

	if info.ShortDescription != "" {
		current, err := b.GetMyShortDescription(ctx, info.LangCode)
		if err != nil {
			return fmt.Errorf("failed to get bot short description: %w", err)
		}
		if current.ShortDescription != info.ShortDescription {
			if err := b.SetMyShortDescription(ctx, info.ShortDescription, info.LangCode); err != nil {
				return fmt.Errorf("failed to set bot short description: %w", err)
			}
			changed = append(changed, "short_description")
		}
	}

	if info.Description != "" {
		current, err := b.GetMyDescription(ctx, info.LangCode)
		if err != nil {
			return fmt.Errorf("failed to get bot description: %w", err)
		}
		if current.Description != info.Description {
			if err := b.SetMyDescription(ctx, info.Description, info.LangCode); err != nil {
				return fmt.Errorf("failed to set bot description: %w", err)
			}
			changed = append(changed, "description")
		}
	}

	if len(changed) == 0 {
		b.config.Logger.Debug("bot info unchanged, skipping update")
		return nil
	}

	b.config.Logger.Info("updated bot info",
		"fields", changed,
		"lang", info.LangCode)
	return nil
}
