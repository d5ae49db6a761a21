// Package botkit provides a framework for building Telegram bots on the
// HTTP Bot API.
//
// It covers the common bot development tasks:
//   - A typed API client with retries and flood wait handling
//   - Receiving updates by long polling or webhook
//   - Handler groups with filters, commands and typed parameter validation
//   - Multi-step conversations, with optional persistence
//   - Album (grouped media) handling
//   - Scheduled jobs and rate limited sending
//
// Basic usage:
//
//	bot, err := botkit.New(botkit.Config{
//	    Token: "123456:your-bot-token",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bot.OnChannelPost(channelID, func(c *botkit.Context) error {
//	    // Handle new channel post
//	    return nil
//	})
//
//	bot.Command("start", nil, func(c *botkit.Context) error {
//	    return c.Reply("Hello!")
//	})
//
//	if err := bot.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Ready-made filters live in the filters subpackage.
package botkit
