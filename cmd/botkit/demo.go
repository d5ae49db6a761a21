package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/en9inerd/botkit"
	"github.com/en9inerd/botkit/filters"
)

const (
	stateRating  botkit.State = "rating"
	stateComment botkit.State = "comment"
)

// registerDemo wires the demo handlers: commands, a feedback conversation,
// an echo handler and an hourly job.
func registerDemo(bot *botkit.Bot, cfg *fileConfig, logger *slog.Logger) error {
	bot.CommandWithDesc(botkit.CommandDef{Name: "start", Description: "Say hello"}, func(c *botkit.Context) error {
		data := c.UserData()
		visits, _ := data["visits"].(float64)
		data["visits"] = visits + 1

		name := "there"
		if m := c.Message(); m != nil && m.From != nil {
			name = botkit.EscapeHTML(m.From.FirstName)
		}
		return c.Reply(fmt.Sprintf("Hello, <b>%s</b>! Visit #%d.", name, int(visits)+1))
	})

	bot.CommandWithDesc(botkit.CommandDef{
		Name:        "remind",
		Description: "Remind me later",
		Params: botkit.Params{
			"in":   {Type: botkit.TypeInt, Required: true, Description: "seconds"},
			"text": {Type: botkit.TypeString, Default: "Reminder!"},
		},
	}, func(c *botkit.Context) error {
		after := time.Duration(c.Params().Int("in")) * time.Second
		text := c.Params().String("text")
		c.Bot().JobQueue().RunOnce(func(jc *botkit.Context) error {
			return jc.SendTo(jc.ChatID(), botkit.EscapeHTML(text))
		}, after, botkit.JobOptions{Name: "remind", ChatID: c.ChatID(), UserID: c.SenderID()})
		return c.Reply(fmt.Sprintf("I'll remind you in %s.", after))
	})

	bot.CommandWithDesc(botkit.CommandDef{
		Name:        "stats",
		Description: "Show feedback stats",
		Scope:       botkit.ScopeAllPrivate{},
	}, func(c *botkit.Context) error {
		shared := c.BotData()
		count, _ := shared["feedback_count"].(float64)
		total, _ := shared["rating_total"].(float64)
		if count == 0 {
			return c.Reply("No feedback yet.")
		}
		return c.Reply(fmt.Sprintf("%d ratings, average %.1f", int(count), total/count))
	})

	if len(cfg.Admins) > 0 {
		bot.LockedCommandFrom("broadcast", botkit.Params{
			"text": {Type: botkit.TypeString, Required: true},
		}, cfg.Admins, func(c *botkit.Context) error {
			return c.Reply("Broadcast queued: " + botkit.EscapeHTML(c.Params().String("text")))
		})
	}

	timeout := cfg.ConversationTimeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	// The echo shares the conversation's group, so replies to the
	// conversation are not echoed.
	bot.AddConversation(feedbackConversation(timeout), 1)
	bot.Dispatcher().AddHandler(&botkit.MessageHandler{
		Filter: filters.And(filters.Text, filters.ChatType(botkit.ChatTypePrivate)),
		Callback: func(c *botkit.Context) error {
			text := c.Text()
			return c.Queued(func(ctx context.Context) error {
				return c.Reply(botkit.EscapeHTML(strings.ToUpper(text)))
			})
		},
	}, 1)

	bot.OnAlbum(nil, func(c *botkit.Context) error {
		return c.Reply(fmt.Sprintf("Nice album of %d items.", len(c.Messages())))
	})

	bot.OnError(func(c *botkit.Context) error {
		logger.Error("handler failed", "chat_id", c.ChatID(), "error", c.HandlerErr)
		if c.Update() != nil && c.Message() != nil {
			return c.Reply("Error: " + botkit.EscapeHTML(c.HandlerErr.Error()))
		}
		return nil
	})

	_, err := bot.JobQueue().RunCron(func(c *botkit.Context) error {
		count, _ := c.BotData()["feedback_count"].(float64)
		logger.Info("hourly stats", "feedback_count", int(count))
		return nil
	}, "@hourly", botkit.JobOptions{Name: "stats"})
	return err
}

// feedbackConversation asks for a 1-5 rating and an optional comment.
func feedbackConversation(timeout time.Duration) *botkit.ConversationHandler {
	cancel := &botkit.CommandHandler{Commands: []string{"cancel"}, Callback: func(c *botkit.Context) error {
		c.EndConversation()
		return c.Reply("Cancelled.")
	}}

	return &botkit.ConversationHandler{
		Name:       "feedback",
		Persistent: true,
		Timeout:    timeout,
		EntryPoints: []botkit.Handler{
			&botkit.CommandHandler{
				Commands:    []string{"feedback"},
				Description: "Rate this bot",
				Callback: func(c *botkit.Context) error {
					c.Transition(stateRating)
					return c.Reply("How would you rate me, 1 to 5?")
				},
			},
		},
		States: map[botkit.State][]botkit.Handler{
			stateRating: {
				&botkit.MessageHandler{Filter: filters.Regex(`^([1-5])$`), Callback: func(c *botkit.Context) error {
					c.UserData()["rating"] = c.Matches[1]
					c.Transition(stateComment)
					return c.Reply("Thanks! Any comment? Send /skip to finish.")
				}},
				&botkit.MessageHandler{Filter: filters.Text, Callback: func(c *botkit.Context) error {
					return c.Reply("Please send a number from 1 to 5.")
				}},
			},
			stateComment: {
				&botkit.CommandHandler{Commands: []string{"skip"}, Callback: finishFeedback},
				&botkit.MessageHandler{Filter: filters.Text, Callback: finishFeedback},
			},
			botkit.TimeoutState: {
				&botkit.TypeHandler{
					Match: func(u *botkit.Update) bool { return u.EffectiveMessage() != nil },
					Callback: func(c *botkit.Context) error {
						return c.Send("Feedback timed out.")
					},
				},
			},
		},
		Fallbacks: []botkit.Handler{cancel},
	}
}

func finishFeedback(c *botkit.Context) error {
	rating := 0
	if r, ok := c.UserData()["rating"].(string); ok {
		rating = int(r[0] - '0')
	}

	shared := c.BotData()
	count, _ := shared["feedback_count"].(float64)
	total, _ := shared["rating_total"].(float64)
	shared["feedback_count"] = count + 1
	shared["rating_total"] = total + float64(rating)

	c.EndConversation()
	return c.Reply("Feedback saved.")
}
