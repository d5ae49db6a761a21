package botkit

import (
	"errors"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Parse modes.
const (
	ParseModeHTML       = "HTML"
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
)

var deepLinkPayload = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// EscapeHTML escapes text for the HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// EscapeMarkdown escapes text for the Markdown (version 1) or MarkdownV2
// (version 2) parse mode. For version 2, entityType narrows the escaped set
// inside "pre", "code", "text_link" and "custom_emoji" entities.
func EscapeMarkdown(text string, version int, entityType string) string {
	var chars string
	switch {
	case version == 1:
		chars = "_*`["
	case entityType == EntityPre || entityType == EntityCode:
		chars = "\\`"
	case entityType == EntityTextLink || entityType == EntityCustomEmoji:
		chars = "\\)"
	default:
		chars = "\\_*[]()~`>#+-=|{}.!"
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(chars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MentionHTML returns an HTML link mentioning the user.
func MentionHTML(userID int64, name string) string {
	return `<a href="tg://user?id=` + strconv.FormatInt(userID, 10) + `">` + html.EscapeString(name) + `</a>`
}

// MentionMarkdown returns a Markdown (version 1) or MarkdownV2 link mentioning the user.
func MentionMarkdown(userID int64, name string, version int) string {
	link := "tg://user?id=" + strconv.FormatInt(userID, 10)
	if version == 2 {
		name = EscapeMarkdown(name, 2, "")
	}
	return "[" + name + "](" + link + ")"
}

// DeepLinkedURL builds a t.me link that starts the bot with payload.
// group selects the startgroup variant. An empty payload yields the plain bot link.
func DeepLinkedURL(botUsername, payload string, group bool) (string, error) {
	botUsername = strings.TrimPrefix(botUsername, "@")
	if len(botUsername) <= 3 {
		return "", errors.New("botkit: a valid bot username is required")
	}
	base := "https://t.me/" + botUsername
	if payload == "" {
		return base, nil
	}
	if len(payload) > 64 {
		return "", errors.New("botkit: deep-linking payload must not exceed 64 characters")
	}
	if !deepLinkPayload.MatchString(payload) {
		return "", errors.New("botkit: deep-linking payload may only contain A-Z, a-z, 0-9, _ and -")
	}
	key := "start"
	if group {
		key = "startgroup"
	}
	return base + "?" + key + "=" + payload, nil
}
