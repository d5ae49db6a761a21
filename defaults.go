package botkit

import "encoding/json"

// Defaults are values applied to outgoing requests that leave the
// corresponding field unset. A Defaults value cannot force a field back to
// false; pass the field explicitly for that.
type Defaults struct {
	// ParseMode is used for text and captions, e.g. ParseModeHTML.
	ParseMode string

	// DisableNotification sends messages silently.
	DisableNotification bool

	// ProtectContent protects sent messages from forwarding and saving.
	ProtectContent bool

	// LinkPreviewDisabled disables link previews in text messages.
	LinkPreviewDisabled bool
}

// Methods accepting parse_mode.
var parseModeMethods = map[string]bool{
	"sendMessage":        true,
	"sendPhoto":          true,
	"sendAudio":          true,
	"sendDocument":       true,
	"sendVideo":          true,
	"sendAnimation":      true,
	"sendVoice":          true,
	"copyMessage":        true,
	"editMessageText":    true,
	"editMessageCaption": true,
}

// Methods accepting disable_notification and protect_content.
var sendMethods = map[string]bool{
	"sendMessage":     true,
	"forwardMessage":  true,
	"forwardMessages": true,
	"copyMessage":     true,
	"copyMessages":    true,
	"sendPhoto":       true,
	"sendAudio":       true,
	"sendDocument":    true,
	"sendVideo":       true,
	"sendAnimation":   true,
	"sendVoice":       true,
	"sendVideoNote":   true,
	"sendMediaGroup":  true,
	"sendLocation":    true,
	"sendVenue":       true,
	"sendContact":     true,
	"sendPoll":        true,
	"sendDice":        true,
	"sendSticker":     true,
	"sendInvoice":     true,
	"sendGame":        true,
}

// Methods accepting link_preview_options.
var linkPreviewMethods = map[string]bool{
	"sendMessage":     true,
	"editMessageText": true,
}

var jsonTrue = json.RawMessage("true")

func (d *Defaults) apply(method string, fields map[string]json.RawMessage) {
	if d == nil {
		return
	}
	setIfAbsent := func(key string, v json.RawMessage) {
		if _, ok := fields[key]; !ok {
			fields[key] = v
		}
	}

	if d.ParseMode != "" && parseModeMethods[method] {
		_, hasEntities := fields["entities"]
		_, hasCaptionEntities := fields["caption_entities"]
		if !hasEntities && !hasCaptionEntities {
			mode, _ := json.Marshal(d.ParseMode)
			setIfAbsent("parse_mode", mode)
		}
	}
	if d.DisableNotification && (sendMethods[method] || method == "pinChatMessage") {
		setIfAbsent("disable_notification", jsonTrue)
	}
	if d.ProtectContent && sendMethods[method] {
		setIfAbsent("protect_content", jsonTrue)
	}
	if d.LinkPreviewDisabled && linkPreviewMethods[method] {
		setIfAbsent("link_preview_options", json.RawMessage(`{"is_disabled":true}`))
	}
}
