package botkit

import (
	"strconv"
	"strings"
	"time"
)

// Message is a message in a chat.
type Message struct {
	MessageID            int                   `json:"message_id"`
	MessageThreadID      int                   `json:"message_thread_id,omitempty"`
	From                 *User                 `json:"from,omitempty"`
	SenderChat           *Chat                 `json:"sender_chat,omitempty"`
	Date                 int64                 `json:"date"`
	Chat                 Chat                  `json:"chat"`
	ForwardFrom          *User                 `json:"forward_from,omitempty"`
	ForwardFromChat      *Chat                 `json:"forward_from_chat,omitempty"`
	ForwardFromMessageID int                   `json:"forward_from_message_id,omitempty"`
	ForwardSignature     string                `json:"forward_signature,omitempty"`
	ForwardSenderName    string                `json:"forward_sender_name,omitempty"`
	ForwardDate          int64                 `json:"forward_date,omitempty"`
	IsTopicMessage       bool                  `json:"is_topic_message,omitempty"`
	IsAutomaticForward   bool                  `json:"is_automatic_forward,omitempty"`
	ReplyToMessage       *Message              `json:"reply_to_message,omitempty"`
	ViaBot               *User                 `json:"via_bot,omitempty"`
	EditDate             int64                 `json:"edit_date,omitempty"`
	HasProtectedContent  bool                  `json:"has_protected_content,omitempty"`
	MediaGroupID         string                `json:"media_group_id,omitempty"`
	AuthorSignature      string                `json:"author_signature,omitempty"`
	Text                 string                `json:"text,omitempty"`
	Entities             []MessageEntity       `json:"entities,omitempty"`
	Animation            *Animation            `json:"animation,omitempty"`
	Audio                *Audio                `json:"audio,omitempty"`
	Document             *Document             `json:"document,omitempty"`
	Photo                []PhotoSize           `json:"photo,omitempty"`
	Sticker              *Sticker              `json:"sticker,omitempty"`
	Video                *Video                `json:"video,omitempty"`
	VideoNote            *VideoNote            `json:"video_note,omitempty"`
	Voice                *Voice                `json:"voice,omitempty"`
	Caption              string                `json:"caption,omitempty"`
	CaptionEntities      []MessageEntity       `json:"caption_entities,omitempty"`
	HasMediaSpoiler      bool                  `json:"has_media_spoiler,omitempty"`
	Contact              *Contact              `json:"contact,omitempty"`
	Dice                 *Dice                 `json:"dice,omitempty"`
	Game                 *Game                 `json:"game,omitempty"`
	Poll                 *Poll                 `json:"poll,omitempty"`
	Venue                *Venue                `json:"venue,omitempty"`
	Location             *Location             `json:"location,omitempty"`
	Invoice              *Invoice              `json:"invoice,omitempty"`
	SuccessfulPayment    *SuccessfulPayment    `json:"successful_payment,omitempty"`
	ReplyMarkup          *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	WebAppData           *WebAppData           `json:"web_app_data,omitempty"`

	// Service messages.
	NewChatMembers                []User                         `json:"new_chat_members,omitempty"`
	LeftChatMember                *User                          `json:"left_chat_member,omitempty"`
	NewChatTitle                  string                         `json:"new_chat_title,omitempty"`
	NewChatPhoto                  []PhotoSize                    `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto               bool                           `json:"delete_chat_photo,omitempty"`
	GroupChatCreated              bool                           `json:"group_chat_created,omitempty"`
	SupergroupChatCreated         bool                           `json:"supergroup_chat_created,omitempty"`
	ChannelChatCreated            bool                           `json:"channel_chat_created,omitempty"`
	MessageAutoDeleteTimerChanged *MessageAutoDeleteTimerChanged `json:"message_auto_delete_timer_changed,omitempty"`
	MigrateToChatID               int64                          `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID             int64                          `json:"migrate_from_chat_id,omitempty"`
	PinnedMessage                 *Message                       `json:"pinned_message,omitempty"`
	ConnectedWebsite              string                         `json:"connected_website,omitempty"`
	ProximityAlertTriggered       *ProximityAlertTriggered       `json:"proximity_alert_triggered,omitempty"`
	ForumTopicCreated             *ForumTopicCreated             `json:"forum_topic_created,omitempty"`
	VideoChatScheduled            *VideoChatScheduled            `json:"video_chat_scheduled,omitempty"`
	VideoChatStarted              *struct{}                      `json:"video_chat_started,omitempty"`
	VideoChatEnded                *VideoChatEnded                `json:"video_chat_ended,omitempty"`
	VideoChatParticipantsInvited  *VideoChatParticipantsInvited  `json:"video_chat_participants_invited,omitempty"`
}

// Equal reports whether both values are the same message in the same chat.
func (m *Message) Equal(o *Message) bool {
	return m != nil && o != nil && m.MessageID == o.MessageID && m.Chat.ID == o.Chat.ID
}

// Time returns the send date.
func (m *Message) Time() time.Time { return time.Unix(m.Date, 0) }

// EditTime returns the last edit date, or the zero time.
func (m *Message) EditTime() time.Time {
	if m.EditDate == 0 {
		return time.Time{}
	}
	return time.Unix(m.EditDate, 0)
}

// Link returns a t.me link to the message. Only supergroups and channels
// have message links.
func (m *Message) Link() string {
	if m.Chat.Type != ChatTypeSupergroup && m.Chat.Type != ChatTypeChannel {
		return ""
	}
	if m.Chat.Username != "" {
		return "https://t.me/" + m.Chat.Username + "/" + strconv.Itoa(m.MessageID)
	}
	// -100xxxxxxxxxx -> xxxxxxxxxx
	id := strings.TrimPrefix(strconv.FormatInt(m.Chat.ID, 10), "-100")
	return "https://t.me/c/" + id + "/" + strconv.Itoa(m.MessageID)
}

// IsCommand reports whether the message starts with a bot command.
func (m *Message) IsCommand() bool {
	return len(m.Entities) > 0 && m.Entities[0].Type == EntityBotCommand && m.Entities[0].Offset == 0
}

// Command splits a leading bot command into its name (without "/"), the
// optional @mention and the remaining argument text.
func (m *Message) Command() (name, mention, args string) {
	if !m.IsCommand() {
		return "", "", ""
	}
	end := utf16Offset(m.Text, m.Entities[0].Length)
	cmd := strings.TrimPrefix(m.Text[:end], "/")
	name, mention, _ = strings.Cut(cmd, "@")
	return name, mention, strings.TrimSpace(m.Text[end:])
}

// IsForwarded reports whether the message was forwarded.
func (m *Message) IsForwarded() bool {
	return m.ForwardDate != 0
}

// IsStatusUpdate reports whether the message is a service message.
func (m *Message) IsStatusUpdate() bool {
	return len(m.NewChatMembers) > 0 || m.LeftChatMember != nil || m.NewChatTitle != "" ||
		len(m.NewChatPhoto) > 0 || m.DeleteChatPhoto || m.GroupChatCreated ||
		m.SupergroupChatCreated || m.ChannelChatCreated || m.MessageAutoDeleteTimerChanged != nil ||
		m.MigrateToChatID != 0 || m.MigrateFromChatID != 0 || m.PinnedMessage != nil ||
		m.ConnectedWebsite != "" || m.ProximityAlertTriggered != nil || m.ForumTopicCreated != nil ||
		m.VideoChatScheduled != nil || m.VideoChatStarted != nil || m.VideoChatEnded != nil ||
		m.VideoChatParticipantsInvited != nil || m.WebAppData != nil
}

// Entity types.
const (
	EntityMention       = "mention"
	EntityHashtag       = "hashtag"
	EntityCashtag       = "cashtag"
	EntityBotCommand    = "bot_command"
	EntityURL           = "url"
	EntityEmail         = "email"
	EntityPhoneNumber   = "phone_number"
	EntityBold          = "bold"
	EntityItalic        = "italic"
	EntityUnderline     = "underline"
	EntityStrikethrough = "strikethrough"
	EntitySpoiler       = "spoiler"
	EntityBlockquote    = "blockquote"
	EntityExpandable    = "expandable_blockquote"
	EntityCode          = "code"
	EntityPre           = "pre"
	EntityTextLink      = "text_link"
	EntityTextMention   = "text_mention"
	EntityCustomEmoji   = "custom_emoji"
)

// MessageEntity is a special part of a message text. Offset and Length count
// UTF-16 code units.
type MessageEntity struct {
	Type          string `json:"type"`
	Offset        int    `json:"offset"`
	Length        int    `json:"length"`
	URL           string `json:"url,omitempty"`
	User          *User  `json:"user,omitempty"`
	Language      string `json:"language,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// Equal compares type, offset and length.
func (e MessageEntity) Equal(o MessageEntity) bool {
	return e.Type == o.Type && e.Offset == o.Offset && e.Length == o.Length
}

// MessageID is the result of copyMessage.
type MessageID struct {
	MessageID int `json:"message_id"`
}

// Contact is a phone contact.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	VCard       string `json:"vcard,omitempty"`
}

// Dice emoji.
const (
	DiceCube        = "🎲"
	DiceDarts       = "🎯"
	DiceBasketball  = "🏀"
	DiceFootball    = "⚽"
	DiceSlotMachine = "🎰"
	DiceBowling     = "🎳"
)

// Dice is an animated emoji with a random value.
type Dice struct {
	Emoji string `json:"emoji"`
	Value int    `json:"value"`
}

// Location is a point on the map.
type Location struct {
	Longitude            float64 `json:"longitude"`
	Latitude             float64 `json:"latitude"`
	HorizontalAccuracy   float64 `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int     `json:"live_period,omitempty"`
	Heading              int     `json:"heading,omitempty"`
	ProximityAlertRadius int     `json:"proximity_alert_radius,omitempty"`
}

// Venue is a named location.
type Venue struct {
	Location        Location `json:"location"`
	Title           string   `json:"title"`
	Address         string   `json:"address"`
	FoursquareID    string   `json:"foursquare_id,omitempty"`
	FoursquareType  string   `json:"foursquare_type,omitempty"`
	GooglePlaceID   string   `json:"google_place_id,omitempty"`
	GooglePlaceType string   `json:"google_place_type,omitempty"`
}

// Poll types.
const (
	PollRegular = "regular"
	PollQuiz    = "quiz"
)

// PollOption is one answer option in a poll.
type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

// Poll is a native poll.
type Poll struct {
	ID                    string          `json:"id"`
	Question              string          `json:"question"`
	Options               []PollOption    `json:"options"`
	TotalVoterCount       int             `json:"total_voter_count"`
	IsClosed              bool            `json:"is_closed"`
	IsAnonymous           bool            `json:"is_anonymous"`
	Type                  string          `json:"type"`
	AllowsMultipleAnswers bool            `json:"allows_multiple_answers"`
	CorrectOptionID       *int            `json:"correct_option_id,omitempty"`
	Explanation           string          `json:"explanation,omitempty"`
	ExplanationEntities   []MessageEntity `json:"explanation_entities,omitempty"`
	OpenPeriod            int             `json:"open_period,omitempty"`
	CloseDate             int64           `json:"close_date,omitempty"`
}

// Equal compares poll IDs.
func (p *Poll) Equal(o *Poll) bool {
	return p != nil && o != nil && p.ID == o.ID
}

// PollAnswer is a user's answer in a non-anonymous poll.
type PollAnswer struct {
	PollID    string `json:"poll_id"`
	VoterChat *Chat  `json:"voter_chat,omitempty"`
	User      *User  `json:"user,omitempty"`
	OptionIDs []int  `json:"option_ids"`
}

// CallbackQuery is an incoming callback from an inline keyboard button.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            User     `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
	GameShortName   string   `json:"game_short_name,omitempty"`
}

// Equal compares query IDs.
func (q *CallbackQuery) Equal(o *CallbackQuery) bool {
	return q != nil && o != nil && q.ID == o.ID
}

// MessageAutoDeleteTimerChanged is a service message about auto-delete settings.
type MessageAutoDeleteTimerChanged struct {
	MessageAutoDeleteTime int `json:"message_auto_delete_time"`
}

// ProximityAlertTriggered is a service message about a proximity alert.
type ProximityAlertTriggered struct {
	Traveler User `json:"traveler"`
	Watcher  User `json:"watcher"`
	Distance int  `json:"distance"`
}

// WebAppData carries data sent from a Web App.
type WebAppData struct {
	Data       string `json:"data"`
	ButtonText string `json:"button_text"`
}

// ForumTopicCreated is a service message about a new forum topic.
type ForumTopicCreated struct {
	Name              string `json:"name"`
	IconColor         int    `json:"icon_color"`
	IconCustomEmojiID string `json:"icon_custom_emoji_id,omitempty"`
}

// VideoChatScheduled is a service message about a scheduled video chat.
type VideoChatScheduled struct {
	StartDate int64 `json:"start_date"`
}

// VideoChatEnded is a service message about an ended video chat.
type VideoChatEnded struct {
	Duration int `json:"duration"`
}

// VideoChatParticipantsInvited is a service message about invited participants.
type VideoChatParticipantsInvited struct {
	Users []User `json:"users"`
}
