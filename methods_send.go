package botkit

import "context"

// ReplyParameters describes the message to reply to.
type ReplyParameters struct {
	MessageID                int    `json:"message_id"`
	ChatID                   ChatID `json:"chat_id,omitzero"`
	AllowSendingWithoutReply bool   `json:"allow_sending_without_reply,omitempty"`
	Quote                    string `json:"quote,omitempty"`
}

// ReplyTo is shorthand for replying to messageID in the same chat.
func ReplyTo(messageID int) *ReplyParameters {
	return &ReplyParameters{MessageID: messageID, AllowSendingWithoutReply: true}
}

// SendMessageParams are the parameters of sendMessage.
type SendMessageParams struct {
	ChatID              ChatID              `json:"chat_id"`
	MessageThreadID     int                 `json:"message_thread_id,omitempty"`
	Text                string              `json:"text"`
	ParseMode           string              `json:"parse_mode,omitempty"`
	Entities            []MessageEntity     `json:"entities,omitempty"`
	LinkPreviewOptions  *LinkPreviewOptions `json:"link_preview_options,omitempty"`
	DisableNotification bool                `json:"disable_notification,omitempty"`
	ProtectContent      bool                `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters    `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup         `json:"reply_markup,omitempty"`
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, p *SendMessageParams) (*Message, error) {
	return call[*Message](ctx, c, "sendMessage", p)
}

// ForwardMessageParams are the parameters of forwardMessage.
type ForwardMessageParams struct {
	ChatID              ChatID `json:"chat_id"`
	MessageThreadID     int    `json:"message_thread_id,omitempty"`
	FromChatID          ChatID `json:"from_chat_id"`
	MessageID           int    `json:"message_id"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ProtectContent      bool   `json:"protect_content,omitempty"`
}

// ForwardMessage forwards a message of any kind.
func (c *Client) ForwardMessage(ctx context.Context, p *ForwardMessageParams) (*Message, error) {
	return call[*Message](ctx, c, "forwardMessage", p)
}

// ForwardMessagesParams are the parameters of forwardMessages.
type ForwardMessagesParams struct {
	ChatID              ChatID `json:"chat_id"`
	MessageThreadID     int    `json:"message_thread_id,omitempty"`
	FromChatID          ChatID `json:"from_chat_id"`
	MessageIDs          []int  `json:"message_ids"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ProtectContent      bool   `json:"protect_content,omitempty"`
}

// ForwardMessages forwards several messages, keeping albums grouped.
func (c *Client) ForwardMessages(ctx context.Context, p *ForwardMessagesParams) ([]MessageID, error) {
	return call[[]MessageID](ctx, c, "forwardMessages", p)
}

// CopyMessageParams are the parameters of copyMessage.
type CopyMessageParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	FromChatID          ChatID           `json:"from_chat_id"`
	MessageID           int              `json:"message_id"`
	Caption             *string          `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

// CopyMessage copies a message without a link to the original.
func (c *Client) CopyMessage(ctx context.Context, p *CopyMessageParams) (*MessageID, error) {
	return call[*MessageID](ctx, c, "copyMessage", p)
}

// CopyMessagesParams are the parameters of copyMessages.
type CopyMessagesParams struct {
	ChatID              ChatID `json:"chat_id"`
	MessageThreadID     int    `json:"message_thread_id,omitempty"`
	FromChatID          ChatID `json:"from_chat_id"`
	MessageIDs          []int  `json:"message_ids"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ProtectContent      bool   `json:"protect_content,omitempty"`
	RemoveCaption       bool   `json:"remove_caption,omitempty"`
}

// CopyMessages copies several messages.
func (c *Client) CopyMessages(ctx context.Context, p *CopyMessagesParams) ([]MessageID, error) {
	return call[[]MessageID](ctx, c, "copyMessages", p)
}

// SendPhotoParams are the parameters of sendPhoto.
type SendPhotoParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Photo               *InputFile       `json:"photo"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	HasSpoiler          bool             `json:"has_spoiler,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendPhotoParams) uploads() []upload { return fileField("photo", p.Photo) }

// SendPhoto sends a photo.
func (c *Client) SendPhoto(ctx context.Context, p *SendPhotoParams) (*Message, error) {
	return call[*Message](ctx, c, "sendPhoto", p)
}

// SendAudioParams are the parameters of sendAudio.
type SendAudioParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Audio               *InputFile       `json:"audio"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	Duration            int              `json:"duration,omitempty"`
	Performer           string           `json:"performer,omitempty"`
	Title               string           `json:"title,omitempty"`
	Thumbnail           *InputFile       `json:"thumbnail,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendAudioParams) uploads() []upload {
	return append(fileField("audio", p.Audio), fileField("thumbnail", p.Thumbnail)...)
}

// SendAudio sends an audio file to be shown in the music player.
func (c *Client) SendAudio(ctx context.Context, p *SendAudioParams) (*Message, error) {
	return call[*Message](ctx, c, "sendAudio", p)
}

// SendDocumentParams are the parameters of sendDocument.
type SendDocumentParams struct {
	ChatID                      ChatID           `json:"chat_id"`
	MessageThreadID             int              `json:"message_thread_id,omitempty"`
	Document                    *InputFile       `json:"document"`
	Thumbnail                   *InputFile       `json:"thumbnail,omitempty"`
	Caption                     string           `json:"caption,omitempty"`
	ParseMode                   string           `json:"parse_mode,omitempty"`
	CaptionEntities             []MessageEntity  `json:"caption_entities,omitempty"`
	DisableContentTypeDetection bool             `json:"disable_content_type_detection,omitempty"`
	DisableNotification         bool             `json:"disable_notification,omitempty"`
	ProtectContent              bool             `json:"protect_content,omitempty"`
	ReplyParameters             *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup                 ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendDocumentParams) uploads() []upload {
	return append(fileField("document", p.Document), fileField("thumbnail", p.Thumbnail)...)
}

// SendDocument sends a general file.
func (c *Client) SendDocument(ctx context.Context, p *SendDocumentParams) (*Message, error) {
	return call[*Message](ctx, c, "sendDocument", p)
}

// SendVideoParams are the parameters of sendVideo.
type SendVideoParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Video               *InputFile       `json:"video"`
	Duration            int              `json:"duration,omitempty"`
	Width               int              `json:"width,omitempty"`
	Height              int              `json:"height,omitempty"`
	Thumbnail           *InputFile       `json:"thumbnail,omitempty"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	HasSpoiler          bool             `json:"has_spoiler,omitempty"`
	SupportsStreaming   bool             `json:"supports_streaming,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendVideoParams) uploads() []upload {
	return append(fileField("video", p.Video), fileField("thumbnail", p.Thumbnail)...)
}

// SendVideo sends a video.
func (c *Client) SendVideo(ctx context.Context, p *SendVideoParams) (*Message, error) {
	return call[*Message](ctx, c, "sendVideo", p)
}

// SendAnimationParams are the parameters of sendAnimation.
type SendAnimationParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Animation           *InputFile       `json:"animation"`
	Duration            int              `json:"duration,omitempty"`
	Width               int              `json:"width,omitempty"`
	Height              int              `json:"height,omitempty"`
	Thumbnail           *InputFile       `json:"thumbnail,omitempty"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	HasSpoiler          bool             `json:"has_spoiler,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendAnimationParams) uploads() []upload {
	return append(fileField("animation", p.Animation), fileField("thumbnail", p.Thumbnail)...)
}

// SendAnimation sends a GIF or a soundless video.
func (c *Client) SendAnimation(ctx context.Context, p *SendAnimationParams) (*Message, error) {
	return call[*Message](ctx, c, "sendAnimation", p)
}

// SendVoiceParams are the parameters of sendVoice.
type SendVoiceParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Voice               *InputFile       `json:"voice"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity  `json:"caption_entities,omitempty"`
	Duration            int              `json:"duration,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendVoiceParams) uploads() []upload { return fileField("voice", p.Voice) }

// SendVoice sends a voice note.
func (c *Client) SendVoice(ctx context.Context, p *SendVoiceParams) (*Message, error) {
	return call[*Message](ctx, c, "sendVoice", p)
}

// SendVideoNoteParams are the parameters of sendVideoNote.
type SendVideoNoteParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	VideoNote           *InputFile       `json:"video_note"`
	Duration            int              `json:"duration,omitempty"`
	Length              int              `json:"length,omitempty"`
	Thumbnail           *InputFile       `json:"thumbnail,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendVideoNoteParams) uploads() []upload {
	return append(fileField("video_note", p.VideoNote), fileField("thumbnail", p.Thumbnail)...)
}

// SendVideoNote sends a round video message.
func (c *Client) SendVideoNote(ctx context.Context, p *SendVideoNoteParams) (*Message, error) {
	return call[*Message](ctx, c, "sendVideoNote", p)
}

// SendMediaGroupParams are the parameters of sendMediaGroup.
type SendMediaGroupParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Media               []InputMedia     `json:"media"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
}

func (p *SendMediaGroupParams) uploads() []upload { return mediaUploads(p.Media...) }

// SendMediaGroup sends 2-10 photos, videos, documents or audios as an album.
func (c *Client) SendMediaGroup(ctx context.Context, p *SendMediaGroupParams) ([]Message, error) {
	return call[[]Message](ctx, c, "sendMediaGroup", p)
}

// SendLocationParams are the parameters of sendLocation.
type SendLocationParams struct {
	ChatID               ChatID           `json:"chat_id"`
	MessageThreadID      int              `json:"message_thread_id,omitempty"`
	Latitude             float64          `json:"latitude"`
	Longitude            float64          `json:"longitude"`
	HorizontalAccuracy   float64          `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int              `json:"live_period,omitempty"`
	Heading              int              `json:"heading,omitempty"`
	ProximityAlertRadius int              `json:"proximity_alert_radius,omitempty"`
	DisableNotification  bool             `json:"disable_notification,omitempty"`
	ProtectContent       bool             `json:"protect_content,omitempty"`
	ReplyParameters      *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup          ReplyMarkup      `json:"reply_markup,omitempty"`
}

// SendLocation sends a point on the map.
func (c *Client) SendLocation(ctx context.Context, p *SendLocationParams) (*Message, error) {
	return call[*Message](ctx, c, "sendLocation", p)
}

// SendVenueParams are the parameters of sendVenue.
type SendVenueParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Latitude            float64          `json:"latitude"`
	Longitude           float64          `json:"longitude"`
	Title               string           `json:"title"`
	Address             string           `json:"address"`
	FoursquareID        string           `json:"foursquare_id,omitempty"`
	FoursquareType      string           `json:"foursquare_type,omitempty"`
	GooglePlaceID       string           `json:"google_place_id,omitempty"`
	GooglePlaceType     string           `json:"google_place_type,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

// SendVenue sends information about a venue.
func (c *Client) SendVenue(ctx context.Context, p *SendVenueParams) (*Message, error) {
	return call[*Message](ctx, c, "sendVenue", p)
}

// SendContactParams are the parameters of sendContact.
type SendContactParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	PhoneNumber         string           `json:"phone_number"`
	FirstName           string           `json:"first_name"`
	LastName            string           `json:"last_name,omitempty"`
	VCard               string           `json:"vcard,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

// SendContact sends a phone contact.
func (c *Client) SendContact(ctx context.Context, p *SendContactParams) (*Message, error) {
	return call[*Message](ctx, c, "sendContact", p)
}

// SendPollParams are the parameters of sendPoll.
type SendPollParams struct {
	ChatID                ChatID           `json:"chat_id"`
	MessageThreadID       int              `json:"message_thread_id,omitempty"`
	Question              string           `json:"question"`
	Options               []string         `json:"options"`
	IsAnonymous           *bool            `json:"is_anonymous,omitempty"`
	Type                  string           `json:"type,omitempty"`
	AllowsMultipleAnswers bool             `json:"allows_multiple_answers,omitempty"`
	CorrectOptionID       *int             `json:"correct_option_id,omitempty"`
	Explanation           string           `json:"explanation,omitempty"`
	ExplanationParseMode  string           `json:"explanation_parse_mode,omitempty"`
	ExplanationEntities   []MessageEntity  `json:"explanation_entities,omitempty"`
	OpenPeriod            int              `json:"open_period,omitempty"`
	CloseDate             int64            `json:"close_date,omitempty"`
	IsClosed              bool             `json:"is_closed,omitempty"`
	DisableNotification   bool             `json:"disable_notification,omitempty"`
	ProtectContent        bool             `json:"protect_content,omitempty"`
	ReplyParameters       *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup           ReplyMarkup      `json:"reply_markup,omitempty"`
}

// SendPoll sends a native poll.
func (c *Client) SendPoll(ctx context.Context, p *SendPollParams) (*Message, error) {
	return call[*Message](ctx, c, "sendPoll", p)
}

// SendDiceParams are the parameters of sendDice.
type SendDiceParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Emoji               string           `json:"emoji,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

// SendDice sends an animated emoji with a random value.
func (c *Client) SendDice(ctx context.Context, p *SendDiceParams) (*Message, error) {
	return call[*Message](ctx, c, "sendDice", p)
}

// Chat actions.
const (
	ActionTyping          = "typing"
	ActionUploadPhoto     = "upload_photo"
	ActionRecordVideo     = "record_video"
	ActionUploadVideo     = "upload_video"
	ActionRecordVoice     = "record_voice"
	ActionUploadVoice     = "upload_voice"
	ActionUploadDocument  = "upload_document"
	ActionChooseSticker   = "choose_sticker"
	ActionFindLocation    = "find_location"
	ActionRecordVideoNote = "record_video_note"
	ActionUploadVideoNote = "upload_video_note"
)

// SendChatAction shows a status such as "typing" for up to five seconds.
func (c *Client) SendChatAction(ctx context.Context, chatID ChatID, action string) error {
	_, err := call[bool](ctx, c, "sendChatAction", map[string]any{"chat_id": chatID, "action": action})
	return err
}

// EditMessageLiveLocationParams are the parameters of editMessageLiveLocation.
type EditMessageLiveLocationParams struct {
	ChatID               ChatID                `json:"chat_id,omitzero"`
	MessageID            int                   `json:"message_id,omitempty"`
	InlineMessageID      string                `json:"inline_message_id,omitempty"`
	Latitude             float64               `json:"latitude"`
	Longitude            float64               `json:"longitude"`
	HorizontalAccuracy   float64               `json:"horizontal_accuracy,omitempty"`
	Heading              int                   `json:"heading,omitempty"`
	ProximityAlertRadius int                   `json:"proximity_alert_radius,omitempty"`
	ReplyMarkup          *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageLiveLocation moves a live location. For inline messages the
// returned message is nil.
func (c *Client) EditMessageLiveLocation(ctx context.Context, p *EditMessageLiveLocationParams) (*Message, error) {
	return callEdit(ctx, c, "editMessageLiveLocation", p)
}

// StopMessageLiveLocationParams are the parameters of stopMessageLiveLocation.
type StopMessageLiveLocationParams struct {
	ChatID          ChatID                `json:"chat_id,omitzero"`
	MessageID       int                   `json:"message_id,omitempty"`
	InlineMessageID string                `json:"inline_message_id,omitempty"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// StopMessageLiveLocation stops updating a live location.
func (c *Client) StopMessageLiveLocation(ctx context.Context, p *StopMessageLiveLocationParams) (*Message, error) {
	return callEdit(ctx, c, "stopMessageLiveLocation", p)
}

// SendStickerParams are the parameters of sendSticker.
type SendStickerParams struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int              `json:"message_thread_id,omitempty"`
	Sticker             *InputFile       `json:"sticker"`
	Emoji               string           `json:"emoji,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ProtectContent      bool             `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         ReplyMarkup      `json:"reply_markup,omitempty"`
}

func (p *SendStickerParams) uploads() []upload { return fileField("sticker", p.Sticker) }

// SendSticker sends a static, animated or video sticker.
func (c *Client) SendSticker(ctx context.Context, p *SendStickerParams) (*Message, error) {
	return call[*Message](ctx, c, "sendSticker", p)
}

// GetStickerSet returns a sticker set by name.
func (c *Client) GetStickerSet(ctx context.Context, name string) (*StickerSet, error) {
	return call[*StickerSet](ctx, c, "getStickerSet", map[string]string{"name": name})
}
