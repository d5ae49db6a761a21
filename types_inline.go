package botkit

// InlineQuery is an incoming inline query.
type InlineQuery struct {
	ID       string    `json:"id"`
	From     User      `json:"from"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
	ChatType string    `json:"chat_type,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// Equal compares query IDs.
func (q *InlineQuery) Equal(o *InlineQuery) bool {
	return q != nil && o != nil && q.ID == o.ID
}

// ChosenInlineResult is an inline result chosen by a user.
type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            User      `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
}

// InlineQueryResultsButton is shown above inline query results.
type InlineQueryResultsButton struct {
	Text           string      `json:"text"`
	WebApp         *WebAppInfo `json:"web_app,omitempty"`
	StartParameter string      `json:"start_parameter,omitempty"`
}

// SentWebAppMessage is the result of answerWebAppQuery.
type SentWebAppMessage struct {
	InlineMessageID string `json:"inline_message_id,omitempty"`
}

// InputMessageContent is the content of a message sent as an inline result:
// InputTextMessageContent, InputLocationMessageContent,
// InputVenueMessageContent, InputContactMessageContent or
// InputInvoiceMessageContent.
type InputMessageContent interface {
	inputMessageContent()
}

// InputTextMessageContent is a text message.
type InputTextMessageContent struct {
	MessageText        string              `json:"message_text"`
	ParseMode          string              `json:"parse_mode,omitempty"`
	Entities           []MessageEntity     `json:"entities,omitempty"`
	LinkPreviewOptions *LinkPreviewOptions `json:"link_preview_options,omitempty"`
}

// InputLocationMessageContent is a location message.
type InputLocationMessageContent struct {
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	HorizontalAccuracy   float64 `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int     `json:"live_period,omitempty"`
	Heading              int     `json:"heading,omitempty"`
	ProximityAlertRadius int     `json:"proximity_alert_radius,omitempty"`
}

// InputVenueMessageContent is a venue message.
type InputVenueMessageContent struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Title           string  `json:"title"`
	Address         string  `json:"address"`
	FoursquareID    string  `json:"foursquare_id,omitempty"`
	FoursquareType  string  `json:"foursquare_type,omitempty"`
	GooglePlaceID   string  `json:"google_place_id,omitempty"`
	GooglePlaceType string  `json:"google_place_type,omitempty"`
}

// InputContactMessageContent is a contact message.
type InputContactMessageContent struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	VCard       string `json:"vcard,omitempty"`
}

// InputInvoiceMessageContent is an invoice message.
type InputInvoiceMessageContent struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Payload       string         `json:"payload"`
	ProviderToken string         `json:"provider_token"`
	Currency      string         `json:"currency"`
	Prices        []LabeledPrice `json:"prices"`
	NeedName      bool           `json:"need_name,omitempty"`
	NeedEmail     bool           `json:"need_email,omitempty"`
	IsFlexible    bool           `json:"is_flexible,omitempty"`
}

func (InputTextMessageContent) inputMessageContent()     {}
func (InputLocationMessageContent) inputMessageContent() {}
func (InputVenueMessageContent) inputMessageContent()    {}
func (InputContactMessageContent) inputMessageContent()  {}
func (InputInvoiceMessageContent) inputMessageContent()  {}

// InlineQueryResult is one result of an inline query. Every implementation
// encodes its "type" field itself.
type InlineQueryResult interface {
	ResultType() string
}

// InlineQueryResultArticle is a link to an article or web page.
type InlineQueryResultArticle struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	InputMessageContent InputMessageContent   `json:"input_message_content"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	URL                 string                `json:"url,omitempty"`
	HideURL             bool                  `json:"hide_url,omitempty"`
	Description         string                `json:"description,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url,omitempty"`
	ThumbnailWidth      int                   `json:"thumbnail_width,omitempty"`
	ThumbnailHeight     int                   `json:"thumbnail_height,omitempty"`
}

// InlineQueryResultPhoto is a link to a photo.
type InlineQueryResultPhoto struct {
	ID                  string                `json:"id"`
	PhotoURL            string                `json:"photo_url"`
	ThumbnailURL        string                `json:"thumbnail_url"`
	PhotoWidth          int                   `json:"photo_width,omitempty"`
	PhotoHeight         int                   `json:"photo_height,omitempty"`
	Title               string                `json:"title,omitempty"`
	Description         string                `json:"description,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultGif is a link to an animated GIF.
type InlineQueryResultGif struct {
	ID                  string                `json:"id"`
	GifURL              string                `json:"gif_url"`
	GifWidth            int                   `json:"gif_width,omitempty"`
	GifHeight           int                   `json:"gif_height,omitempty"`
	GifDuration         int                   `json:"gif_duration,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url"`
	ThumbnailMimeType   string                `json:"thumbnail_mime_type,omitempty"`
	Title               string                `json:"title,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultMpeg4Gif is a link to a video animation without sound.
type InlineQueryResultMpeg4Gif struct {
	ID                  string                `json:"id"`
	Mpeg4URL            string                `json:"mpeg4_url"`
	Mpeg4Width          int                   `json:"mpeg4_width,omitempty"`
	Mpeg4Height         int                   `json:"mpeg4_height,omitempty"`
	Mpeg4Duration       int                   `json:"mpeg4_duration,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url"`
	ThumbnailMimeType   string                `json:"thumbnail_mime_type,omitempty"`
	Title               string                `json:"title,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultVideo is a link to a video player or file.
type InlineQueryResultVideo struct {
	ID                  string                `json:"id"`
	VideoURL            string                `json:"video_url"`
	MimeType            string                `json:"mime_type"`
	ThumbnailURL        string                `json:"thumbnail_url"`
	Title               string                `json:"title"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	VideoWidth          int                   `json:"video_width,omitempty"`
	VideoHeight         int                   `json:"video_height,omitempty"`
	VideoDuration       int                   `json:"video_duration,omitempty"`
	Description         string                `json:"description,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultAudio is a link to an MP3 file.
type InlineQueryResultAudio struct {
	ID                  string                `json:"id"`
	AudioURL            string                `json:"audio_url"`
	Title               string                `json:"title"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	Performer           string                `json:"performer,omitempty"`
	AudioDuration       int                   `json:"audio_duration,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultVoice is a link to an OGG/OPUS voice recording.
type InlineQueryResultVoice struct {
	ID                  string                `json:"id"`
	VoiceURL            string                `json:"voice_url"`
	Title               string                `json:"title"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	VoiceDuration       int                   `json:"voice_duration,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultDocument is a link to a PDF or ZIP file.
type InlineQueryResultDocument struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	DocumentURL         string                `json:"document_url"`
	MimeType            string                `json:"mime_type"`
	Description         string                `json:"description,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url,omitempty"`
	ThumbnailWidth      int                   `json:"thumbnail_width,omitempty"`
	ThumbnailHeight     int                   `json:"thumbnail_height,omitempty"`
}

// InlineQueryResultLocation is a location on a map.
type InlineQueryResultLocation struct {
	ID                   string                `json:"id"`
	Latitude             float64               `json:"latitude"`
	Longitude            float64               `json:"longitude"`
	Title                string                `json:"title"`
	HorizontalAccuracy   float64               `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int                   `json:"live_period,omitempty"`
	Heading              int                   `json:"heading,omitempty"`
	ProximityAlertRadius int                   `json:"proximity_alert_radius,omitempty"`
	ReplyMarkup          *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent  InputMessageContent   `json:"input_message_content,omitempty"`
	ThumbnailURL         string                `json:"thumbnail_url,omitempty"`
	ThumbnailWidth       int                   `json:"thumbnail_width,omitempty"`
	ThumbnailHeight      int                   `json:"thumbnail_height,omitempty"`
}

// InlineQueryResultVenue is a venue.
type InlineQueryResultVenue struct {
	ID                  string                `json:"id"`
	Latitude            float64               `json:"latitude"`
	Longitude           float64               `json:"longitude"`
	Title               string                `json:"title"`
	Address             string                `json:"address"`
	FoursquareID        string                `json:"foursquare_id,omitempty"`
	FoursquareType      string                `json:"foursquare_type,omitempty"`
	GooglePlaceID       string                `json:"google_place_id,omitempty"`
	GooglePlaceType     string                `json:"google_place_type,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url,omitempty"`
	ThumbnailWidth      int                   `json:"thumbnail_width,omitempty"`
	ThumbnailHeight     int                   `json:"thumbnail_height,omitempty"`
}

// InlineQueryResultContact is a contact with a phone number.
type InlineQueryResultContact struct {
	ID                  string                `json:"id"`
	PhoneNumber         string                `json:"phone_number"`
	FirstName           string                `json:"first_name"`
	LastName            string                `json:"last_name,omitempty"`
	VCard               string                `json:"vcard,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
	ThumbnailURL        string                `json:"thumbnail_url,omitempty"`
	ThumbnailWidth      int                   `json:"thumbnail_width,omitempty"`
	ThumbnailHeight     int                   `json:"thumbnail_height,omitempty"`
}

// InlineQueryResultGame is a game.
type InlineQueryResultGame struct {
	ID            string                `json:"id"`
	GameShortName string                `json:"game_short_name"`
	ReplyMarkup   *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// InlineQueryResultCachedPhoto is a photo stored on Telegram servers.
type InlineQueryResultCachedPhoto struct {
	ID                  string                `json:"id"`
	PhotoFileID         string                `json:"photo_file_id"`
	Title               string                `json:"title,omitempty"`
	Description         string                `json:"description,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedGif is an animated GIF stored on Telegram servers.
type InlineQueryResultCachedGif struct {
	ID                  string                `json:"id"`
	GifFileID           string                `json:"gif_file_id"`
	Title               string                `json:"title,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedMpeg4Gif is a video animation stored on Telegram servers.
type InlineQueryResultCachedMpeg4Gif struct {
	ID                  string                `json:"id"`
	Mpeg4FileID         string                `json:"mpeg4_file_id"`
	Title               string                `json:"title,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedSticker is a sticker stored on Telegram servers.
type InlineQueryResultCachedSticker struct {
	ID                  string                `json:"id"`
	StickerFileID       string                `json:"sticker_file_id"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedDocument is a file stored on Telegram servers.
type InlineQueryResultCachedDocument struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	DocumentFileID      string                `json:"document_file_id"`
	Description         string                `json:"description,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedVideo is a video stored on Telegram servers.
type InlineQueryResultCachedVideo struct {
	ID                  string                `json:"id"`
	VideoFileID         string                `json:"video_file_id"`
	Title               string                `json:"title"`
	Description         string                `json:"description,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedVoice is a voice message stored on Telegram servers.
type InlineQueryResultCachedVoice struct {
	ID                  string                `json:"id"`
	VoiceFileID         string                `json:"voice_file_id"`
	Title               string                `json:"title"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

// InlineQueryResultCachedAudio is an MP3 file stored on Telegram servers.
type InlineQueryResultCachedAudio struct {
	ID                  string                `json:"id"`
	AudioFileID         string                `json:"audio_file_id"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent   `json:"input_message_content,omitempty"`
}

func (InlineQueryResultArticle) ResultType() string        { return "article" }
func (InlineQueryResultPhoto) ResultType() string          { return "photo" }
func (InlineQueryResultGif) ResultType() string            { return "gif" }
func (InlineQueryResultMpeg4Gif) ResultType() string       { return "mpeg4_gif" }
func (InlineQueryResultVideo) ResultType() string          { return "video" }
func (InlineQueryResultAudio) ResultType() string          { return "audio" }
func (InlineQueryResultVoice) ResultType() string          { return "voice" }
func (InlineQueryResultDocument) ResultType() string       { return "document" }
func (InlineQueryResultLocation) ResultType() string       { return "location" }
func (InlineQueryResultVenue) ResultType() string          { return "venue" }
func (InlineQueryResultContact) ResultType() string        { return "contact" }
func (InlineQueryResultGame) ResultType() string           { return "game" }
func (InlineQueryResultCachedPhoto) ResultType() string    { return "photo" }
func (InlineQueryResultCachedGif) ResultType() string      { return "gif" }
func (InlineQueryResultCachedMpeg4Gif) ResultType() string { return "mpeg4_gif" }
func (InlineQueryResultCachedSticker) ResultType() string  { return "sticker" }
func (InlineQueryResultCachedDocument) ResultType() string { return "document" }
func (InlineQueryResultCachedVideo) ResultType() string    { return "video" }
func (InlineQueryResultCachedVoice) ResultType() string    { return "voice" }
func (InlineQueryResultCachedAudio) ResultType() string    { return "audio" }

func (r InlineQueryResultArticle) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultArticle
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultPhoto) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultPhoto
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultGif) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultGif
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultMpeg4Gif) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultMpeg4Gif
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultVideo) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultVideo
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultAudio) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultAudio
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultVoice) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultVoice
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultDocument) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultDocument
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultLocation) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultLocation
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultVenue) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultVenue
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultContact) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultContact
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultGame) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultGame
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedPhoto) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedPhoto
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedGif) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedGif
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedMpeg4Gif) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedMpeg4Gif
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedSticker) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedSticker
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedDocument) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedDocument
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedVideo) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedVideo
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedVoice) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedVoice
	return marshalTagged("type", r.ResultType(), plain(r))
}

func (r InlineQueryResultCachedAudio) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultCachedAudio
	return marshalTagged("type", r.ResultType(), plain(r))
}
