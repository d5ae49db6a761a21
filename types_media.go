package botkit

// PhotoSize is one size of a photo or thumbnail.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Equal compares unique file IDs.
func (p *PhotoSize) Equal(o *PhotoSize) bool {
	return p != nil && o != nil && p.FileUniqueID == o.FileUniqueID
}

// Animation is a GIF or H.264/MPEG-4 AVC video without sound.
type Animation struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Duration     int        `json:"duration"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Audio is a music file.
type Audio struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Duration     int        `json:"duration"`
	Performer    string     `json:"performer,omitempty"`
	Title        string     `json:"title,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
}

// Document is a general file.
type Document struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Video is a video file.
type Video struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Duration     int        `json:"duration"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// VideoNote is a round video message.
type VideoNote struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Length       int        `json:"length"`
	Duration     int        `json:"duration"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Voice is a voice note.
type Voice struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Duration     int    `json:"duration"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Sticker is a sticker.
type Sticker struct {
	FileID           string        `json:"file_id"`
	FileUniqueID     string        `json:"file_unique_id"`
	Type             string        `json:"type"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	IsAnimated       bool          `json:"is_animated"`
	IsVideo          bool          `json:"is_video"`
	Thumbnail        *PhotoSize    `json:"thumbnail,omitempty"`
	Emoji            string        `json:"emoji,omitempty"`
	SetName          string        `json:"set_name,omitempty"`
	PremiumAnimation *File         `json:"premium_animation,omitempty"`
	MaskPosition     *MaskPosition `json:"mask_position,omitempty"`
	CustomEmojiID    string        `json:"custom_emoji_id,omitempty"`
	NeedsRepainting  bool          `json:"needs_repainting,omitempty"`
	FileSize         int64         `json:"file_size,omitempty"`
}

// StickerSet is a set of stickers.
type StickerSet struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	StickerType string     `json:"sticker_type"`
	Stickers    []Sticker  `json:"stickers"`
	Thumbnail   *PhotoSize `json:"thumbnail,omitempty"`
}

// MaskPosition is the position of a mask on a face.
type MaskPosition struct {
	Point  string  `json:"point"`
	XShift float64 `json:"x_shift"`
	YShift float64 `json:"y_shift"`
	Scale  float64 `json:"scale"`
}

// File is a file ready to be downloaded with Client.DownloadFile.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// UserProfilePhotos is a page of a user's profile pictures.
type UserProfilePhotos struct {
	TotalCount int           `json:"total_count"`
	Photos     [][]PhotoSize `json:"photos"`
}

// Equal compares unique file IDs.
func (a *Animation) Equal(o *Animation) bool {
	return a != nil && o != nil && a.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (a *Audio) Equal(o *Audio) bool {
	return a != nil && o != nil && a.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (d *Document) Equal(o *Document) bool {
	return d != nil && o != nil && d.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (v *Video) Equal(o *Video) bool {
	return v != nil && o != nil && v.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (v *VideoNote) Equal(o *VideoNote) bool {
	return v != nil && o != nil && v.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (v *Voice) Equal(o *Voice) bool {
	return v != nil && o != nil && v.FileUniqueID == o.FileUniqueID
}

// Equal compares unique file IDs.
func (s *Sticker) Equal(o *Sticker) bool {
	return s != nil && o != nil && s.FileUniqueID == o.FileUniqueID
}

// InputMedia is content of a media message to be sent: InputMediaPhoto,
// InputMediaVideo, InputMediaAnimation, InputMediaAudio or InputMediaDocument.
type InputMedia interface {
	mediaType() string
	files() []*InputFile
}

// InputMediaPhoto is a photo to send.
type InputMediaPhoto struct {
	Media           *InputFile      `json:"media"`
	Caption         string          `json:"caption,omitempty"`
	ParseMode       string          `json:"parse_mode,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	HasSpoiler      bool            `json:"has_spoiler,omitempty"`
}

// InputMediaVideo is a video to send.
type InputMediaVideo struct {
	Media             *InputFile      `json:"media"`
	Thumbnail         *InputFile      `json:"thumbnail,omitempty"`
	Caption           string          `json:"caption,omitempty"`
	ParseMode         string          `json:"parse_mode,omitempty"`
	CaptionEntities   []MessageEntity `json:"caption_entities,omitempty"`
	Width             int             `json:"width,omitempty"`
	Height            int             `json:"height,omitempty"`
	Duration          int             `json:"duration,omitempty"`
	SupportsStreaming bool            `json:"supports_streaming,omitempty"`
	HasSpoiler        bool            `json:"has_spoiler,omitempty"`
}

// InputMediaAnimation is an animation to send.
type InputMediaAnimation struct {
	Media           *InputFile      `json:"media"`
	Thumbnail       *InputFile      `json:"thumbnail,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	ParseMode       string          `json:"parse_mode,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	Width           int             `json:"width,omitempty"`
	Height          int             `json:"height,omitempty"`
	Duration        int             `json:"duration,omitempty"`
	HasSpoiler      bool            `json:"has_spoiler,omitempty"`
}

// InputMediaAudio is an audio file to send.
type InputMediaAudio struct {
	Media           *InputFile      `json:"media"`
	Thumbnail       *InputFile      `json:"thumbnail,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	ParseMode       string          `json:"parse_mode,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	Duration        int             `json:"duration,omitempty"`
	Performer       string          `json:"performer,omitempty"`
	Title           string          `json:"title,omitempty"`
}

// InputMediaDocument is a general file to send.
type InputMediaDocument struct {
	Media                       *InputFile      `json:"media"`
	Thumbnail                   *InputFile      `json:"thumbnail,omitempty"`
	Caption                     string          `json:"caption,omitempty"`
	ParseMode                   string          `json:"parse_mode,omitempty"`
	CaptionEntities             []MessageEntity `json:"caption_entities,omitempty"`
	DisableContentTypeDetection bool            `json:"disable_content_type_detection,omitempty"`
}

func (InputMediaPhoto) mediaType() string     { return "photo" }
func (InputMediaVideo) mediaType() string     { return "video" }
func (InputMediaAnimation) mediaType() string { return "animation" }
func (InputMediaAudio) mediaType() string     { return "audio" }
func (InputMediaDocument) mediaType() string  { return "document" }

func (m InputMediaPhoto) files() []*InputFile     { return []*InputFile{m.Media} }
func (m InputMediaVideo) files() []*InputFile     { return []*InputFile{m.Media, m.Thumbnail} }
func (m InputMediaAnimation) files() []*InputFile { return []*InputFile{m.Media, m.Thumbnail} }
func (m InputMediaAudio) files() []*InputFile     { return []*InputFile{m.Media, m.Thumbnail} }
func (m InputMediaDocument) files() []*InputFile  { return []*InputFile{m.Media, m.Thumbnail} }

func (m InputMediaPhoto) MarshalJSON() ([]byte, error) {
	type plain InputMediaPhoto
	return marshalTagged("type", m.mediaType(), plain(m))
}

func (m InputMediaVideo) MarshalJSON() ([]byte, error) {
	type plain InputMediaVideo
	return marshalTagged("type", m.mediaType(), plain(m))
}

func (m InputMediaAnimation) MarshalJSON() ([]byte, error) {
	type plain InputMediaAnimation
	return marshalTagged("type", m.mediaType(), plain(m))
}

func (m InputMediaAudio) MarshalJSON() ([]byte, error) {
	type plain InputMediaAudio
	return marshalTagged("type", m.mediaType(), plain(m))
}

func (m InputMediaDocument) MarshalJSON() ([]byte, error) {
	type plain InputMediaDocument
	return marshalTagged("type", m.mediaType(), plain(m))
}
