package botkit

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
)

// ChatID addresses a chat by numeric ID or by @username of a public
// channel or supergroup.
type ChatID struct {
	ID       int64
	Username string
}

// ID addresses a chat by its numeric identifier.
func ID(id int64) ChatID { return ChatID{ID: id} }

// Username addresses a public chat by @username. The "@" is added if missing.
func Username(name string) ChatID {
	if name != "" && name[0] != '@' {
		name = "@" + name
	}
	return ChatID{Username: name}
}

// IsZero reports whether the chat is unset.
func (c ChatID) IsZero() bool { return c.ID == 0 && c.Username == "" }

func (c ChatID) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

func (c ChatID) MarshalJSON() ([]byte, error) {
	if c.Username != "" {
		return json.Marshal(c.Username)
	}
	return []byte(strconv.FormatInt(c.ID, 10)), nil
}

func (c *ChatID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Username)
	}
	return json.Unmarshal(data, &c.ID)
}

// InputFile is a file to send: an existing file_id, an HTTP URL Telegram
// fetches itself, or content uploaded with multipart/form-data.
type InputFile struct {
	id     string
	url    string
	name   string
	reader io.Reader

	// attach is the multipart part name for nested uploads.
	attach string
}

// FileID references a file already stored on Telegram servers.
func FileID(id string) *InputFile { return &InputFile{id: id} }

// FileURL lets Telegram download the file from url.
func FileURL(url string) *InputFile { return &InputFile{url: url} }

// FileReader uploads the content of r under the given file name.
func FileReader(name string, r io.Reader) *InputFile {
	return &InputFile{name: name, reader: r}
}

// FileBytes uploads b under the given file name.
func FileBytes(name string, b []byte) *InputFile {
	return FileReader(name, bytes.NewReader(b))
}

// NeedsUpload reports whether the file content travels in the request body.
func (f *InputFile) NeedsUpload() bool { return f != nil && f.reader != nil }

func (f *InputFile) MarshalJSON() ([]byte, error) {
	switch {
	case f.reader != nil && f.attach != "":
		return json.Marshal("attach://" + f.attach)
	case f.reader != nil:
		// Top-level uploads are sent as their own form part.
		return []byte("null"), nil
	case f.id != "":
		return json.Marshal(f.id)
	default:
		return json.Marshal(f.url)
	}
}

// upload pairs a file with the request field that carries it.
// An empty field means the file is nested and referenced via attach://.
type upload struct {
	field string
	file  *InputFile
}

// uploader is implemented by parameter structs that may carry files.
type uploader interface {
	uploads() []upload
}

func fileField(field string, f *InputFile) []upload {
	if f == nil {
		return nil
	}
	return []upload{{field: field, file: f}}
}

func mediaUploads(media ...InputMedia) []upload {
	var out []upload
	for _, m := range media {
		if m == nil {
			continue
		}
		for _, f := range m.files() {
			if f != nil {
				out = append(out, upload{file: f})
			}
		}
	}
	return out
}
