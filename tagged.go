package botkit

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// marshalTagged encodes v as a JSON object with a discriminator field first.
// v must encode to a JSON object.
func marshalTagged(key, value string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(strconv.Quote(key))
	buf.WriteByte(':')
	buf.WriteString(strconv.Quote(value))

	inner := bytes.TrimSpace(body)
	inner = bytes.TrimPrefix(inner, []byte("{"))
	inner = bytes.TrimSuffix(inner, []byte("}"))
	if len(bytes.TrimSpace(inner)) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
