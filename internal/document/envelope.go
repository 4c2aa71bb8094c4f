package document

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/dictionary/internal/errors"
)

// Event types carried in record keys.
const (
	EventNew    = "new"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Envelope is one decoded queue record.
// A nil Document means there is nothing to apply.
type Envelope struct {
	Topic     string
	EventType string
	Key       string
	Document  Entity
}

// HasDocument reports whether the envelope carries a payload.
func (e *Envelope) HasDocument() bool {
	return e != nil && e.Document != nil
}

// Decoder turns a record payload into an entity of one kind.
// It returns a nil Entity when the payload holds no document.
type Decoder func(payload string) (Entity, error)

// wire is the record value layout: {"document": <entity-or-null>}.
type wire[T any] struct {
	Document *T `json:"document"`
}

var decoders = map[string]Decoder{
	string(KindMenu):    decodeAs[Menu],
	string(KindProcess): decodeAs[Process],
	string(KindBrowser): decodeAs[Browser],
	string(KindWindow):  decodeAs[Window],
	string(KindForm):    decodeAs[Form],
}

// LookupDecoder returns the decoder for a topic.
// Unrecognized topics have none.
func LookupDecoder(topic string) (Decoder, bool) {
	d, ok := decoders[topic]
	return d, ok
}

// decodeAs decodes a payload whose document is a T.
// *T must implement Entity.
func decodeAs[T any](payload string) (Entity, error) {
	var w wire[T]
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, errors.DecodeError("invalid document envelope", err)
	}
	if w.Document == nil {
		return nil, nil
	}

	entity, ok := any(w.Document).(Entity)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownKind, "payload type is not an entity", nil)
	}
	if entity.DocumentID() == "0" {
		return nil, errors.DecodeError("document has no id", nil)
	}
	return entity, nil
}

// EventType extracts the event type from a record key.
// Keys are published JSON-quoted, so quote characters are dropped.
func EventType(key []byte) string {
	return strings.TrimSpace(strings.ReplaceAll(string(key), `"`, ""))
}

// PayloadText returns the record value as text.
// Bytes that are not valid UTF-8 yield an empty string.
func PayloadText(value []byte) string {
	if !utf8.Valid(value) {
		return ""
	}
	return string(value)
}

// Decode builds the envelope for a record on a known topic.
// The returned error is a decode failure; the envelope is still returned
// with no document so callers can log its metadata.
func Decode(topic string, key, value []byte) (*Envelope, error) {
	env := &Envelope{
		Topic:     topic,
		Key:       string(key),
		EventType: EventType(key),
	}

	decode, ok := LookupDecoder(topic)
	if !ok {
		return env, errors.New(errors.ErrCodeUnknownKind, "no decoder for topic "+topic, nil).
			WithDetail("topic", topic)
	}

	doc, err := decode(PayloadText(value))
	if err != nil {
		return env, err
	}
	env.Document = doc
	return env, nil
}
