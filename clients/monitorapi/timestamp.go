package monitorapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// The backend emits naive ISO-8601 strings from utcnow(); those carry no
// offset and are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is an optional instant. The zero value (JSON null, empty
// string or missing field) means absent. A value that is present but not
// a recognizable instant decodes as malformed rather than failing the
// enclosing record.
type Timestamp struct {
	time.Time

	raw string
}

// ParseTimestamp parses an ISO-8601 instant with or without an offset.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Valid reports whether the timestamp is present.
func (t Timestamp) Valid() bool {
	return !t.Time.IsZero()
}

// Malformed reports whether a value was sent that could not be read as an
// instant.
func (t Timestamp) Malformed() bool {
	return !t.Valid() && t.raw != ""
}

// Raw returns the undecodable input of a malformed timestamp.
func (t Timestamp) Raw() string {
	return t.raw
}

// UnmarshalJSON never fails: non-string or unparseable values are kept as
// malformed so one bad field does not drop the record.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{raw: string(data)}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{raw: s}
		return nil
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}
