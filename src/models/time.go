package models

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Layouts the backend emits. FastAPI serializes naive datetimes without a
// zone offset, so plain RFC 3339 parsing is not enough.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Timestamp is a time.Time that unmarshals the backend's ISO-8601 strings,
// with or without a zone offset.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s", s)
	}
	s = s[1 : len(s)-1]
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("invalid timestamp %q: %w", s, lastErr)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// Relative renders the timestamp as a human distance ("2 minutes ago") for
// list views. Zero timestamps render as an empty string.
func (t Timestamp) Relative() string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t.Time)
}
