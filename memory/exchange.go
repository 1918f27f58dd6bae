package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Exchange is one user message paired with the assistant reply it produced.
// On disk it is a two-element array: [user, assistant].
type Exchange struct {
	User      string
	Assistant string

	// Failed marks a reply synthesized from a completion error. It is not
	// serialized, and failed exchanges are never written to disk.
	Failed bool
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.User, e.Assistant})
}

func (e *Exchange) UnmarshalJSON(b []byte) error {
	var pair []*string
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("exchange: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("exchange: want 2 elements, got %d", len(pair))
	}
	*e = Exchange{}
	if pair[0] != nil {
		e.User = *pair[0]
	}
	if pair[1] != nil {
		e.Assistant = *pair[1]
	}
	return nil
}

// History is the chronological sequence of exchanges for a session.
type History []Exchange

// Persistable returns a copy of h without failed exchanges.
func (h History) Persistable() History {
	out := make(History, 0, len(h))
	for _, ex := range h {
		if !ex.Failed {
			out = append(out, ex)
		}
	}
	return out
}

// Last returns a copy of the newest n exchanges, oldest first.
// A non-positive n yields an empty, non-nil History.
func (h History) Last(n int) History {
	if n <= 0 {
		return History{}
	}
	start := 0
	if len(h) > n {
		start = len(h) - n
	}
	out := make(History, len(h)-start)
	copy(out, h[start:])
	return out
}

// Timestamp is an ISO-8601 time. It is written as RFC 3339 and also accepts
// zone-less values (interpreted as local time).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if p, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = p
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}
