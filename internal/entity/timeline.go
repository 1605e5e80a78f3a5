package entity

import (
	"encoding/json"
	"time"
)

// SkipSentinel is the entry text recorded for a deliberate no-update day.
const SkipSentinel = "[דילגתי]"

// DateLayout is the dd/MM/yyyy stamp written on every timeline entry.
const DateLayout = "02/01/2006"

// DescriptionEntry is one dated note in a lead's timeline. It has no identity of its own.
type DescriptionEntry struct {
	Date    string `json:"date"`
	Text    string `json:"text"`
	Skipped bool   `json:"skipped"`
}

// NewDescriptionEntry stamps an entry with the day of at.
func NewDescriptionEntry(at time.Time, text string, skipped bool) DescriptionEntry {
	if skipped {
		text = SkipSentinel
	}
	return DescriptionEntry{
		Date:    at.Format(DateLayout),
		Text:    text,
		Skipped: skipped,
	}
}

// Timeline is the append-only note history of a lead, oldest first.
// Append always returns a new backing array, so a timeline handed out
// earlier never changes underneath its holder.
type Timeline []DescriptionEntry

func (t Timeline) Append(e DescriptionEntry) Timeline {
	next := make(Timeline, len(t), len(t)+1)
	copy(next, t)
	return append(next, e)
}

func (t Timeline) Len() int { return len(t) }

// Clone returns an independent copy.
func (t Timeline) Clone() Timeline {
	if t == nil {
		return Timeline{}
	}
	out := make(Timeline, len(t))
	copy(out, t)
	return out
}

// Equal reports whether both timelines hold the same entries in the same
// order. nil and empty are equal.
func (t Timeline) Equal(other Timeline) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// MarshalJSON writes an empty timeline as [] rather than null.
func (t Timeline) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]DescriptionEntry(t))
}
