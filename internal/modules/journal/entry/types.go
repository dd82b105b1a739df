package entry

import (
	"bytes"
	"encoding/json"
	"strings"
)

const missingFieldsMessage = "Missing required fields: user_id (string), day (YYYY-MM-DD as 'date'), text (string)"

// UpsertEntryDTO is the request body. mood and source accept any JSON value.
type UpsertEntryDTO struct {
	UserID *string         `json:"user_id"`
	Day    *string         `json:"day"`
	Text   *string         `json:"text"`
	Mood   json.RawMessage `json:"mood"`
	Source json.RawMessage `json:"source"`
}

// UpsertInput is a validated upsert request.
type UpsertInput struct {
	UserID string
	Day    string
	Text   string
	Mood   *string
	Source *string
}

// validate checks presence and type only. Empty strings go through and
// the data service decides on them.
func (d *UpsertEntryDTO) validate() (UpsertInput, bool) {
	if d.UserID == nil || d.Day == nil || d.Text == nil {
		return UpsertInput{}, false
	}
	return UpsertInput{
		UserID: *d.UserID,
		Day:    *d.Day,
		Text:   *d.Text,
		Mood:   optionalTag(d.Mood),
		Source: optionalTag(d.Source),
	}, true
}

// optionalTag keeps strings as-is, maps absent or null to nil, and stores
// any other JSON value as its compact text.
func optionalTag(raw json.RawMessage) *string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(raw, &v); err == nil {
			return &v
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		s = buf.String()
	}
	return &s
}
