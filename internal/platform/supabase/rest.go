package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/platform"
)

const (
	preferUpsert  = "resolution=merge-duplicates,return=representation"
	preferMinimal = "return=minimal"
	acceptObject  = "application/vnd.pgrst.object+json"
)

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

// UpsertEntry writes the entry as the credential holder, merging on
// (user_id, day), and returns the stored row.
func (c *Client) UpsertEntry(ctx context.Context, cred platform.Credential, entry models.Entry) (*models.Entry, error) {
	resp, err := c.request(ctx, cred).
		SetQueryParams(map[string]string{
			"on_conflict": "user_id,day",
			"select":      "*",
		}).
		SetHeader("Prefer", preferUpsert).
		SetHeader("Accept", acceptObject).
		SetBody([]models.Entry{entry}).
		Post(tablePath(c.tables.Upsert))
	if err != nil {
		return nil, transportError("upsert entry", err)
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}

	var stored models.Entry
	if err := json.Unmarshal(resp.Body(), &stored); err != nil {
		return nil, fmt.Errorf("decode upserted entry: %w", err)
	}
	return &stored, nil
}

type oneLinerRow struct {
	DateKey models.Date `json:"date_key"`
	Content *string     `json:"content"`
}

type entryRow struct {
	Day  models.Date `json:"day"`
	Text *string     `json:"text"`
}

// ListEntries reads [q.From, q.To] from q.Table in ascending day order.
// The one_liners table relies on row-level security for caller scoping;
// generic tables are filtered by user_id explicitly.
func (c *Client) ListEntries(ctx context.Context, caller platform.Caller, q platform.EntryQuery) ([]platform.DayNote, error) {
	params := url.Values{}
	dayCol := "day"
	switch q.Schema() {
	case platform.SchemaOneLiners:
		dayCol = "date_key"
		params.Set("select", "date_key,content")
	default:
		params.Set("select", "day,text")
		params.Set("user_id", "eq."+caller.UserID)
	}
	params.Add(dayCol, "gte."+q.From.String())
	params.Add(dayCol, "lte."+q.To.String())
	params.Set("order", dayCol+".asc")

	resp, err := c.request(ctx, caller.Credential).
		SetQueryParamsFromValues(params).
		Get(tablePath(q.Table))
	if err != nil {
		return nil, transportError("list entries", err)
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}

	if q.Schema() == platform.SchemaOneLiners {
		var rows []oneLinerRow
		if err := json.Unmarshal(resp.Body(), &rows); err != nil {
			return nil, fmt.Errorf("decode %s rows: %w", q.Table, err)
		}
		notes := make([]platform.DayNote, 0, len(rows))
		for _, r := range rows {
			notes = append(notes, platform.DayNote{Day: r.DateKey, Text: deref(r.Content)})
		}
		return notes, nil
	}

	var rows []entryRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", q.Table, err)
	}
	notes := make([]platform.DayNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, platform.DayNote{Day: r.Day, Text: deref(r.Text)})
	}
	return notes, nil
}

// InsertStory inserts the metadata row. A duplicate id surfaces as a
// *platform.Error with code 23505.
func (c *Client) InsertStory(ctx context.Context, caller platform.Caller, story models.Story) error {
	resp, err := c.request(ctx, caller.Credential).
		SetHeader("Prefer", preferMinimal).
		SetBody(story).
		Post(tablePath(c.tables.Stories))
	if err != nil {
		return transportError("insert story", err)
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
