package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day wire format.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component, kept in YYYY-MM-DD form.
type Date string

func (d Date) String() string { return string(d) }

// Time parses the day as midnight UTC.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", string(d))
	}
	return t, nil
}

func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	if _, err := d.Time(); err != nil {
		return nil, err
	}
	return string(d), nil
}

func (d *Date) Scan(value interface{}) error {
	if d == nil {
		return fmt.Errorf("models.Date: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(DateLayout))
	case []byte:
		*d = trimDate(string(v))
	case string:
		*d = trimDate(v)
	default:
		return fmt.Errorf("models.Date: unsupported Scan type %T", value)
	}
	return nil
}

// trimDate drops any time component a driver may append to a DATE column.
func trimDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	return Date(raw)
}

// RowID tolerates identifiers stored as either text (uuid) or integers.
type RowID string

func (id *RowID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RowID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("models.RowID: unsupported JSON value %s", raw)
	}
	*id = RowID(raw)
	return nil
}
