package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one user's journal note for one calendar day.
// At most one row exists per (user_id, day).
type Entry struct {
	ID        RowID     `json:"id,omitempty" gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_entries_user_day,priority:1"`
	Day       Date      `json:"day"          gorm:"type:date;not null;uniqueIndex:ux_entries_user_day,priority:2"`
	Text      string    `json:"text"         gorm:"type:text;not null"`
	Mood      *string   `json:"mood"         gorm:"type:text"`
	Source    *string   `json:"source"       gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"   gorm:"autoUpdateTime:false"`
}

func (Entry) TableName() string { return "entries" }

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = RowID(uuid.New().String())
	}
	return nil
}

// OneLiner is the single-column-per-day entries schema.
type OneLiner struct {
	UserID  string `json:"user_id"  gorm:"type:varchar(64);primaryKey"`
	DateKey Date   `json:"date_key" gorm:"type:date;primaryKey"`
	Content string `json:"content"  gorm:"type:text"`
}

func (OneLiner) TableName() string { return "one_liners" }
