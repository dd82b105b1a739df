package models

// StoryStatusReady marks a story whose document has been stored.
const StoryStatusReady = "ready"

// Story is the metadata row of a generated narrative document.
type Story struct {
	ID          string  `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string  `json:"user_id"      gorm:"type:varchar(64);index;not null"`
	FromDay     Date    `json:"from_day"     gorm:"type:date;not null"`
	ToDay       Date    `json:"to_day"       gorm:"type:date;not null"`
	Title       string  `json:"title"        gorm:"type:varchar(180);not null"`
	Style       string  `json:"style"        gorm:"type:varchar(64)"`
	Persona     *string `json:"persona"      gorm:"type:varchar(255)"`
	MDPath      string  `json:"md_path"      gorm:"type:varchar(255);not null"`
	ContentHash string  `json:"content_hash" gorm:"type:char(64);not null"` // sha256 hex of the document
	Tokens      int64   `json:"tokens"`
	CostCents   int64   `json:"cost_cents"`
	Status      string  `json:"status"       gorm:"type:varchar(16);default:'ready'"`
}

func (Story) TableName() string { return "stories" }
