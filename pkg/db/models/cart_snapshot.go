package models

import "time"

// CartSnapshot stores the serialized cart lines under a fixed name.
type CartSnapshot struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	LineCount int       `gorm:"column:line_count;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
