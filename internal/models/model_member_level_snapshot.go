package models

import "time"

// MemberLevelDailySnapshot stores one row per (day, level) with the member
// count at that level, written by the statistics service after each sweep.
type MemberLevelDailySnapshot struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Day         string    `gorm:"column:day;type:varchar(10);not null;uniqueIndex:idx_day_level" json:"day"`
	Level       int       `gorm:"column:level;not null;uniqueIndex:idx_day_level" json:"level"`
	MemberCount int64     `gorm:"column:member_count;not null" json:"member_count"`
	ActiveCount int64     `gorm:"column:active_count;not null" json:"active_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MemberLevelDailySnapshot) TableName() string { return "member_level_daily_snapshot" }
