package db

import "time"

// PostPublication 记录一次被远端确认的发布快照，写入后不再修改。
type PostPublication struct {
	ID          uint   `gorm:"primaryKey"`
	PostID      string `gorm:"size:36;index;not null"`
	RevisionID  string `gorm:"size:36"`
	Version     int
	Title       string
	Content     string `gorm:"type:text"`
	Status      string `gorm:"size:16"`
	PublishedAt time.Time
	UserID      uint
	User        User
	CreatedAt   time.Time
}
