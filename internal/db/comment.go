package db

import "time"

// Comment 记录访客对文章的评论，ParentCommentID 为空表示顶层评论。
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"column:post_id;index;not null" json:"blogPostId"`
	ParentCommentID *uint     `gorm:"index" json:"parentCommentId"`
	Author          string    `gorm:"size:100;not null" json:"author"`
	Email           string    `gorm:"size:255;not null" json:"email"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Approved        bool      `gorm:"index" json:"approved"`
	IPAddress       string    `gorm:"size:64;index" json:"ipAddress,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
}

// TableName 指定自定义表名。
func (Comment) TableName() string {
	return "comments"
}
