package db

import (
	"database/sql/driver"
	"time"
)

// 修订类型。
const (
	RevisionTypeManual           = "manual"
	RevisionTypeAutosave         = "autosave"
	RevisionTypeScheduledPublish = "scheduled_publish"
)

// PostSnapshot 保存某一时刻全部可追踪字段的值。
type PostSnapshot struct {
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	Author          string          `json:"author"`
	Category        string          `json:"category"`
	Tags            StringList      `json:"tags"`
	FeaturedImage   string          `json:"featuredImage"`
	IntroText       string          `json:"introText"`
	ContentSections ContentSections `json:"contentSections"`
	MetaDescription string          `json:"metaDescription"`
	Published       bool            `json:"published"`
	PublishDate     time.Time       `json:"publishDate"`
	Featured        bool            `json:"featured"`
}

// Value implements driver.Valuer.
func (s PostSnapshot) Value() (driver.Value, error) {
	return marshalJSONText(s)
}

// Scan implements sql.Scanner.
func (s *PostSnapshot) Scan(value interface{}) error {
	return scanJSONText(value, s)
}

// SnapshotOf 提取文章的可追踪字段。
func SnapshotOf(p Post) PostSnapshot {
	return PostSnapshot{
		Title:           p.Title,
		Subtitle:        p.Subtitle,
		Author:          p.Author,
		Category:        p.Category,
		Tags:            append(StringList{}, p.Tags...),
		FeaturedImage:   p.FeaturedImage,
		IntroText:       p.IntroText,
		ContentSections: append(ContentSections{}, p.ContentSections...),
		MetaDescription: p.MetaDescription,
		Published:       p.Published,
		PublishDate:     p.PublishDate,
		Featured:        p.Featured,
	}
}

// FieldChange 描述单个字段的变更。
type FieldChange struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"oldValue"`
	NewValue interface{} `json:"newValue"`
}

// FieldChanges 以 JSON 文本形式存储有序变更列表。
type FieldChanges []FieldChange

// Value implements driver.Valuer.
func (c FieldChanges) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return marshalJSONText(c)
}

// Scan implements sql.Scanner.
func (c *FieldChanges) Scan(value interface{}) error {
	return scanJSONText(value, c)
}

// PostRevision 记录文章可追踪字段的历史快照及差异。
type PostRevision struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	PostID       uint         `gorm:"index;not null" json:"postId"`
	Snapshot     PostSnapshot `gorm:"type:text" json:"snapshot"`
	Changes      FieldChanges `gorm:"type:text" json:"changes"`
	ChangedBy    string       `gorm:"size:120" json:"changedBy"`
	RevisionType string       `gorm:"size:32" json:"revisionType"`
	CreatedAt    time.Time    `gorm:"index" json:"createdAt"`
}

// TableName 指定自定义表名。
func (PostRevision) TableName() string {
	return "post_revisions"
}
