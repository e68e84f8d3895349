package db

import "time"

// 文章分类是封闭集合。
const (
	CategoryHomeCare     = "Home Care"
	CategoryCleaningTips = "Cleaning Tips"
	CategoryMaintenance  = "Maintenance"
	CategorySeasonal     = "Seasonal"
	CategoryCompanyNews  = "Company News"
	CategoryGuides       = "Guides"
)

// PostCategories 按展示顺序列出全部可用分类。
var PostCategories = []string{
	CategoryHomeCare,
	CategoryCleaningTips,
	CategoryMaintenance,
	CategorySeasonal,
	CategoryCompanyNews,
	CategoryGuides,
}

// DefaultAuthor 为未填写作者时的默认署名。
const DefaultAuthor = "site owner"

// 文章的派生状态。
const (
	PostStatusPublished = "published"
	PostStatusScheduled = "scheduled"
	PostStatusDraft     = "draft"
)

// Post 定义了博客文章模型
type Post struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Slug            string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Subtitle        string          `gorm:"size:255" json:"subtitle"`
	Author          string          `gorm:"size:120" json:"author"`
	PublishDate     time.Time       `gorm:"index" json:"publishDate"`
	Category        string          `gorm:"size:50;index" json:"category"`
	Tags            StringList      `gorm:"type:text" json:"tags"`
	FeaturedImage   string          `json:"featuredImage"`
	IntroText       string          `gorm:"type:text" json:"introText"`
	ContentSections ContentSections `gorm:"type:text" json:"contentSections"`
	ReadTime        int             `json:"readTime"`
	MetaDescription string          `gorm:"size:320" json:"metaDescription"`
	Published       bool            `gorm:"index" json:"published"`
	Featured        bool            `json:"featured"`
	Scheduled       bool            `gorm:"index" json:"scheduled"`
	SortOrder       int             `gorm:"index" json:"sortOrder"`
	Views           int64           `json:"views"`
	Version         int             `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Post) TableName() string {
	return "posts"
}

// Status 根据发布标记与排期推导文章状态。
func (p Post) Status() string {
	switch {
	case p.Published:
		return PostStatusPublished
	case p.Scheduled:
		return PostStatusScheduled
	default:
		return PostStatusDraft
	}
}

// IsValidCategory 判断分类是否属于封闭集合。
func IsValidCategory(category string) bool {
	for _, candidate := range PostCategories {
		if candidate == category {
			return true
		}
	}
	return false
}
