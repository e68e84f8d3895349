package service

import (
	"github.com/homesite/internal/db"
	"gorm.io/gorm"
)

const defaultTopPostLimit = 5

// AnalyticsService 汇总管理后台使用的站点统计。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// SiteOverview 聚合站点层面的文章、评论与浏览数据及热门文章。
type SiteOverview struct {
	PostCount       int64         `json:"postCount"`
	PublishedCount  int64         `json:"publishedCount"`
	ScheduledCount  int64         `json:"scheduledCount"`
	DraftCount      int64         `json:"draftCount"`
	TotalViews      int64         `json:"totalViews"`
	CommentCount    int64         `json:"commentCount"`
	PendingComments int64         `json:"pendingComments"`
	RevisionCount   int64         `json:"revisionCount"`
	TopPosts        []TopPostStat `json:"topPosts"`
}

// TopPostStat 描述热门文章的统计信息。
type TopPostStat struct {
	PostID   uint   `json:"postId"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Views    int64  `json:"views"`
	Comments int64  `json:"comments"`
}

// Overview 汇总全站统计，limit 控制热门文章数量。
func (s *AnalyticsService) Overview(limit int) (SiteOverview, error) {
	if limit <= 0 {
		limit = defaultTopPostLimit
	}

	var overview SiteOverview

	var totals struct {
		Posts     int64
		Published int64
		Scheduled int64
		Views     int64
	}
	if err := s.db.Model(&db.Post{}).
		Select("COUNT(*) AS posts, " +
			"COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published, " +
			"COALESCE(SUM(CASE WHEN scheduled AND NOT published THEN 1 ELSE 0 END), 0) AS scheduled, " +
			"COALESCE(SUM(views), 0) AS views").
		Scan(&totals).Error; err != nil {
		return overview, err
	}
	overview.PostCount = totals.Posts
	overview.PublishedCount = totals.Published
	overview.ScheduledCount = totals.Scheduled
	overview.DraftCount = totals.Posts - totals.Published - totals.Scheduled
	overview.TotalViews = totals.Views

	if err := s.db.Model(&db.Comment{}).Count(&overview.CommentCount).Error; err != nil {
		return overview, err
	}
	if err := s.db.Model(&db.Comment{}).Where("approved = ?", false).Count(&overview.PendingComments).Error; err != nil {
		return overview, err
	}
	if err := s.db.Model(&db.PostRevision{}).Count(&overview.RevisionCount).Error; err != nil {
		return overview, err
	}

	topPosts := []TopPostStat{}
	if err := s.db.Table("posts p").
		Select("p.id AS post_id, p.title, p.slug, p.views, COUNT(c.id) AS comments").
		Joins("LEFT JOIN comments c ON c.post_id = p.id").
		Where("p.published = ?", true).
		Group("p.id, p.title, p.slug, p.views").
		Order("p.views DESC").
		Order("p.id DESC").
		Limit(limit).
		Scan(&topPosts).Error; err != nil {
		return overview, err
	}

	overview.TopPosts = topPosts
	return overview, nil
}
