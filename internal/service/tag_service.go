package service

import (
	"strings"

	"gorm.io/gorm"
)

// TagService 统计文章标签的使用情况。标签以 JSON 数组保存在文章上，没有独立的标签表。
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签的使用次数
type TagUsage struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// PublishedUsage 返回已发布文章中标签的使用统计，可按分类过滤。
func (s *TagService) PublishedUsage(category string) ([]TagUsage, error) {
	var rows []TagUsage

	query := s.db.Table("posts, json_each(posts.tags)").
		Select("json_each.value AS name, COUNT(DISTINCT posts.id) AS count").
		Where("posts.published = ?", true)
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("posts.category = ?", category)
	}

	if err := query.
		Group("json_each.value").
		Order("count desc").
		Order("name asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []TagUsage{}
	}
	return rows, nil
}
