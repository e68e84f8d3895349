package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/homesite/internal/db"
	"gorm.io/gorm"
)

const (
	defaultPostPageSize = 10
	maxPostPageSize     = 100
	maxUpdateAttempts   = 3
)

// PostService wraps post related database operations.
type PostService struct {
	db  *gorm.DB
	now func() time.Time
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Category           string
	Tag                string
	Search             string
	IncludeUnpublished bool
	Page               int
	Limit              int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title           string
	Subtitle        string
	Author          string
	Category        string
	Tags            []string
	FeaturedImage   string
	IntroText       string
	ContentSections []db.ContentSection
	MetaDescription string
	Published       *bool
	PublishDate     *time.Time
	Featured        bool
	Scheduled       bool
	SortOrder       int
}

// PostPatch 描述一次部分更新，nil 字段保持原值。
type PostPatch struct {
	Title           *string
	Subtitle        *string
	Author          *string
	Category        *string
	Tags            *[]string
	FeaturedImage   *string
	IntroText       *string
	ContentSections *[]db.ContentSection
	MetaDescription *string
	Published       *bool
	PublishDate     *time.Time
	Featured        *bool
	Scheduled       *bool
	SortOrder       *int
}

// PostUpdate carries the row a write replaced and the row it produced.
type PostUpdate struct {
	Before db.Post
	After  db.Post
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, now: time.Now}
}

func (s *PostService) withDB(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, now: s.now}
}

// Create validates input, derives slug and read time, then persists the post.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	now := s.now()
	post := db.Post{
		Title:           strings.TrimSpace(input.Title),
		Subtitle:        strings.TrimSpace(input.Subtitle),
		Author:          strings.TrimSpace(input.Author),
		Category:        strings.TrimSpace(input.Category),
		Tags:            normalizeTags(input.Tags),
		FeaturedImage:   strings.TrimSpace(input.FeaturedImage),
		IntroText:       strings.TrimSpace(input.IntroText),
		ContentSections: normalizeSections(input.ContentSections),
		MetaDescription: strings.TrimSpace(input.MetaDescription),
		Published:       true,
		PublishDate:     now.UTC(),
		Featured:        input.Featured,
		Scheduled:       input.Scheduled,
		SortOrder:       input.SortOrder,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if post.Author == "" {
		post.Author = db.DefaultAuthor
	}
	if input.PublishDate != nil {
		post.PublishDate = input.PublishDate.UTC()
	}
	if input.Published != nil {
		post.Published = *input.Published
	}
	if post.Scheduled {
		if input.PublishDate == nil {
			return nil, newValidationError("publishDate", "is required for scheduled posts")
		}
		post.Published = false
	}

	if err := validatePost(&post); err != nil {
		return nil, err
	}
	post.Slug = Slugify(post.Title)
	if post.Slug == "" {
		return nil, newValidationError("title", "must contain at least one letter or digit")
	}
	post.ReadTime = CalculateReadTime(post.IntroText, post.ContentSections)

	if err := s.ensureSlugAvailable(post.Slug, 0); err != nil {
		return nil, err
	}
	if err := s.db.Create(&post).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &post, nil
}

// Update merges patch into the stored post under an optimistic version check.
// A lost race re-applies the patch to the fresh row; after maxUpdateAttempts it fails with ErrVersionMismatch.
func (s *PostService) Update(id uint, patch PostPatch) (*PostUpdate, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}

		updated, ok, err := s.tryUpdate(*current, patch)
		if err != nil {
			return nil, err
		}
		if ok {
			return &PostUpdate{Before: *current, After: updated}, nil
		}
	}
	return nil, ErrVersionMismatch
}

// tryUpdate writes the merged row only if current.Version is still the stored version.
func (s *PostService) tryUpdate(current db.Post, patch PostPatch) (db.Post, bool, error) {
	updated, err := applyPatch(current, patch)
	if err != nil {
		return db.Post{}, false, err
	}
	if updated.Slug != current.Slug {
		if err := s.ensureSlugAvailable(updated.Slug, current.ID); err != nil {
			return db.Post{}, false, err
		}
	}
	updated.Version = current.Version + 1
	updated.UpdatedAt = s.now().UTC()

	result := s.db.Model(&db.Post{}).
		Where("id = ? AND version = ?", current.ID, current.Version).
		Updates(postColumns(updated))
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return db.Post{}, false, ErrSlugTaken
		}
		return db.Post{}, false, result.Error
	}
	return updated, result.RowsAffected == 1, nil
}

// GetByID fetches a post by primary key.
func (s *PostService) GetByID(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetBySlug fetches a post by slug.
func (s *PostService) GetBySlug(slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Get 先按数字 id 查找，未命中时回退到 slug。
func (s *PostService) Get(idOrSlug string) (*db.Post, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return nil, ErrPostNotFound
	}
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		post, err := s.GetByID(uint(id))
		if err == nil || !errors.Is(err, ErrNotFound) {
			return post, err
		}
	}
	return s.GetBySlug(key)
}

// List provides paginated posts based on filters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit, defaultPostPageSize, maxPostPageSize)
	result := &PostListResult{Page: page, Limit: limit}

	query := s.applyFilters(s.db.Model(&db.Post{}), filter)
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	if err := s.applyFilters(s.db.Model(&db.Post{}), filter).
		Order("sort_order desc, publish_date desc, id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	result.TotalPages = int(math.Ceil(float64(result.Total) / float64(limit)))
	return result, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if !filter.IncludeUnpublished {
		query = query.Where("published = ?", true)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(posts.tags) WHERE json_each.value = ?)", tag)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR intro_text LIKE ?", like, like)
	}
	return query
}

// Delete removes a post by id. Comments and revisions are left to the caller.
func (s *PostService) Delete(id uint) error {
	result := s.db.Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IncrementViews 递增浏览量，不改变 updated_at 与 version。
func (s *PostService) IncrementViews(id uint) error {
	return s.db.Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// DuePosts 返回排期时间已到但尚未发布的文章。
func (s *PostService) DuePosts(now time.Time) ([]db.Post, error) {
	var posts []db.Post
	err := s.db.Where("published = ? AND scheduled = ? AND publish_date <= ?", false, true, now.UTC()).
		Order("publish_date asc, id asc").
		Find(&posts).Error
	return posts, err
}

func (s *PostService) ensureSlugAvailable(slug string, excludeID uint) error {
	query := s.db.Model(&db.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

func applyPatch(post db.Post, patch PostPatch) (db.Post, error) {
	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Subtitle != nil {
		post.Subtitle = strings.TrimSpace(*patch.Subtitle)
	}
	if patch.Author != nil {
		post.Author = strings.TrimSpace(*patch.Author)
		if post.Author == "" {
			post.Author = db.DefaultAuthor
		}
	}
	if patch.Category != nil {
		post.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Tags != nil {
		post.Tags = normalizeTags(*patch.Tags)
	}
	if patch.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*patch.FeaturedImage)
	}
	if patch.IntroText != nil {
		post.IntroText = strings.TrimSpace(*patch.IntroText)
	}
	if patch.ContentSections != nil {
		post.ContentSections = normalizeSections(*patch.ContentSections)
	}
	if patch.MetaDescription != nil {
		post.MetaDescription = strings.TrimSpace(*patch.MetaDescription)
	}
	if patch.Published != nil {
		post.Published = *patch.Published
	}
	if patch.PublishDate != nil {
		post.PublishDate = patch.PublishDate.UTC()
	}
	if patch.Featured != nil {
		post.Featured = *patch.Featured
	}
	if patch.Scheduled != nil {
		post.Scheduled = *patch.Scheduled
	}
	if patch.SortOrder != nil {
		post.SortOrder = *patch.SortOrder
	}

	if err := validatePost(&post); err != nil {
		return db.Post{}, err
	}

	if patch.Title != nil {
		post.Slug = Slugify(post.Title)
		if post.Slug == "" {
			return db.Post{}, newValidationError("title", "must contain at least one letter or digit")
		}
	}
	if patch.IntroText != nil || patch.ContentSections != nil {
		post.ReadTime = CalculateReadTime(post.IntroText, post.ContentSections)
	}
	return post, nil
}

func validatePost(post *db.Post) error {
	required := []struct {
		field string
		value string
	}{
		{"title", post.Title},
		{"subtitle", post.Subtitle},
		{"author", post.Author},
		{"category", post.Category},
		{"featuredImage", post.FeaturedImage},
		{"introText", post.IntroText},
	}
	for _, r := range required {
		if r.value == "" {
			return requiredError(r.field)
		}
	}
	if !db.IsValidCategory(post.Category) {
		return newValidationError("category", "must be one of: "+strings.Join(db.PostCategories, ", "))
	}
	return nil
}

func postColumns(post db.Post) map[string]interface{} {
	return map[string]interface{}{
		"slug":             post.Slug,
		"title":            post.Title,
		"subtitle":         post.Subtitle,
		"author":           post.Author,
		"publish_date":     post.PublishDate,
		"category":         post.Category,
		"tags":             post.Tags,
		"featured_image":   post.FeaturedImage,
		"intro_text":       post.IntroText,
		"content_sections": post.ContentSections,
		"read_time":        post.ReadTime,
		"meta_description": post.MetaDescription,
		"published":        post.Published,
		"featured":         post.Featured,
		"scheduled":        post.Scheduled,
		"sort_order":       post.SortOrder,
		"version":          post.Version,
		"updated_at":       post.UpdatedAt,
	}
}

func normalizeTags(tags []string) db.StringList {
	out := make(db.StringList, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeSections(sections []db.ContentSection) db.ContentSections {
	out := make(db.ContentSections, 0, len(sections))
	for _, section := range sections {
		heading := strings.TrimSpace(section.Heading)
		body := strings.TrimSpace(section.Body)
		if heading == "" && body == "" {
			continue
		}
		out = append(out, db.ContentSection{Heading: heading, Body: body})
	}
	return out
}

func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
