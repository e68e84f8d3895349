package service

import (
	"errors"
	"strings"
	"time"

	"github.com/homesite/internal/db"
	"github.com/homesite/internal/logging"
	"github.com/homesite/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// MaxRevisionsPerPost 是每篇文章保留的修订数量上限。
	MaxRevisionsPerPost    = 50
	defaultRevisionListLen = 20
)

// RevisionService records and queries the post audit trail.
type RevisionService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewRevisionService 构造 RevisionService。
func NewRevisionService(gdb *gorm.DB) *RevisionService {
	return &RevisionService{
		db:     gdb,
		logger: logging.WithComponent("revisions"),
		now:    time.Now,
	}
}

// Diff 按固定字段顺序比较两份快照，返回发生变化的字段。
func Diff(old, updated db.PostSnapshot) []db.FieldChange {
	var changes []db.FieldChange
	add := func(field string, oldValue, newValue interface{}) {
		changes = append(changes, db.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
	}

	if old.Title != updated.Title {
		add("title", old.Title, updated.Title)
	}
	if old.Subtitle != updated.Subtitle {
		add("subtitle", old.Subtitle, updated.Subtitle)
	}
	if old.Author != updated.Author {
		add("author", old.Author, updated.Author)
	}
	if old.Category != updated.Category {
		add("category", old.Category, updated.Category)
	}
	if !equalStrings(old.Tags, updated.Tags) {
		add("tags", stringsOrEmpty(old.Tags), stringsOrEmpty(updated.Tags))
	}
	if old.FeaturedImage != updated.FeaturedImage {
		add("featuredImage", old.FeaturedImage, updated.FeaturedImage)
	}
	if old.IntroText != updated.IntroText {
		add("introText", old.IntroText, updated.IntroText)
	}
	if !equalSections(old.ContentSections, updated.ContentSections) {
		add("contentSections", sectionsOrEmpty(old.ContentSections), sectionsOrEmpty(updated.ContentSections))
	}
	if old.MetaDescription != updated.MetaDescription {
		add("metaDescription", old.MetaDescription, updated.MetaDescription)
	}
	if old.Published != updated.Published {
		add("published", old.Published, updated.Published)
	}
	if !old.PublishDate.Equal(updated.PublishDate) {
		add("publishDate", timeOrNil(old.PublishDate), timeOrNil(updated.PublishDate))
	}
	if old.Featured != updated.Featured {
		add("featured", old.Featured, updated.Featured)
	}
	return changes
}

// RecordIfChanged persists a revision when at least one trackable field differs,
// then enforces the retention cap. Failures are logged and counted, never returned.
func (s *RevisionService) RecordIfChanged(postID uint, old, updated db.PostSnapshot, revisionType, changedBy string) *db.PostRevision {
	changes := Diff(old, updated)
	if len(changes) == 0 {
		return nil
	}

	if strings.TrimSpace(changedBy) == "" {
		changedBy = db.DefaultAuthor
	}
	if revisionType == "" {
		revisionType = db.RevisionTypeManual
	}

	revision := db.PostRevision{
		PostID:       postID,
		Snapshot:     updated,
		Changes:      changes,
		ChangedBy:    changedBy,
		RevisionType: revisionType,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.Create(&revision).Error; err != nil {
		metrics.RevisionFailures.WithLabelValues("persist").Inc()
		s.logger.Error("failed to persist revision",
			zap.Uint("post_id", postID),
			zap.String("revision_type", revisionType),
			zap.Error(err))
		return nil
	}
	metrics.RevisionsRecorded.WithLabelValues(revisionType).Inc()

	if _, err := s.Prune(postID); err != nil {
		metrics.RevisionFailures.WithLabelValues("prune").Inc()
		s.logger.Error("failed to prune revisions",
			zap.Uint("post_id", postID),
			zap.Error(err))
	}
	return &revision
}

// Prune 删除超出保留上限的最旧修订，返回删除数量。
func (s *RevisionService) Prune(postID uint) (int, error) {
	var count int64
	if err := s.db.Model(&db.PostRevision{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	overflow := int(count) - MaxRevisionsPerPost
	if overflow <= 0 {
		return 0, nil
	}

	var ids []uint
	if err := s.db.Model(&db.PostRevision{}).
		Where("post_id = ?", postID).
		Order("created_at asc, id asc").
		Limit(overflow).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.db.Where("id IN ?", ids).Delete(&db.PostRevision{}).Error; err != nil {
		return 0, err
	}
	metrics.RevisionsPruned.Add(float64(len(ids)))
	return len(ids), nil
}

// PruneAll 对所有超出上限的文章执行清理。
func (s *RevisionService) PruneAll() (int, error) {
	var postIDs []uint
	if err := s.db.Model(&db.PostRevision{}).
		Select("post_id").
		Group("post_id").
		Having("COUNT(*) > ?", MaxRevisionsPerPost).
		Pluck("post_id", &postIDs).Error; err != nil {
		return 0, err
	}

	total := 0
	var errs []error
	for _, postID := range postIDs {
		removed, err := s.Prune(postID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += removed
	}
	return total, errors.Join(errs...)
}

// List returns revisions newest first.
func (s *RevisionService) List(postID uint, limit int) ([]db.PostRevision, error) {
	_, limit = normalizePage(1, limit, defaultRevisionListLen, MaxRevisionsPerPost)

	var revisions []db.PostRevision
	err := s.db.Where("post_id = ?", postID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&revisions).Error
	return revisions, err
}

// Get 获取属于指定文章的修订。
func (s *RevisionService) Get(postID, revisionID uint) (*db.PostRevision, error) {
	var revision db.PostRevision
	if err := s.db.Where("id = ? AND post_id = ?", revisionID, postID).First(&revision).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRevisionNotFound
		}
		return nil, err
	}
	return &revision, nil
}

// PatchFromSnapshot 将快照转换为覆盖全部可追踪字段的补丁。
func PatchFromSnapshot(snapshot db.PostSnapshot) PostPatch {
	title := snapshot.Title
	subtitle := snapshot.Subtitle
	author := snapshot.Author
	category := snapshot.Category
	tags := stringsOrEmpty(snapshot.Tags)
	featuredImage := snapshot.FeaturedImage
	introText := snapshot.IntroText
	sections := []db.ContentSection(sectionsOrEmpty(snapshot.ContentSections))
	metaDescription := snapshot.MetaDescription
	published := snapshot.Published
	publishDate := snapshot.PublishDate
	featured := snapshot.Featured

	return PostPatch{
		Title:           &title,
		Subtitle:        &subtitle,
		Author:          &author,
		Category:        &category,
		Tags:            &tags,
		FeaturedImage:   &featuredImage,
		IntroText:       &introText,
		ContentSections: &sections,
		MetaDescription: &metaDescription,
		Published:       &published,
		PublishDate:     &publishDate,
		Featured:        &featured,
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSections(a, b []db.ContentSection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string{}, values...)
}

func sectionsOrEmpty(sections []db.ContentSection) db.ContentSections {
	if sections == nil {
		return db.ContentSections{}
	}
	return append(db.ContentSections{}, sections...)
}

func timeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
