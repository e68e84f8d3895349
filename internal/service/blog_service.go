package service

import (
	"context"
	"strings"
	"time"

	"github.com/homesite/internal/db"
	"github.com/homesite/internal/logging"
	"github.com/homesite/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchedulerActor 是定时发布修订记录的 changedBy。
const SchedulerActor = "scheduler"

// BlogService composes the post, revision and comment stores and owns write ordering.
type BlogService struct {
	db        *gorm.DB
	posts     *PostService
	revisions *RevisionService
	comments  *CommentService
	limiter   *CommentRateLimiter
	logger    *zap.Logger
}

// CommentSubmission 是经过 HTTP 边界校验后的评论提交。
type CommentSubmission struct {
	CommentInput
	ChallengePassed bool
}

// BulkFailure 记录批量操作中单个 id 的失败原因。
type BulkFailure struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// BulkResult 是批量操作的逐项报告。
type BulkResult struct {
	Succeeded []uint        `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// NewBlogService 构造 BlogService。
func NewBlogService(gdb *gorm.DB, posts *PostService, revisions *RevisionService, comments *CommentService, limiter *CommentRateLimiter) *BlogService {
	return &BlogService{
		db:        gdb,
		posts:     posts,
		revisions: revisions,
		comments:  comments,
		limiter:   limiter,
		logger:    logging.WithComponent("blog"),
	}
}

// CreatePost 创建文章并记录一条相对空快照的初始修订。
func (b *BlogService) CreatePost(input PostInput, actor string) (*db.Post, error) {
	post, err := b.posts.Create(input)
	if err != nil {
		return nil, err
	}
	b.revisions.RecordIfChanged(post.ID, db.PostSnapshot{}, db.SnapshotOf(*post), db.RevisionTypeManual, actor)
	return post, nil
}

// UpdatePost applies patch and records a manual revision of the fields that changed.
func (b *BlogService) UpdatePost(id uint, patch PostPatch, actor string) (*db.Post, error) {
	return b.updatePost(id, patch, db.RevisionTypeManual, actor)
}

func (b *BlogService) updatePost(id uint, patch PostPatch, revisionType, actor string) (*db.Post, error) {
	update, err := b.posts.Update(id, patch)
	if err != nil {
		return nil, err
	}
	b.revisions.RecordIfChanged(id, db.SnapshotOf(update.Before), db.SnapshotOf(update.After), revisionType, actor)
	return &update.After, nil
}

// DeletePost 在同一事务中删除文章及其评论与修订。
func (b *BlogService) DeletePost(id uint) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		if err := b.posts.withDB(tx).Delete(id); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&db.PostRevision{}).Error
	})
}

// GetPost 获取文章；未发布文章仅对管理员可见。
func (b *BlogService) GetPost(idOrSlug string, includeUnpublished bool) (*db.Post, error) {
	post, err := b.posts.Get(idOrSlug)
	if err != nil {
		return nil, err
	}
	if !post.Published && !includeUnpublished {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ViewPost 获取文章并累加浏览量，计数失败不会影响读取。
func (b *BlogService) ViewPost(idOrSlug string, includeUnpublished bool) (*db.Post, error) {
	post, err := b.GetPost(idOrSlug, includeUnpublished)
	if err != nil {
		return nil, err
	}
	if err := b.posts.IncrementViews(post.ID); err != nil {
		b.logger.Warn("failed to increment views", zap.Uint("post_id", post.ID), zap.Error(err))
		return post, nil
	}
	post.Views++
	return post, nil
}

// ListPosts 分页列出文章。
func (b *BlogService) ListPosts(filter PostFilter) (*PostListResult, error) {
	return b.posts.List(filter)
}

// AddComment checks the challenge, spam patterns and rate limit in that order before storing.
func (b *BlogService) AddComment(ctx context.Context, postID uint, submission CommentSubmission) (*db.Comment, error) {
	if !submission.ChallengePassed {
		metrics.CommentsRejected.WithLabelValues("captcha").Inc()
		return nil, ErrCaptchaFailed
	}
	if IsSpam(submission.Content) || IsSpam(submission.Author) {
		metrics.CommentsRejected.WithLabelValues("spam").Inc()
		return nil, ErrSpamDetected
	}

	allowed, err := b.limiter.Allow(ctx, submission.IPAddress)
	if err != nil {
		return nil, err
	}
	if !allowed {
		metrics.CommentsRejected.WithLabelValues("rate_limit").Inc()
		return nil, ErrRateLimited
	}

	comment, err := b.comments.Add(postID, submission.CommentInput)
	if err != nil {
		return nil, err
	}
	metrics.CommentsAccepted.Inc()
	return comment, nil
}

// ListComments 列出文章评论，文章不存在时返回 ErrPostNotFound。
func (b *BlogService) ListComments(postID uint, page, limit int, approvedOnly bool) (*CommentListResult, error) {
	if _, err := b.posts.GetByID(postID); err != nil {
		return nil, err
	}
	return b.comments.List(postID, page, limit, approvedOnly)
}

// ListRevisions 按时间倒序返回文章修订。
func (b *BlogService) ListRevisions(postID uint, limit int) ([]db.PostRevision, error) {
	if _, err := b.posts.GetByID(postID); err != nil {
		return nil, err
	}
	return b.revisions.List(postID, limit)
}

// GetRevision 获取单条修订。
func (b *BlogService) GetRevision(postID, revisionID uint) (*db.PostRevision, error) {
	return b.revisions.Get(postID, revisionID)
}

// RestoreRevision writes the revision snapshot back through the normal update path,
// which records the restore as a new manual revision.
func (b *BlogService) RestoreRevision(postID, revisionID uint, actor string) (*db.Post, error) {
	revision, err := b.revisions.Get(postID, revisionID)
	if err != nil {
		return nil, err
	}
	return b.UpdatePost(postID, PatchFromSnapshot(revision.Snapshot), actor)
}

// BulkSetPublished 批量发布或下线文章。
func (b *BlogService) BulkSetPublished(ids []uint, published bool, actor string) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, requiredError("postIds")
	}
	scheduled := false
	patch := PostPatch{Published: &published}
	if published {
		patch.Scheduled = &scheduled
	}
	return runBulk(ids, func(id uint) error {
		_, err := b.UpdatePost(id, patch, actor)
		return err
	}), nil
}

// BulkSetCategory 批量修改文章分类。
func (b *BlogService) BulkSetCategory(ids []uint, category, actor string) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, requiredError("postIds")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return BulkResult{}, requiredError("category")
	}
	if !db.IsValidCategory(category) {
		return BulkResult{}, newValidationError("category", "must be one of: "+strings.Join(db.PostCategories, ", "))
	}
	return runBulk(ids, func(id uint) error {
		_, err := b.UpdatePost(id, PostPatch{Category: &category}, actor)
		return err
	}), nil
}

// BulkDelete 批量删除文章。
func (b *BlogService) BulkDelete(ids []uint) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, requiredError("postIds")
	}
	return runBulk(ids, b.DeletePost), nil
}

// PublishDue publishes scheduled posts whose publish date has passed.
func (b *BlogService) PublishDue(now time.Time) (int, error) {
	due, err := b.posts.DuePosts(now)
	if err != nil {
		return 0, err
	}

	published := true
	scheduled := false
	patch := PostPatch{Published: &published, Scheduled: &scheduled}

	count := 0
	for _, post := range due {
		if _, err := b.updatePost(post.ID, patch, db.RevisionTypeScheduledPublish, SchedulerActor); err != nil {
			b.logger.Error("scheduled publish failed", zap.Uint("post_id", post.ID), zap.Error(err))
			continue
		}
		count++
		metrics.ScheduledPublishes.Inc()
	}
	return count, nil
}

// PruneRevisions 清理所有超出上限的修订。
func (b *BlogService) PruneRevisions() (int, error) {
	return b.revisions.PruneAll()
}

func runBulk(ids []uint, op func(id uint) error) BulkResult {
	result := BulkResult{Succeeded: []uint{}, Failed: []BulkFailure{}}
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if err := op(id); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}
