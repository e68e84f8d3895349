package service

import (
	"errors"
	"html"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/homesite/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const (
	defaultCommentPageSize = 20
	maxCommentPageSize     = 100
	maxCommentLength       = 5000
)

// CommentService 提供文章评论的存储与审核能力。
type CommentService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// CommentInput represents a visitor submission.
type CommentInput struct {
	Author          string
	Email           string
	Content         string
	ParentCommentID *uint
	IPAddress       string
}

// CommentListResult aggregates paginated comments of one post.
type CommentListResult struct {
	Comments   []db.Comment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CommentThread 是评论及其回复组成的树节点。
type CommentThread struct {
	db.Comment
	Replies []*CommentThread `json:"replies"`
}

// AdminComment 在评论上附加所属文章标题。
type AdminComment struct {
	db.Comment
	PostTitle string `json:"postTitle"`
	PostSlug  string `json:"postSlug"`
}

// AdminCommentListResult aggregates the cross-post moderation view.
type AdminCommentListResult struct {
	Comments   []AdminComment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewCommentService 构造 CommentService。
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{
		db:        gdb,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// Add 校验并保存一条评论，新评论默认直接通过审核。
func (s *CommentService) Add(postID uint, input CommentInput) (*db.Comment, error) {
	author, email, content, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var post db.Post
	if err := s.db.Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if input.ParentCommentID != nil {
		var parent db.Comment
		err := s.db.Select("id").
			Where("id = ? AND post_id = ?", *input.ParentCommentID, postID).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, err
		}
	}

	comment := db.Comment{
		PostID:          postID,
		ParentCommentID: input.ParentCommentID,
		Author:          author,
		Email:           email,
		Content:         content,
		Approved:        true,
		IPAddress:       strings.TrimSpace(input.IPAddress),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List returns the comments of a post oldest first.
func (s *CommentService) List(postID uint, page, limit int, approvedOnly bool) (*CommentListResult, error) {
	page, limit = normalizePage(page, limit, defaultCommentPageSize, maxCommentPageSize)
	result := &CommentListResult{Page: page, Limit: limit}

	scoped := func() *gorm.DB {
		query := s.db.Model(&db.Comment{}).Where("post_id = ?", postID)
		if approvedOnly {
			query = query.Where("approved = ?", true)
		}
		return query
	}
	if err := scoped().Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if err := scoped().Order("created_at asc, id asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result.Comments).Error; err != nil {
		return nil, err
	}

	result.TotalPages = int(math.Ceil(float64(result.Total) / float64(limit)))
	return result, nil
}

// BuildThreads 将平铺的评论组装为回复树；父评论不在列表中的回复作为根节点出现。
func BuildThreads(comments []db.Comment) []*CommentThread {
	nodes := make(map[uint]*CommentThread, len(comments))
	ordered := make([]*CommentThread, 0, len(comments))
	for _, comment := range comments {
		node := &CommentThread{Comment: comment, Replies: []*CommentThread{}}
		nodes[comment.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*CommentThread, 0, len(comments))
	for _, node := range ordered {
		if node.ParentCommentID != nil {
			if parent, ok := nodes[*node.ParentCommentID]; ok && parent != node {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Approve 将评论标记为已审核，重复调用无副作用。
func (s *CommentService) Approve(id uint) (*db.Comment, error) {
	return s.setApproved(id, true)
}

// Reject 将评论标记为未通过，重复调用无副作用。
func (s *CommentService) Reject(id uint) (*db.Comment, error) {
	return s.setApproved(id, false)
}

func (s *CommentService) setApproved(id uint, approved bool) (*db.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if comment.Approved == approved {
		return comment, nil
	}
	if err := s.db.Model(&db.Comment{}).Where("id = ?", id).Update("approved", approved).Error; err != nil {
		return nil, err
	}
	comment.Approved = approved
	return comment, nil
}

// Get fetches a comment by id.
func (s *CommentService) Get(id uint) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// Delete 硬删除评论，回复不会级联删除。
func (s *CommentService) Delete(id uint) error {
	result := s.db.Delete(&db.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// ListAll 返回跨文章的评论列表，最新的在前，并附带文章标题。
func (s *CommentService) ListAll(page, limit int) (*AdminCommentListResult, error) {
	page, limit = normalizePage(page, limit, defaultCommentPageSize, maxCommentPageSize)
	result := &AdminCommentListResult{Page: page, Limit: limit}

	if err := s.db.Model(&db.Comment{}).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	err := s.db.Model(&db.Comment{}).
		Select("comments.*, posts.title AS post_title, posts.slug AS post_slug").
		Joins("LEFT JOIN posts ON posts.id = comments.post_id").
		Order("comments.created_at desc, comments.id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&result.Comments).Error
	if err != nil {
		return nil, err
	}

	result.TotalPages = int(math.Ceil(float64(result.Total) / float64(limit)))
	return result, nil
}

// Validate 检查访客填写的字段，不访问数据库。
func (s *CommentService) Validate(input CommentInput) error {
	_, _, _, err := s.normalize(input)
	return err
}

func (s *CommentService) normalize(input CommentInput) (author, email, content string, err error) {
	author = strings.TrimSpace(s.plainText(input.Author))
	email = strings.ToLower(strings.TrimSpace(input.Email))
	content = strings.TrimSpace(s.plainText(input.Content))

	switch {
	case author == "":
		return "", "", "", requiredError("author")
	case email == "":
		return "", "", "", requiredError("email")
	case content == "":
		return "", "", "", requiredError("content")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", "", newValidationError("email", "is not a valid address")
	}
	if len([]rune(content)) > maxCommentLength {
		return "", "", "", newValidationError("content", "is too long")
	}
	return author, email, content, nil
}

// CountRecentByIP 统计某 IP 自 since 起提交的评论数。
func (s *CommentService) CountRecentByIP(ip string, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&db.Comment{}).
		Where("ip_address = ? AND created_at >= ?", ip, since.UTC()).
		Count(&count).Error
	return count, err
}

func (s *CommentService) plainText(value string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(value))
}
