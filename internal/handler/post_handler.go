package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/db"
	"github.com/homesite/internal/service"
	"go.uber.org/zap"
)

// postRequest 同时用于创建与部分更新，nil 字段表示未提供。
type postRequest struct {
	Title           *string              `json:"title"`
	Subtitle        *string              `json:"subtitle"`
	Author          *string              `json:"author"`
	Category        *string              `json:"category"`
	Tags            *[]string            `json:"tags"`
	FeaturedImage   *string              `json:"featuredImage"`
	IntroText       *string              `json:"introText"`
	ContentSections *[]db.ContentSection `json:"contentSections"`
	MetaDescription *string              `json:"metaDescription"`
	Published       *bool                `json:"published"`
	PublishDate     *time.Time           `json:"publishDate"`
	Featured        *bool                `json:"featured"`
	Scheduled       *bool                `json:"scheduled"`
	SortOrder       *int                 `json:"sortOrder"`
}

func (r postRequest) toInput() service.PostInput {
	input := service.PostInput{
		Title:           deref(r.Title),
		Subtitle:        deref(r.Subtitle),
		Author:          deref(r.Author),
		Category:        deref(r.Category),
		FeaturedImage:   deref(r.FeaturedImage),
		IntroText:       deref(r.IntroText),
		MetaDescription: deref(r.MetaDescription),
		Published:       r.Published,
		PublishDate:     r.PublishDate,
	}
	if r.Tags != nil {
		input.Tags = *r.Tags
	}
	if r.ContentSections != nil {
		input.ContentSections = *r.ContentSections
	}
	if r.Featured != nil {
		input.Featured = *r.Featured
	}
	if r.Scheduled != nil {
		input.Scheduled = *r.Scheduled
	}
	if r.SortOrder != nil {
		input.SortOrder = *r.SortOrder
	}
	return input
}

func (r postRequest) toPatch() service.PostPatch {
	return service.PostPatch{
		Title:           r.Title,
		Subtitle:        r.Subtitle,
		Author:          r.Author,
		Category:        r.Category,
		Tags:            r.Tags,
		FeaturedImage:   r.FeaturedImage,
		IntroText:       r.IntroText,
		ContentSections: r.ContentSections,
		MetaDescription: r.MetaDescription,
		Published:       r.Published,
		PublishDate:     r.PublishDate,
		Featured:        r.Featured,
		Scheduled:       r.Scheduled,
		SortOrder:       r.SortOrder,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

type postResponse struct {
	db.Post
	Status           string            `json:"status"`
	RenderedSections []renderedSection `json:"renderedSections,omitempty"`
}

func newPostResponse(post db.Post) postResponse {
	return postResponse{Post: post, Status: post.Status()}
}

type bulkRequest struct {
	PostIDs  idList `json:"postIds"`
	Category string `json:"category"`
}

// ListPosts 分页返回文章，includeUnpublished 仅对管理员生效。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Category:           c.Query("category"),
		Tag:                c.Query("tag"),
		Search:             c.Query("search"),
		IncludeUnpublished: isAdmin(c) && queryBool(c, "includeUnpublished"),
		Page:               queryInt(c, "page"),
		Limit:              queryInt(c, "limit"),
	}

	result, err := a.blog.ListPosts(filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	data := make([]postResponse, 0, len(result.Posts))
	for _, post := range result.Posts {
		data = append(data, newPostResponse(post))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": paginationPayload(result.Total, result.Page, result.Limit, result.TotalPages),
	})
}

// GetPost 按 id 或 slug 返回文章，并累加浏览量。
func (a *API) GetPost(c *gin.Context) {
	post, err := a.blog.ViewPost(c.Param("id"), isAdmin(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	resp := newPostResponse(*post)
	rendered, err := renderSections(post.ContentSections)
	if err != nil {
		a.logger.Warn("render sections failed", zap.Uint("post_id", post.ID), zap.Error(err))
	} else {
		resp.RenderedSections = rendered
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CreatePost 创建文章。
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.blog.CreatePost(req.toInput(), actorName(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newPostResponse(*post)})
}

// UpdatePost 部分更新文章。
func (a *API) UpdatePost(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.blog.UpdatePost(id, req.toPatch(), actorName(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newPostResponse(*post)})
}

// DeletePost 删除文章及其评论与修订。
func (a *API) DeletePost(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	if err := a.blog.DeletePost(id); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// BulkPosts 执行 publish、unpublish、delete、category 批量操作。
func (a *API) BulkPosts(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}

	var (
		result service.BulkResult
		err    error
	)
	switch action := c.Param("action"); action {
	case "publish":
		result, err = a.blog.BulkSetPublished(req.PostIDs, true, actorName(c))
	case "unpublish":
		result, err = a.blog.BulkSetPublished(req.PostIDs, false, actorName(c))
	case "delete":
		result, err = a.blog.BulkDelete(req.PostIDs)
	case "category":
		result, err = a.blog.BulkSetCategory(req.PostIDs, req.Category, actorName(c))
	default:
		respondError(c, http.StatusBadRequest, codeBadRequest, "unsupported bulk action "+action)
		return
	}
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"success":   len(result.Failed) == 0,
	})
}

// ListTags 返回已发布文章的标签使用统计。
func (a *API) ListTags(c *gin.Context) {
	usage, err := a.tags.PublishedUsage(c.Query("category"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": usage})
}
