package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/service"
	"go.uber.org/zap"
)

const challengeSessionKey = "comment_challenge"

type commentRequest struct {
	Author          string `json:"author"`
	Email           string `json:"email"`
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parentCommentId"`
	CaptchaAnswer   string `json:"captchaAnswer"`
	CaptchaProblem  string `json:"captchaProblem"`
}

// GetChallenge 生成评论验证题并保存到会话。
func (a *API) GetChallenge(c *gin.Context) {
	challenge := service.NewChallenge()

	session := sessions.Default(c)
	session.Set(challengeSessionKey, challenge.Problem)
	if err := session.Save(); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problem": challenge.Problem})
}

// consumeChallenge 校验会话中签发的题目与答案，题目一经提交即失效。
func (a *API) consumeChallenge(c *gin.Context, problem, answer string) bool {
	session := sessions.Default(c)
	issued, _ := session.Get(challengeSessionKey).(string)
	if issued == "" {
		return false
	}
	session.Delete(challengeSessionKey)
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to clear comment challenge", zap.Error(err))
	}

	if strings.TrimSpace(problem) != issued {
		return false
	}
	return service.VerifyChallenge(issued, answer)
}

// ListComments 返回文章评论及回复树；管理员可看到未审核评论。
func (a *API) ListComments(c *gin.Context) {
	admin := isAdmin(c)
	post, err := a.blog.GetPost(c.Param("id"), admin)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	result, err := a.blog.ListComments(post.ID, queryInt(c, "page"), queryInt(c, "limit"), !admin)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result.Comments,
		"threads":    service.BuildThreads(result.Comments),
		"pagination": paginationPayload(result.Total, result.Page, result.Limit, result.TotalPages),
	})
}

// CreateComment 处理访客评论提交。
func (a *API) CreateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}

	post, err := a.blog.GetPost(c.Param("id"), isAdmin(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	input := service.CommentInput{
		Author:          req.Author,
		Email:           req.Email,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
		IPAddress:       c.ClientIP(),
	}
	// 字段错误不消耗验证题，访客修正后可直接重新提交
	if err := a.comments.Validate(input); err != nil {
		a.respondServiceError(c, err)
		return
	}

	submission := service.CommentSubmission{
		CommentInput:    input,
		ChallengePassed: a.consumeChallenge(c, req.CaptchaProblem, req.CaptchaAnswer),
	}

	comment, err := a.blog.AddComment(c.Request.Context(), post.ID, submission)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": comment, "message": "comment posted"})
}

// ListAllComments 返回跨文章的评论审核列表。
func (a *API) ListAllComments(c *gin.Context) {
	result, err := a.comments.ListAll(queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       result.Comments,
		"pagination": paginationPayload(result.Total, result.Page, result.Limit, result.TotalPages),
	})
}

// ApproveComment 通过评论。
func (a *API) ApproveComment(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	comment, err := a.comments.Approve(id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comment})
}

// RejectComment 驳回评论。
func (a *API) RejectComment(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	comment, err := a.comments.Reject(id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comment})
}

// DeleteComment 删除评论，回复保留。
func (a *API) DeleteComment(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	if err := a.comments.Delete(id); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
