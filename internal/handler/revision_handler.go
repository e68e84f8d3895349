package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRevisions 按时间倒序返回文章修订。
func (a *API) ListRevisions(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	revisions, err := a.blog.ListRevisions(id, queryInt(c, "limit"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": revisions})
}

// GetRevision 返回单条修订。
func (a *API) GetRevision(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	revisionID, ok := requireUintParam(c, "revisionId")
	if !ok {
		return
	}
	revision, err := a.blog.GetRevision(id, revisionID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": revision})
}

// RestoreRevision 将文章恢复到指定修订。
func (a *API) RestoreRevision(c *gin.Context) {
	id, ok := requireUintParam(c, "id")
	if !ok {
		return
	}
	revisionID, ok := requireUintParam(c, "revisionId")
	if !ok {
		return
	}
	post, err := a.blog.RestoreRevision(id, revisionID, actorName(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newPostResponse(*post), "message": "post restored"})
}
