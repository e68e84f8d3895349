package router

import (
	"fmt"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/config"
	"github.com/homesite/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionName = "homesite_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, api *handler.API) (*gin.Engine, error) {
	r := gin.New()
	// 仅信任显式配置的代理，否则 ClientIP 使用连接地址
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(handler.Recovery(), handler.RequestID(), handler.RequestLogger())

	// 配置会话中间件，评论验证题保存在会话中
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	uploadURL := strings.TrimSpace(cfg.UploadURLPath)
	if uploadURL == "" {
		uploadURL = api.UploadURL()
	}
	r.Static(uploadURL, api.UploadDir())

	r.GET("/health", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	public.Use(api.OptionalAuth())
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/:id", api.GetPost)
		public.GET("/posts/:id/comments", api.ListComments)
		public.POST("/posts/:id/comments", api.CreateComment)

		public.GET("/challenge", api.GetChallenge)
		public.GET("/settings", api.GetPublicSettings)
		public.GET("/categories", api.GetCategories)
		public.GET("/tags", api.ListTags)

		public.POST("/auth/login", api.Login)
	}

	// 需要认证的管理接口
	admin := r.Group("/api")
	admin.Use(api.AuthRequired())
	{
		admin.GET("/auth/me", api.Me)

		admin.POST("/posts", api.CreatePost)
		admin.PUT("/posts/:id", api.UpdatePost)
		admin.DELETE("/posts/:id", api.DeletePost)
		admin.POST("/posts/bulk/:action", api.BulkPosts)

		admin.GET("/posts/:id/revisions", api.ListRevisions)
		admin.GET("/posts/:id/revisions/:revisionId", api.GetRevision)
		admin.POST("/posts/:id/restore/:revisionId", api.RestoreRevision)

		admin.GET("/admin/comments/all", api.ListAllComments)
		admin.PUT("/admin/comments/:id/approve", api.ApproveComment)
		admin.PUT("/admin/comments/:id/reject", api.RejectComment)
		admin.DELETE("/admin/comments/:id", api.DeleteComment)

		admin.GET("/admin/overview", api.GetOverview)
		admin.GET("/admin/settings", api.GetSystemSettings)
		admin.PUT("/admin/settings", api.UpdateSystemSettings)
		admin.POST("/admin/uploads", api.UploadImage)
	}

	return r, nil
}
