package handler

import (
	"time"

	"github.com/homesite/internal/cache"
	"github.com/homesite/internal/logging"
	"github.com/homesite/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 汇总构造 API 所需的运行参数。
type Options struct {
	UploadDir         string
	UploadURL         string
	JWTSecret         string
	JWTTTL            time.Duration
	Cache             *cache.Cache
	CommentRateLimit  int
	CommentRateWindow time.Duration
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	cache     *cache.Cache
	blog      *service.BlogService
	comments  *service.CommentService
	tags      *service.TagService
	system    *service.SystemSettingService
	analytics *service.AnalyticsService
	auth      *service.AuthService
	logger    *zap.Logger
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	posts := service.NewPostService(gdb)
	revisions := service.NewRevisionService(gdb)
	comments := service.NewCommentService(gdb)
	limiter := service.NewCommentRateLimiter(opts.Cache, comments, opts.CommentRateLimit, opts.CommentRateWindow)

	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}
	uploadURL := opts.UploadURL
	if uploadURL == "" {
		uploadURL = "/static/uploads"
	}

	return &API{
		db:        gdb,
		cache:     opts.Cache,
		blog:      service.NewBlogService(gdb, posts, revisions, comments, limiter),
		comments:  comments,
		tags:      service.NewTagService(gdb),
		system:    service.NewSystemSettingService(gdb),
		analytics: service.NewAnalyticsService(gdb),
		auth:      service.NewAuthService(gdb, opts.JWTSecret, opts.JWTTTL),
		logger:    logging.WithComponent("http"),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}

// Blog exposes the blog facade for background jobs.
func (a *API) Blog() *service.BlogService {
	return a.blog
}

// UploadDir 返回上传文件的存储目录。
func (a *API) UploadDir() string {
	return a.uploadDir
}

// UploadURL 返回上传文件的访问前缀。
func (a *API) UploadURL() string {
	return a.uploadURL
}
