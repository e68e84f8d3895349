package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/cache"
	"github.com/homesite/internal/db"
	"github.com/homesite/internal/service"
)

// HealthCheck 提供负载均衡与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	cacheStatus := "up"
	if err := a.cache.Health(c.Request.Context()); err != nil {
		if errors.Is(err, cache.ErrCacheDisabled) {
			cacheStatus = "disabled"
		} else {
			cacheStatus = "down"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
		"cache":    cacheStatus,
	})
}

type settingsRequest struct {
	SiteName     string               `json:"siteName"`
	Tagline      string               `json:"tagline"`
	ContactEmail string               `json:"contactEmail"`
	ContactPhone string               `json:"contactPhone"`
	Address      string               `json:"address"`
	Categories   []db.SettingCategory `json:"categories"`
	Email        db.EmailDelivery     `json:"email"`
}

// GetPublicSettings 返回访客可见的站点设置。
func (a *API) GetPublicSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings.Public()})
}

// GetCategories 返回文章分类及站点配置的分类描述。
func (a *API) GetCategories(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":           settings.Categories,
		"postCategories": db.PostCategories,
	})
}

// GetSystemSettings 返回当前站点设置（隐藏邮件密码）。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings.Redacted()})
}

// UpdateSystemSettings 保存站点设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req, "invalid settings payload") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SiteSettingsInput{
		SiteName:     req.SiteName,
		Tagline:      req.Tagline,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		Categories:   req.Categories,
		Email:        req.Email,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings.Redacted(), "message": "settings saved"})
}

// GetOverview 返回后台仪表盘统计。
func (a *API) GetOverview(c *gin.Context) {
	overview, err := a.analytics.Overview(queryInt(c, "limit"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": overview})
}
