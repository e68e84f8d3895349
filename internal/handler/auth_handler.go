package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/service"
)

const adminClaimsKey = "admin_claims"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 校验管理员账号并返回 JWT。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	token, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Me 返回当前令牌对应的管理员。
func (a *API) Me(c *gin.Context) {
	claims := adminClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        claims.UserID(),
		"username":  claims.Username,
		"expiresAt": claims.ExpiresAt.Time,
	})
}

// AuthRequired 要求请求携带有效的 Bearer 令牌。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.claimsFromRequest(c)
		if err != nil || claims == nil {
			respondError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth 在携带有效令牌时识别管理员，否则按访客处理。
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.claimsFromRequest(c); err == nil && claims != nil {
			c.Set(adminClaimsKey, claims)
		}
		c.Next()
	}
}

func (a *API) claimsFromRequest(c *gin.Context) (*service.AdminClaims, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return nil, nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, service.ErrInvalidToken
	}
	return a.auth.ParseToken(token)
}

func adminClaims(c *gin.Context) *service.AdminClaims {
	value, ok := c.Get(adminClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*service.AdminClaims)
	return claims
}

func isAdmin(c *gin.Context) bool {
	return adminClaims(c) != nil
}

// actorName 返回写入修订记录的操作者名称。
func actorName(c *gin.Context) string {
	if claims := adminClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
