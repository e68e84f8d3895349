package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/service"
	"go.uber.org/zap"
)

// 错误响应中的 code 取值。
const (
	codeValidation    = "VALIDATION_ERROR"
	codeNotFound      = "NOT_FOUND"
	codeConflict      = "CONFLICT"
	codeCaptchaFailed = "CAPTCHA_FAILED"
	codeSpamDetected  = "SPAM_DETECTED"
	codeRateLimited   = "RATE_LIMITED"
	codeUnauthorized  = "UNAUTHORIZED"
	codeBadRequest    = "BAD_REQUEST"
	codeInternal      = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// respondServiceError 将 service 层错误映射为 HTTP 状态与错误码。
func (a *API) respondServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field, "code": codeValidation})
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, service.ErrCaptchaFailed):
		respondError(c, http.StatusBadRequest, codeCaptchaFailed, err.Error())
	case errors.Is(err, service.ErrSpamDetected):
		respondError(c, http.StatusBadRequest, codeSpamDetected, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, codeRateLimited, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, codeUnauthorized, err.Error())
	default:
		a.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// requireUintParam 解析路径参数，失败时直接写入 400。
func requireUintParam(c *gin.Context, key string) (uint, bool) {
	id, err := parseUintParam(c, key)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}

func queryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

func paginationPayload(total int64, page, limit, pages int) gin.H {
	return gin.H{
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": pages,
	}
}

// idList 接受数字或数字字符串组成的 JSON 数组。
type idList []uint

func (l *idList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ids := make([]uint, 0, len(raw))
	for _, item := range raw {
		text := strings.Trim(strings.TrimSpace(string(item)), `"`)
		id, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid post id %s", string(item))
		}
		ids = append(ids, uint(id))
	}
	*l = ids
	return nil
}
