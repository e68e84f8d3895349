package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/homesite/internal/cache"
	"github.com/homesite/internal/logging"
	"go.uber.org/zap"
)

// Challenge 是评论前需要回答的简单算术题。
type Challenge struct {
	Problem string `json:"problem"`
	answer  int
}

// NewChallenge 生成一道操作数较小的算术题。
func NewChallenge() Challenge {
	a := rand.Intn(10) + 1
	b := rand.Intn(10) + 1
	switch rand.Intn(3) {
	case 0:
		return Challenge{Problem: fmt.Sprintf("%d + %d", a, b), answer: a + b}
	case 1:
		if b > a {
			a, b = b, a
		}
		return Challenge{Problem: fmt.Sprintf("%d - %d", a, b), answer: a - b}
	default:
		return Challenge{Problem: fmt.Sprintf("%d x %d", a, b), answer: a * b}
	}
}

// VerifyChallenge 重新计算题目并与提交的答案比较。
func VerifyChallenge(problem, answer string) bool {
	var a, b int
	var op string
	if _, err := fmt.Sscanf(strings.TrimSpace(problem), "%d %s %d", &a, &op, &b); err != nil {
		return false
	}
	got, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return false
	}

	switch op {
	case "+":
		return got == a+b
	case "-":
		return got == a-b
	case "x", "*":
		return got == a*b
	default:
		return false
	}
}

var (
	spamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(viagra|cialis|levitra)\b`),
		regexp.MustCompile(`(?i)\b(casino|poker|betting|lottery)\b`),
		regexp.MustCompile(`(?i)\b(payday|cash advance)\s+loans?\b`),
		regexp.MustCompile(`(?i)\bbuy\s+(followers|likes|backlinks)\b`),
		regexp.MustCompile(`(?i)\b(crypto|bitcoin)\s+(giveaway|doubler)\b`),
		regexp.MustCompile(`(?i)\bseo\s+services\b`),
		regexp.MustCompile(`(?i)\bclick\s+here\s+to\s+(win|claim)\b`),
	}
	linkPattern = regexp.MustCompile(`(?i)https?://`)
)

const maxLinksPerComment = 3

// IsSpam reports whether content matches a known spam pattern or carries too many links.
func IsSpam(content string) bool {
	for _, pattern := range spamPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return len(linkPattern.FindAllStringIndex(content, -1)) > maxLinksPerComment
}

// recentCommentCounter 由 CommentService 实现，作为无 Redis 时的回退计数来源。
type recentCommentCounter interface {
	CountRecentByIP(ip string, since time.Time) (int64, error)
}

// CommentRateLimiter limits comment submissions per IP within a sliding window.
type CommentRateLimiter struct {
	cache    *cache.Cache
	fallback recentCommentCounter
	limit    int
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCommentRateLimiter 构造限流器；limit <= 0 表示关闭限流。
func NewCommentRateLimiter(c *cache.Cache, comments *CommentService, limit int, window time.Duration) *CommentRateLimiter {
	limiter := &CommentRateLimiter{
		cache:  c,
		limit:  limit,
		window: window,
		logger: logging.WithComponent("rate_limiter"),
		now:    time.Now,
	}
	if comments != nil {
		limiter.fallback = comments
	}
	return limiter
}

// Allow 判断该 IP 是否还能继续提交评论。
func (l *CommentRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	ip = strings.TrimSpace(ip)
	if l == nil || l.limit <= 0 || l.window <= 0 || ip == "" {
		return true, nil
	}

	if l.cache.Enabled() {
		count, err := l.cache.IncrWindow(ctx, "comments:rate:"+ip, l.window)
		if err == nil {
			return count <= int64(l.limit), nil
		}
		if !errors.Is(err, cache.ErrCacheDisabled) {
			l.logger.Warn("redis rate limit failed, falling back to database",
				zap.String("ip", ip),
				zap.Error(err))
		}
	}

	if l.fallback == nil {
		return true, nil
	}
	count, err := l.fallback.CountRecentByIP(ip, l.now().Add(-l.window))
	if err != nil {
		return false, err
	}
	return count < int64(l.limit), nil
}
