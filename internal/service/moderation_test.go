package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewChallengeIsSolvable(t *testing.T) {
	for i := 0; i < 100; i++ {
		challenge := NewChallenge()
		if !VerifyChallenge(challenge.Problem, strconv.Itoa(challenge.answer)) {
			t.Fatalf("challenge %q rejected its own answer %d", challenge.Problem, challenge.answer)
		}
		if challenge.answer < 0 {
			t.Fatalf("challenge %q has negative answer", challenge.Problem)
		}
	}
}

func TestVerifyChallenge(t *testing.T) {
	tests := []struct {
		problem string
		answer  string
		want    bool
	}{
		{"3 + 4", "7", true},
		{"3 + 4", " 7 ", true},
		{"9 - 2", "7", true},
		{"6 x 7", "42", true},
		{"6 * 7", "42", true},
		{"3 + 4", "8", false},
		{"3 + 4", "seven", false},
		{"3 / 4", "0", false},
		{"", "0", false},
	}
	for _, tt := range tests {
		if got := VerifyChallenge(tt.problem, tt.answer); got != tt.want {
			t.Fatalf("VerifyChallenge(%q, %q) = %v, want %v", tt.problem, tt.answer, got, tt.want)
		}
	}
}

func TestIsSpam(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"Great tips on cleaning the gutters, thanks!", false},
		{"Cheap VIAGRA here", true},
		{"Best online casino bonus", true},
		{"We offer SEO services for your site", true},
		{"see https://a.io https://b.io https://c.io", false},
		{"see https://a.io http://b.io https://c.io https://d.io", true},
	}
	for _, tt := range tests {
		if got := IsSpam(tt.content); got != tt.want {
			t.Fatalf("IsSpam(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

type stubCounter struct {
	count int64
	err   error
	since time.Time
}

func (s *stubCounter) CountRecentByIP(ip string, since time.Time) (int64, error) {
	s.since = since
	return s.count, s.err
}

func TestCommentRateLimiterFallsBackToDatabaseCount(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	counter := &stubCounter{count: 4}
	limiter := NewCommentRateLimiter(nil, nil, 5, 10*time.Minute)
	limiter.fallback = counter
	limiter.now = func() time.Time { return fixed }

	allowed, err := limiter.Allow(context.Background(), "1.1.1.1")
	if err != nil || !allowed {
		t.Fatalf("expected allowed under limit, got %v %v", allowed, err)
	}
	if !counter.since.Equal(fixed.Add(-10 * time.Minute)) {
		t.Fatalf("unexpected window start %s", counter.since)
	}

	counter.count = 5
	allowed, err = limiter.Allow(context.Background(), "1.1.1.1")
	if err != nil || allowed {
		t.Fatalf("expected limit reached, got %v %v", allowed, err)
	}

	counter.err = errors.New("boom")
	if _, err := limiter.Allow(context.Background(), "1.1.1.1"); err == nil {
		t.Fatal("expected counter error to surface")
	}
}

func TestCommentRateLimiterDisabled(t *testing.T) {
	var nilLimiter *CommentRateLimiter
	if ok, err := nilLimiter.Allow(context.Background(), "1.1.1.1"); !ok || err != nil {
		t.Fatalf("nil limiter should allow")
	}

	limiter := NewCommentRateLimiter(nil, nil, 0, time.Minute)
	if ok, _ := limiter.Allow(context.Background(), "1.1.1.1"); !ok {
		t.Fatal("zero limit should disable limiting")
	}

	limiter = NewCommentRateLimiter(nil, nil, 1, time.Minute)
	if ok, _ := limiter.Allow(context.Background(), strings.Repeat(" ", 3)); !ok {
		t.Fatal("unknown ip should not be limited")
	}
}
