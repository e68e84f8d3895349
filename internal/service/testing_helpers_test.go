package service

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homesite/internal/db"
	"gorm.io/gorm"
)

var testDBCounter atomic.Int64

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBCounter.Add(1))
	gdb, err := db.Open(dsn, nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}

func newTestBlogService(gdb *gorm.DB) *BlogService {
	comments := NewCommentService(gdb)
	return NewBlogService(
		gdb,
		NewPostService(gdb),
		NewRevisionService(gdb),
		comments,
		NewCommentRateLimiter(nil, comments, 0, 0),
	)
}

func validPostInput(title string) PostInput {
	return PostInput{
		Title:         title,
		Subtitle:      "s",
		Author:        "a",
		Category:      db.CategoryHomeCare,
		FeaturedImage: "x.jpg",
		IntroText:     strings.Repeat("word ", 250),
	}
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
