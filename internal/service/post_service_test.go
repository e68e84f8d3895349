package service

import (
	"errors"
	"testing"
	"time"

	"github.com/homesite/internal/db"
)

func TestPostService_CreateDerivesSlugAndReadTime(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(validPostInput("Hello World"))
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Fatalf("expected slug hello-world, got %q", post.Slug)
	}
	if post.ReadTime != 2 {
		t.Fatalf("expected read time 2, got %d", post.ReadTime)
	}
	if !post.Published {
		t.Fatal("posts should be published by default")
	}
	if post.Version != 1 {
		t.Fatalf("expected version 1, got %d", post.Version)
	}
	if post.Status() != db.PostStatusPublished {
		t.Fatalf("unexpected status %q", post.Status())
	}
}

func TestPostService_CreateValidatesRequiredFields(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	tests := []struct {
		field  string
		mutate func(*PostInput)
	}{
		{"title", func(in *PostInput) { in.Title = "  " }},
		{"subtitle", func(in *PostInput) { in.Subtitle = "" }},
		{"category", func(in *PostInput) { in.Category = "" }},
		{"category", func(in *PostInput) { in.Category = "Gardening" }},
		{"featuredImage", func(in *PostInput) { in.FeaturedImage = "" }},
		{"introText", func(in *PostInput) { in.IntroText = "" }},
		{"title", func(in *PostInput) { in.Title = "!!!" }},
	}

	for _, tt := range tests {
		input := validPostInput("Validation")
		tt.mutate(&input)
		_, err := svc.Create(input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for %s, got %v", tt.field, err)
		}
		if vErr.Field != tt.field {
			t.Fatalf("expected field %s, got %s", tt.field, vErr.Field)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("validation error should unwrap to ErrValidation")
		}
	}
}

func TestPostService_CreateDefaultsAuthor(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	input := validPostInput("Anonymous")
	input.Author = ""
	post, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Author != db.DefaultAuthor {
		t.Fatalf("expected default author, got %q", post.Author)
	}
}

func TestPostService_CreateRejectsDuplicateSlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	if _, err := svc.Create(validPostInput("Fall Gutter Care")); err != nil {
		t.Fatalf("create first: %v", err)
	}
	_, err := svc.Create(validPostInput("fall gutter care!"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPostService_UniqueIndexBacksSlugCheck(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	first, err := svc.Create(validPostInput("Race"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := *first
	dup.ID = 0
	err = gdb.Create(&dup).Error
	if err == nil || !isUniqueViolation(err) {
		t.Fatalf("expected unique violation from storage layer, got %v", err)
	}
}

func TestPostService_ScheduledCreateRequiresDateAndStaysUnpublished(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	input := validPostInput("Later")
	input.Scheduled = true
	if _, err := svc.Create(input); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without publish date, got %v", err)
	}

	when := time.Now().Add(time.Hour)
	input.PublishDate = &when
	post, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}
	if post.Published || post.Status() != db.PostStatusScheduled {
		t.Fatalf("expected scheduled draft, got published=%v status=%s", post.Published, post.Status())
	}
}

func TestPostService_UpdateRegeneratesSlugAndReadTime(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(validPostInput("Original Title"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sections := []db.ContentSection{{Heading: "Extra", Body: "more words here"}}
	update, err := svc.Update(post.ID, PostPatch{
		Title:           strPtr("Brand New Title"),
		IntroText:       strPtr("short intro"),
		ContentSections: &sections,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if update.After.Slug != "brand-new-title" {
		t.Fatalf("expected regenerated slug, got %q", update.After.Slug)
	}
	if update.After.ReadTime != 1 {
		t.Fatalf("expected recomputed read time 1, got %d", update.After.ReadTime)
	}
	if update.Before.Slug != "original-title" {
		t.Fatalf("before state should be the replaced row, got %q", update.Before.Slug)
	}
	if update.After.Version != post.Version+1 {
		t.Fatalf("expected version bump, got %d", update.After.Version)
	}
	if !update.After.UpdatedAt.After(post.UpdatedAt) && !update.After.UpdatedAt.Equal(post.UpdatedAt) {
		t.Fatalf("updated_at should be refreshed")
	}

	stored, err := svc.GetByID(post.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Slug != "brand-new-title" || stored.Version != 2 {
		t.Fatalf("unexpected stored row: slug=%q version=%d", stored.Slug, stored.Version)
	}
}

func TestPostService_UpdateSlugConflictWithOtherPost(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	if _, err := svc.Create(validPostInput("Taken")); err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(validPostInput("Other"))
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	if _, err := svc.Update(other.ID, PostPatch{Title: strPtr("TAKEN")}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
	if _, err := svc.Update(other.ID, PostPatch{Title: strPtr("Other!")}); err != nil {
		t.Fatalf("retitling to own slug should succeed: %v", err)
	}
}

func TestPostService_UpdateUnknownPost(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	if _, err := svc.Update(999, PostPatch{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostService_StaleVersionLosesRace(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(validPostInput("Racy"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stale := *post

	if _, err := svc.Update(post.ID, PostPatch{Subtitle: strPtr("winner")}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, ok, err := svc.tryUpdate(stale, PostPatch{Subtitle: strPtr("loser")})
	if err != nil {
		t.Fatalf("try update: %v", err)
	}
	if ok {
		t.Fatal("write against a stale version must not apply")
	}

	stored, _ := svc.GetByID(post.ID)
	if stored.Subtitle != "winner" {
		t.Fatalf("stale write overwrote row: %q", stored.Subtitle)
	}
}

func TestPostService_GetByIDOrSlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(validPostInput("Lookup Me"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byID, err := svc.Get("1")
	if err != nil || byID.ID != post.ID {
		t.Fatalf("lookup by id failed: %v", err)
	}
	bySlug, err := svc.Get("lookup-me")
	if err != nil || bySlug.ID != post.ID {
		t.Fatalf("lookup by slug failed: %v", err)
	}
	if _, err := svc.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	numeric, err := svc.Create(validPostInput("2024"))
	if err != nil {
		t.Fatalf("create numeric title: %v", err)
	}
	got, err := svc.Get("2024")
	if err != nil || got.ID != numeric.ID {
		t.Fatalf("numeric slug should resolve after id miss: %v", err)
	}
}

func TestPostService_ListFiltersAndOrdering(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	create := func(title, category string, tags []string, published bool, sortOrder int, day int) *db.Post {
		t.Helper()
		input := validPostInput(title)
		input.Category = category
		input.Tags = tags
		input.Published = boolPtr(published)
		input.SortOrder = sortOrder
		date := base.AddDate(0, 0, day)
		input.PublishDate = &date
		post, err := svc.Create(input)
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return post
	}

	older := create("Older Gutter Guide", db.CategoryGuides, []string{"gutters", "autumn"}, true, 0, 0)
	newer := create("Newer Cleaning Tips", db.CategoryCleaningTips, []string{"kitchen"}, true, 0, 3)
	pinned := create("Pinned Company News", db.CategoryCompanyNews, nil, true, 10, -5)
	create("Draft Seasonal", db.CategorySeasonal, []string{"gutters"}, false, 0, 1)

	list, err := svc.List(PostFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 3 {
		t.Fatalf("expected 3 published posts, got %d", list.Total)
	}
	wantOrder := []uint{pinned.ID, newer.ID, older.ID}
	for i, id := range wantOrder {
		if list.Posts[i].ID != id {
			t.Fatalf("position %d: expected post %d, got %d", i, id, list.Posts[i].ID)
		}
	}

	withDrafts, err := svc.List(PostFilter{IncludeUnpublished: true})
	if err != nil {
		t.Fatalf("list with drafts: %v", err)
	}
	if withDrafts.Total != 4 {
		t.Fatalf("expected 4 posts including drafts, got %d", withDrafts.Total)
	}

	byTag, err := svc.List(PostFilter{Tag: "gutters"})
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if byTag.Total != 1 || byTag.Posts[0].ID != older.ID {
		t.Fatalf("unexpected tag filter result: %#v", byTag.Posts)
	}

	byCategory, err := svc.List(PostFilter{Category: db.CategoryCleaningTips})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if byCategory.Total != 1 || byCategory.Posts[0].ID != newer.ID {
		t.Fatalf("unexpected category filter result")
	}

	bySearch, err := svc.List(PostFilter{Search: "company"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if bySearch.Total != 1 || bySearch.Posts[0].ID != pinned.ID {
		t.Fatalf("unexpected search result")
	}

	paged, err := svc.List(PostFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(paged.Posts) != 1 || paged.TotalPages != 2 || paged.Posts[0].ID != older.ID {
		t.Fatalf("unexpected page: len=%d pages=%d", len(paged.Posts), paged.TotalPages)
	}

	capped, err := svc.List(PostFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("capped list: %v", err)
	}
	if capped.Limit != maxPostPageSize {
		t.Fatalf("expected limit capped at %d, got %d", maxPostPageSize, capped.Limit)
	}
}

func TestPostService_DeleteAndIncrementViews(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(validPostInput("Viewed"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.IncrementViews(post.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := svc.IncrementViews(post.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	stored, _ := svc.GetByID(post.ID)
	if stored.Views != 2 {
		t.Fatalf("expected 2 views, got %d", stored.Views)
	}
	if stored.Version != post.Version {
		t.Fatalf("views must not bump version")
	}

	if err := svc.Delete(post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestPostService_DuePosts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	dueInput := validPostInput("Due")
	dueInput.Scheduled = true
	dueInput.PublishDate = &past
	due, err := svc.Create(dueInput)
	if err != nil {
		t.Fatalf("create due: %v", err)
	}

	laterInput := validPostInput("Later")
	laterInput.Scheduled = true
	laterInput.PublishDate = &future
	if _, err := svc.Create(laterInput); err != nil {
		t.Fatalf("create later: %v", err)
	}

	posts, err := svc.DuePosts(time.Now())
	if err != nil {
		t.Fatalf("due posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != due.ID {
		t.Fatalf("unexpected due posts: %#v", posts)
	}
}
