package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/homesite/internal/db"
)

type revisionList struct {
	Data []db.PostRevision `json:"data"`
}

func TestRevisionsListAndRestore(t *testing.T) {
	s := setupTestServer(t)
	post := s.createPost(t, postPayload("Hello World"))

	w := s.admin(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), map[string]interface{}{"title": "Hello World!"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var list revisionList
	w = s.admin(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/revisions", post.ID), nil)
	decodeBody(t, w, &list)
	if len(list.Data) != 2 {
		t.Fatalf("expected initial and update revisions, got %d", len(list.Data))
	}
	latest := list.Data[0]
	if len(latest.Changes) != 1 || latest.Changes[0].Field != "title" {
		t.Fatalf("expected a single title change, got %+v", latest.Changes)
	}
	if latest.ChangedBy != "tester" {
		t.Fatalf("expected change to be attributed to tester, got %q", latest.ChangedBy)
	}
	initial := list.Data[1]

	w = s.admin(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/revisions/%d", post.ID, initial.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = s.admin(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/restore/%d", post.ID, initial.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env postEnvelope
	decodeBody(t, w, &env)
	if env.Data.Title != "Hello World" {
		t.Fatalf("expected title to be restored, got %q", env.Data.Title)
	}

	w = s.admin(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/revisions?limit=1", post.ID), nil)
	decodeBody(t, w, &list)
	if len(list.Data) != 1 || list.Data[0].RevisionType != db.RevisionTypeManual {
		t.Fatalf("expected restore to record a manual revision, got %+v", list.Data)
	}
	restored := list.Data[0].Changes
	if len(restored) != 1 || restored[0].Field != "title" || restored[0].NewValue != "Hello World" {
		t.Fatalf("expected restore to revert the title, got %+v", restored)
	}
}

func TestRevisionErrors(t *testing.T) {
	s := setupTestServer(t)
	post := s.createPost(t, postPayload("Hello World"))

	w := s.admin(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/revisions/999", post.ID), nil)
	expectError(t, w, http.StatusNotFound, codeNotFound)

	w = s.admin(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/restore/999", post.ID), nil)
	expectError(t, w, http.StatusNotFound, codeNotFound)

	w = s.admin(t, http.MethodGet, "/api/posts/999/revisions", nil)
	expectError(t, w, http.StatusNotFound, codeNotFound)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/revisions", post.ID), nil)
	expectError(t, w, http.StatusUnauthorized, codeUnauthorized)
}
