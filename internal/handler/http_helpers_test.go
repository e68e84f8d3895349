package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/homesite/internal/logging"
	"github.com/homesite/internal/service"
)

func TestRespondServiceErrorMapping(t *testing.T) {
	api := &API{logger: logging.WithComponent("test")}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &service.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, codeValidation},
		{"post not found", service.ErrPostNotFound, http.StatusNotFound, codeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrRevisionNotFound), http.StatusNotFound, codeNotFound},
		{"slug taken", service.ErrSlugTaken, http.StatusConflict, codeConflict},
		{"version mismatch", service.ErrVersionMismatch, http.StatusConflict, codeConflict},
		{"captcha", service.ErrCaptchaFailed, http.StatusBadRequest, codeCaptchaFailed},
		{"spam", service.ErrSpamDetected, http.StatusBadRequest, codeSpamDetected},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, codeUnauthorized},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			api.respondServiceError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var body errorBody
			decodeBody(t, w, &body)
			if body.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, body.Code)
			}
			if tt.code == codeInternal && strings.Contains(body.Error, "disk") {
				t.Fatalf("internal error details leaked: %q", body.Error)
			}
		})
	}
}

func TestIDListUnmarshal(t *testing.T) {
	var ids idList
	if err := json.Unmarshal([]byte(`[1, "2", " 3 "]`), &ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	for _, raw := range []string{`["abc"]`, `[0]`, `[-1]`, `{"id":1}`} {
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := renderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n\n[link](javascript:alert(1)) <img src=x onerror=alert(1)>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Fatalf("expected table markup, got %q", html)
	}
	if strings.Contains(html, "javascript:") || strings.Contains(html, "onerror") {
		t.Fatalf("expected unsafe markup to be removed, got %q", html)
	}
}
