package handler

import (
	"bytes"

	"github.com/homesite/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	minifyhtml "github.com/tdewolff/minify/v2/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer    = bluemonday.UGCPolicy()
	htmlMinifier = newHTMLMinifier()
)

func newHTMLMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minifyhtml.Minifier{KeepEndTags: true, KeepDocumentTags: true})
	return m
}

// renderedSection 是段落正文渲染后的安全 HTML。
type renderedSection struct {
	Heading string `json:"heading"`
	HTML    string `json:"html"`
}

// renderMarkdown 将 Markdown 转为经过清洗与压缩的 HTML。
func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())

	minified, err := htmlMinifier.Bytes("text/html", safe)
	if err != nil {
		return string(safe), nil
	}
	return string(minified), nil
}

func renderSections(sections []db.ContentSection) ([]renderedSection, error) {
	out := make([]renderedSection, 0, len(sections))
	for _, section := range sections {
		rendered, err := renderMarkdown(section.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, renderedSection{Heading: section.Heading, HTML: rendered})
	}
	return out, nil
}
