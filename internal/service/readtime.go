package service

import (
	"strings"

	"github.com/homesite/internal/db"
)

// WordsPerMinute 是阅读时长估算使用的阅读速度。
const WordsPerMinute = 200

// CalculateReadTime 根据导语与正文段落估算阅读分钟数，最少为 1。
func CalculateReadTime(introText string, sections []db.ContentSection) int {
	var b strings.Builder
	b.WriteString(introText)
	for _, section := range sections {
		b.WriteString(" ")
		b.WriteString(section.Heading)
		b.WriteString(" ")
		b.WriteString(section.Body)
	}

	words := len(strings.Fields(b.String()))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
