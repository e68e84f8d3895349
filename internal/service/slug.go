package service

import (
	"regexp"
	"strings"
)

// slugSpace 覆盖 ASCII 空白、\v 以及 Unicode 空格（含不换行空格、全角空格、BOM）。
const slugSpace = `\s\x0B\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	slugInvalidChars = regexp.MustCompile(`[^\w` + slugSpace + `-]`)
	slugSeparators   = regexp.MustCompile(`[` + slugSpace + `_-]+`)
)

// Slugify 将标题转换为 URL 安全的 slug，结果只包含 [a-z0-9-]。
func Slugify(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
