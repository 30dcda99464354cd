package submission

import (
	"regexp"
	"strings"
)

var (
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)[^)]*\)`)
	htmlImageRe     = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']*)["'][^>]*>`)
	attachmentRe    = regexp.MustCompile(`https://github\.com/user-attachments/assets/[a-f0-9\-]+`)
)

// ExtractImageURL 在原始 body 中找第一张图片，按优先级：
// Markdown 图片 -> HTML <img src> -> 裸的附件地址。
//
// 只看每种形式的第一个匹配；空的 src 视为未命中，继续下一种形式。
func ExtractImageURL(body string) (string, bool) {
	if m := markdownImageRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := htmlImageRe.FindStringSubmatch(body); m != nil {
		if u := strings.TrimSpace(m[1]); u != "" {
			return u, true
		}
	}
	if u := attachmentRe.FindString(body); u != "" {
		return u, true
	}
	return "", false
}
