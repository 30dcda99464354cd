package record

import (
	"bytes"
	"regexp"
	"strings"
)

// Record 是落盘的一条投稿（<stem>.md 的内容来源）。
type Record struct {
	User        string
	Title       string
	Description string
	Sources     []string
}

// ownerRe 接受标记内任意非空白的用户名（GitHub 用户名可含 '-'），标记必须独占一行。
var ownerRe = regexp.MustCompile(`^\s*<!--\s*participant:\s*(\S+?)\s*-->\s*$`)

// Encode 把 Record 渲染为 Markdown。
//
// 格式（固定）：
//
//	<!-- participant: <user> -->   （user 为空时整行连同空行省略）
//
//	# <title>
//
//	<description>
//
//	## Fuentes                     （sources 为空时整段省略）
//
//	- <url>
func Encode(r Record) []byte {
	var b strings.Builder
	if u := strings.TrimSpace(r.User); u != "" {
		b.WriteString("<!-- participant: ")
		b.WriteString(u)
		b.WriteString(" -->\n\n")
	}
	b.WriteString("# ")
	b.WriteString(r.Title)
	b.WriteString("\n\n")
	b.WriteString(r.Description)
	b.WriteString("\n\n")
	if len(r.Sources) > 0 {
		b.WriteString("## Fuentes\n\n")
		for _, s := range r.Sources {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// Owner 返回首行 participant 标记的用户名；首行不是标记时返回空串。
//
// 正文里出现的标记一律不算：没有提交者的记录不能被描述里手写的标记认领。
func Owner(content []byte) string {
	first, _, _ := bytes.Cut(content, []byte("\n"))
	m := ownerRe.FindSubmatch(first)
	if m == nil {
		return ""
	}
	return string(m[1])
}
