package submission

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// urlRe 与 issue 模板约定的 URL 字符集一致：遇到空白、引号、尖括号、花括号、方括号等即截止。
var urlRe = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")

// listItemRe 匹配 "- x" / "* x" 形式的列表项。
var listItemRe = regexp.MustCompile(`^\s*[-*]\s+`)

// setextUnderlineRe 匹配 setext 标题的下划线行（"===" / "---"）。
var setextUnderlineRe = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)

type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionDescription
	sectionSources
)

// Parse 把 issue body 解析为 Submission。
//
// 先走 HTML 路径；title/description/sources 任一为空时，整体改用 Markdown fallback 重新解析。
func Parse(body string) domain.Submission {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if s, err := ParseHTML(body); err == nil && s.Complete() {
		return s
	}
	return ParseFallback(body)
}

// ParseHTML 是主解析路径：把 body 当作 HTML 遍历。
//
// 规则：
// - 只认 h3；文字包含 Título/Title、Descripción/Description、Fuentes/Sources（忽略大小写、重音与 emoji）
// - 字段值取 h3 之后、下一个 h3 之前的第一个 <p>
// - "Title: value" 形式的行内标题直接取冒号后的值
// - sources 取该段落文本与其中 <a href> 里的全部 URL
// - 同一字段出现多次时只认第一次
func ParseHTML(body string) (domain.Submission, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return domain.Submission{}, err
	}

	s := domain.Submission{Parser: domain.ParserHTML}
	sourcesSeen := false
	doc.Find("h3").Each(func(_ int, h *goquery.Selection) {
		kind, inline := classify(h.Text())
		if kind == sectionNone {
			return
		}
		p := h.NextUntil("h3").Filter("p").First()

		switch kind {
		case sectionTitle:
			if s.Title != "" {
				return
			}
			s.Title = inline
			if s.Title == "" {
				s.Title = normSpace(p.Text())
			}
		case sectionDescription:
			if s.Description != "" {
				return
			}
			s.Description = strings.TrimSpace(p.Text())
			if s.Description == "" {
				s.Description = inline
			}
		case sectionSources:
			if sourcesSeen {
				return
			}
			sourcesSeen = true
			addURLs(&s, inline)
			addURLs(&s, p.Text())
			p.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				addURLs(&s, href)
			})
		}
	})
	return s, nil
}

// ParseFallback 把 body 当作 Markdown，按顶层的三级标题切分 section。
//
// 标题由 goldmark 解析得到（代码块里的 "###" 不算标题），emoji、粗体等装饰一律忽略。
// 其它层级的标题只有在能识别为 title/description/sources 时才切分，否则算作上一 section 的内容。
// section 内容是两个标题之间的原始 Markdown 文本（保留格式）：
// title 取第一行非空文本，description 取整段，sources 取整段及列表项里的全部 URL。
func ParseFallback(body string) domain.Submission {
	src := []byte(strings.ReplaceAll(body, "\r\n", "\n"))
	s := domain.Submission{Parser: domain.ParserFallback}

	sourcesSeen := false
	for _, sec := range splitSections(src) {
		content := strings.TrimSpace(sec.content)
		switch sec.kind {
		case sectionTitle:
			if s.Title != "" {
				continue
			}
			s.Title = sec.inline
			if s.Title == "" {
				s.Title = firstLine(content)
			}
		case sectionDescription:
			if s.Description != "" {
				continue
			}
			s.Description = content
			if s.Description == "" {
				s.Description = sec.inline
			}
		case sectionSources:
			if sourcesSeen {
				continue
			}
			sourcesSeen = true
			addURLs(&s, sec.inline)
			addURLs(&s, content)
			for _, line := range strings.Split(content, "\n") {
				if !listItemRe.MatchString(line) {
					continue
				}
				if u := trimURL(urlRe.FindString(line)); u != "" {
					s.AddSource(u)
				}
			}
		}
	}
	return s
}

type mdSection struct {
	kind    section
	inline  string
	content string
}

// splitSections 用 goldmark 的 AST 定位顶层标题，再按字节偏移切出每个标题下的原始文本。
func splitSections(src []byte) []mdSection {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	type mark struct {
		kind      section
		inline    string
		lineStart int
		bodyStart int
	}
	var marks []mark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		kind, inline := classify(string(seg.Value(src)))
		// 只有 "###" 或可识别的标题才切 section；其它子标题留在正文里。
		if h.Level != 3 && kind == sectionNone {
			continue
		}
		bodyStart := nextLine(src, seg.Stop)
		if end := nextLine(src, bodyStart); bodyStart < len(src) && setextUnderlineRe.Match(bytes.TrimRight(src[bodyStart:end], "\n")) {
			bodyStart = end
		}
		marks = append(marks, mark{
			kind:      kind,
			inline:    inline,
			lineStart: bytes.LastIndexByte(src[:seg.Start], '\n') + 1,
			bodyStart: bodyStart,
		})
	}

	out := make([]mdSection, 0, len(marks))
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		if end < m.bodyStart {
			end = m.bodyStart
		}
		out = append(out, mdSection{kind: m.kind, inline: m.inline, content: string(src[m.bodyStart:end])})
	}
	return out
}

// nextLine 返回 pos 所在行的下一行起始偏移（没有下一行时返回 len(src)）。
func nextLine(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}

// ExtractURLs 返回 text 中的全部 http(s) URL（按出现顺序，未去重）。
func ExtractURLs(text string) []string {
	raw := urlRe.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		if u = trimURL(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func addURLs(s *domain.Submission, text string) {
	for _, u := range ExtractURLs(text) {
		s.AddSource(u)
	}
}

// trimURL 去掉句末标点与不成对的右括号（"(ver https://x.test/a)." -> "https://x.test/a"）。
func trimURL(u string) string {
	for {
		n := len(u)
		u = strings.TrimRight(u, ".,;:!?'")
		if strings.HasSuffix(u, ")") && strings.Count(u, ")") > strings.Count(u, "(") {
			u = u[:len(u)-1]
		}
		if len(u) == n {
			break
		}
	}
	if u == "http://" || u == "https://" {
		return ""
	}
	return u
}

// classify 识别标题文字属于哪个 section；"Title: value" 形式时同时返回行内值。
func classify(heading string) (section, string) {
	label, inline, _ := strings.Cut(heading, ":")
	key := foldLabel(label)

	var kind section
	switch {
	case strings.Contains(key, "titulo"), strings.Contains(key, "title"):
		kind = sectionTitle
	case strings.Contains(key, "descripcion"), strings.Contains(key, "description"):
		kind = sectionDescription
	case strings.Contains(key, "fuentes"), strings.Contains(key, "sources"):
		kind = sectionSources
	default:
		return sectionNone, ""
	}
	return kind, normSpace(inline)
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// foldLabel 去掉重音、emoji、标点与 Markdown 装饰，转小写，只保留字母。
func foldLabel(s string) string {
	s = accentFolder.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = normSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
