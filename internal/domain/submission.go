package domain

import "strings"

const (
	ParserHTML     = "html"
	ParserFallback = "fallback"
)

// Submission 是从 issue body 解析出的固定结构。
//
// 约束：Title/Description 已去首尾空白；Sources 已去重（保留首次出现顺序）。
type Submission struct {
	Title       string
	Description string
	Sources     []string

	// Parser 记录最终采用的解析路径（html / fallback），仅用于报告与日志。
	Parser string
}

// Complete 表示三个字段都非空（primary 解析成功的判定条件）。
func (s Submission) Complete() bool {
	return s.Title != "" && s.Description != "" && len(s.Sources) > 0
}

// AddSource 追加一个 URL；空串与重复项被忽略。
func (s *Submission) AddSource(u string) {
	u = strings.TrimSpace(u)
	if u == "" {
		return
	}
	for _, x := range s.Sources {
		if x == u {
			return
		}
	}
	s.Sources = append(s.Sources, u)
}
