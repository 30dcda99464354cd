package planner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/John-Robertt/sitebot/internal/domain"
)

const (
	// DefaultName 是 title 规范化后为空时使用的 stem。
	DefaultName = "entrada_sin_nombre"
	// DigitPrefix 加在以数字开头的 stem 前面。
	DigitPrefix = "entrada_"
	// DefaultMaxLength 是 stem 的默认长度上限（按字符计）。
	DefaultMaxLength = 100

	maxSuffix = 10000
)

// Store 是 planner 需要的最小只读视图（由 infra/store.Store 实现）。
type Store interface {
	State(stem string) (domain.RecordState, error)
	Exists(stem string) (bool, error)
}

// removed 是直接删除（不替换为 '_'）的字符集。
const removed = "<>:\"/\\|?*#@!$%^&()+={}[]~`"

// Sanitize 把任意 title 规范化为可用作文件名的 stem。
//
// 步骤（固定顺序）：
// 1) 删除 removed 中的字符
// 2) 连续的空白/连字符 -> 单个 '_'
// 3) 只保留字母、数字、组合符号、'_' 与 '.'
// 4) 转小写
// 5) 连续的 '.' / '_' 各折叠为一个
// 6) 去掉首尾的 '.' 与 '_'
// 7) 为空 -> DefaultName；以数字开头 -> 加 DigitPrefix
// 8) 截断到 maxLen 个字符，并再次去掉尾部的 '.' 与 '_'
//
// 结果满足 Sanitize(Sanitize(s)) == Sanitize(s)。
func Sanitize(title string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range title {
		switch {
		case strings.ContainsRune(removed, r):
			continue
		case unicode.IsSpace(r) || r == '-':
			pendingSep = true
			continue
		case !keep(r):
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	if pendingSep {
		b.WriteByte('_')
	}

	s := collapse(b.String())
	s = strings.Trim(s, "._")
	if s == "" {
		s = DefaultName
	}
	if r := []rune(s); unicode.IsDigit(r[0]) {
		s = DigitPrefix + s
	}

	if r := []rune(s); len(r) > maxLen {
		s = strings.TrimRight(string(r[:maxLen]), "._")
	}
	return s
}

func keep(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// collapse 把连续的 '.' 或连续的 '_' 折叠为一个（"a__b..c" -> "a_b.c"）。
func collapse(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if (r == '.' || r == '_') && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Plan 基于目标目录现状为 (title, user) 生成确定性的文件名计划（不做任何写入）。
//
// 规则：
// - <stem>.md 不存在：new
// - 存在且 participant 标记与 user 相同（忽略大小写）：replace
// - 其它情况（不同用户、无标记、读取失败、user 为空）：从 <stem>_1 开始找第一个空位，suffixed
func Plan(st Store, title, user string, maxLen int) (domain.FilePlan, error) {
	base := Sanitize(title, maxLen)

	rs, err := st.State(base)
	if err != nil {
		return domain.FilePlan{}, err
	}
	if !rs.Exists {
		return domain.FilePlan{Base: base, Stem: base, Kind: domain.PlanNew}, nil
	}
	user = strings.TrimSpace(user)
	if user != "" && rs.ReadErr == nil && strings.EqualFold(rs.Owner, user) {
		return domain.FilePlan{Base: base, Stem: base, Kind: domain.PlanReplace}, nil
	}

	stem, err := allocSuffix(st, base)
	if err != nil {
		return domain.FilePlan{}, err
	}
	return domain.FilePlan{Base: base, Stem: stem, Kind: domain.PlanSuffixed}, nil
}

func allocSuffix(st Store, base string) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		cand := fmt.Sprintf("%s_%d", base, n)
		ok, err := st.Exists(cand)
		if err != nil {
			return "", err
		}
		if !ok {
			return cand, nil
		}
	}
	return "", fmt.Errorf("stem %q 的后缀已用尽（>%d）", base, maxSuffix)
}
