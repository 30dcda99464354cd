package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/sitebot/internal/app"
	"github.com/John-Robertt/sitebot/internal/domain"
)

var _ app.Observer = (*stageUI)(nil)

// stageUI 是交互终端上的阶段输出：每个阶段一行，带状态与耗时。
//
// 所有输出写到 stderr（或 fallback 到 stdout 的 TTY），不影响 stdout 的 JSON 契约。
type stageUI struct {
	w         io.Writer
	startedAt time.Time
}

func newStageUI(w io.Writer) *stageUI {
	return &stageUI{w: w}
}

func (u *stageUI) OnStart(command string, fields map[string]any) {
	u.startedAt = time.Now()
	mode := "dry-run"
	if b, _ := fields["apply"].(bool); b {
		mode = "apply"
	}
	fmt.Fprintf(u.w, "[%s] sitebot %s (%s)\n", u.startedAt.Format("15:04:05"), command, mode)
	for _, k := range sortedKeys(fields) {
		if k == "apply" {
			continue
		}
		fmt.Fprintf(u.w, "  %s: %s\n", k, formatValue(fields[k], 120))
	}
	fmt.Fprintln(u.w)
}

func (u *stageUI) OnStageDone(name, status string, fields map[string]any, dur time.Duration) {
	fmt.Fprintf(u.w, "%s %-15s %s%s\n", statusMark(status), name, formatShortDuration(dur), formatFields(fields))
}

func statusMark(status string) string {
	switch status {
	case domain.StageStatusOK:
		return "OK  "
	case domain.StageStatusSkipped:
		return "SKIP"
	default:
		return "FAIL"
	}
}

// formatFields 把阶段字段按 key 排序后拼成 " k=v k=v"；空 map 返回空串。
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range sortedKeys(fields) {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(formatValue(fields[k], 80))
	}
	return b.String()
}

func formatValue(v any, max int) string {
	switch x := v.(type) {
	case string:
		if strings.ContainsAny(x, " \n\t") {
			return fmt.Sprintf("%q", truncate(x, max))
		}
		return truncate(x, max)
	default:
		return truncate(fmt.Sprint(x), max)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
