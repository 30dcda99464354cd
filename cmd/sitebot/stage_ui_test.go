package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/sitebot/internal/domain"
)

func TestStageUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	u := newStageUI(&buf)

	u.OnStart("triage", map[string]any{"issue": 7, "apply": true, "user": "alice"})
	u.OnStageDone("plan", domain.StageStatusOK, map[string]any{"stem": "test", "decision": "new"}, 1500*time.Millisecond)
	u.OnStageDone("write", domain.StageStatusSkipped, map[string]any{"reason": "dry-run"}, 0)
	u.OnStageDone("commit", domain.StageStatusFailed, map[string]any{"error": "push rejected"}, 0)

	out := buf.String()
	for _, want := range []string{
		"sitebot triage (apply)",
		"  issue: 7\n",
		"  user: alice\n",
		"OK   plan            1.5s decision=new stem=test\n",
		"SKIP write           0.0s reason=dry-run\n",
		`FAIL commit          0.0s error="push rejected"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q\n实际：\n%s", want, out)
		}
	}
	if strings.Contains(out, "apply: true") {
		t.Fatalf("apply 只应体现在模式里：\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Fatalf("期望 ab...，实际 %q", got)
	}
	if got := truncate("ñandú", 5); got != "ñandú" {
		t.Fatalf("按 rune 计数，实际 %q", got)
	}
}
