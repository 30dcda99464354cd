package main

import (
	"encoding/json"
	"fmt"
)

// emitReport 在 stdout 是 TTY 时只打摘要；否则 stdout 必须且仅输出一个 JSON（摘要走 stderr）。
func (c *cli) emitReport(v any, summary string) {
	if isTTY(c.stdout) {
		fmt.Fprintln(c.stdout, summary)
		return
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	fmt.Fprintln(c.stderr, summary)
}
