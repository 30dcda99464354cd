package app

import "time"

// Observer 用于把“阶段进度”从核心执行流程中解耦出来。
//
// 约束：
// - 执行层只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 两条流水线都是单 goroutine 顺序执行，实现无需并发安全
type Observer interface {
	// OnStart 在流水线开始时调用一次；fields 是本次运行的关键输入（不含凭据）。
	OnStart(command string, fields map[string]any)
	// OnStageDone 在每个阶段结束时调用；status 取 domain.StageStatus*。
	OnStageDone(name, status string, fields map[string]any, dur time.Duration)
}

// NopObserver 丢弃所有事件。
type NopObserver struct{}

func (NopObserver) OnStart(string, map[string]any) {}
func (NopObserver) OnStageDone(string, string, map[string]any, time.Duration) {}

// OrNop 让可选的 Observer 参数在 nil 时退化为 NopObserver。
func OrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
