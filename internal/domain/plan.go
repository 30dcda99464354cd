package domain

// PlanKind 描述文件名解析的结果类型。
type PlanKind string

const (
	// PlanNew：<stem>.md 不存在，直接新建。
	PlanNew PlanKind = "new"
	// PlanReplace：<stem>.md 已存在且属于同一提交者，原地覆盖。
	PlanReplace PlanKind = "replace"
	// PlanSuffixed：<stem>.md 属于其他人，改用 <stem>_N 新建。
	PlanSuffixed PlanKind = "suffixed"
)

// FilePlan 是一次提交的落盘计划（只描述名字，不做任何写入）。
type FilePlan struct {
	// Base 是 title 规范化后的候选 stem。
	Base string
	// Stem 是最终使用的 stem（new/replace 时等于 Base）。
	Stem string
	Kind PlanKind
}

// Overwrites 表示该计划需要覆盖已有记录。
func (p FilePlan) Overwrites() bool { return p.Kind == PlanReplace }
