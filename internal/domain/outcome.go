package domain

// Outcome 用于把“尽力而为”的步骤显式建模，而不是吞掉错误。
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
)
