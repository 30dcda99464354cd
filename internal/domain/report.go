package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

const (
	ImageCheckPassed   = "passed"
	ImageCheckSkipped  = "skipped"
	ImageCheckRejected = "rejected"
)

const (
	StageStatusOK      = "ok"
	StageStatusSkipped = "skipped"
	StageStatusFailed  = "failed"
)

const (
	// 校验类（面向提交者，可修正后重提）。
	ErrCodeMissingCredential   = "missing_credential"
	ErrCodeTitleTooShort       = "title_too_short"
	ErrCodeDescriptionTooShort = "description_too_short"
	ErrCodeTooFewSources       = "too_few_sources"
	ErrCodeMissingImage        = "missing_image"
	ErrCodeImageRejected       = "image_rejected"
	ErrCodeTextRejected        = "text_rejected"

	// 基础设施类。
	ErrCodeFetchFailed      = "fetch_failed"
	ErrCodeModerationFailed = "moderation_failed"
	ErrCodeTargetConflict   = "target_conflict"
	ErrCodeIOFailed         = "io_failed"
	ErrCodeVCSFailed        = "vcs_failed"
	ErrCodeConfigInvalid    = "config_invalid"
)

// TriageReport 是 triage 子命令对外稳定输出（stdout JSON）的结构。
type TriageReport struct {
	Issue  int    `json:"issue"`
	User   string `json:"user"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Title    string   `json:"title"`
	Parser   string   `json:"parser"`
	Stem     string   `json:"stem"`
	Decision PlanKind `json:"decision"`
	Sources  int      `json:"sources"`

	ImageURL   string  `json:"image_url"`
	Image      Outcome `json:"image"`
	ImageCheck string  `json:"image_check"`

	Commit      string `json:"commit"`
	NotifyError string `json:"notify_error"`

	Stages []StageResult `json:"stages"`
}

// StageResult 记录单个阶段的执行结果（按执行顺序）。
type StageResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration int64  `json:"duration_ms"`
	Note     string `json:"note,omitempty"`
}

// Finalize 统一时间为 UTC，并保证 Stages 非 nil（输出 [] 而不是 null）。
func (r *TriageReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Stages == nil {
		r.Stages = []StageResult{}
	}
	if r.Status == "" {
		r.Status = StatusProcessed
	}
}

// GalleryReport 是 gallery 子命令的运行报告。
type GalleryReport struct {
	Root   string `json:"root"`
	Output string `json:"output"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Folders    []FolderResult `json:"folders"`
	Entries    int            `json:"entries"`
	Degraded   int            `json:"degraded"`
	WriteError string         `json:"write_error"`
}

type FolderResult struct {
	Name    string  `json:"name"`
	Images  int     `json:"images"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) folders 按名字稳定排序
// 3) entries/degraded 由 folders 计算得出
func (r *GalleryReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Folders == nil {
		r.Folders = []FolderResult{}
	}

	sort.SliceStable(r.Folders, func(i, j int) bool { return r.Folders[i].Name < r.Folders[j].Name })

	entries, degraded := 0, 0
	for _, f := range r.Folders {
		entries += f.Images
		if f.Outcome == OutcomeDegraded {
			degraded++
		}
	}
	r.Entries = entries
	r.Degraded = degraded
}

// MarshalJSON 仅用于集中约束输出的稳定性；当前透传 encoding/json 的默认行为。
func (r TriageReport) MarshalJSON() ([]byte, error) {
	type Alias TriageReport
	return json.Marshal(Alias(r))
}
