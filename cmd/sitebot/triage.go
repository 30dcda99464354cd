package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/app"
	"github.com/John-Robertt/sitebot/internal/app/triage"
	"github.com/John-Robertt/sitebot/internal/config"
	"github.com/John-Robertt/sitebot/internal/domain"
	"github.com/John-Robertt/sitebot/internal/infra/httpx"
	"github.com/John-Robertt/sitebot/internal/moderation"
	"github.com/John-Robertt/sitebot/internal/tracker"
	"github.com/John-Robertt/sitebot/internal/vcs"
)

func newTriageCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "triage",
		Short: "处理一个投稿 issue：解析、校验、审核、落盘、提交并回帖",
		Long: `从环境变量读取 issue（ISSUE_NUMBER/ISSUE_TITLE/ISSUE_BODY/ISSUE_USER）并完整处理一次。

dry-run（默认）只解析/下载/审核/规划，不写文件、不提交、不回帖。
退出码：0=已处理或已拒绝（提交者可见的结果），1=运行失败。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTriage(cmd)
		},
	}
}

func (c *cli) runTriage(cmd *cobra.Command) error {
	started := time.Now()
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取当前目录失败：%v\n", err)
		return exitError{code: 1}
	}
	cwdAbs, _ := filepath.Abs(cwd)

	args := c.cliArgs(cmd)
	cfg, err := config.LoadTriage(cwdAbs, args)
	if err != nil {
		return c.triageConfigFailure(args, started, err)
	}

	deps, err := buildTriageDeps(cfg)
	if err != nil {
		return c.triageConfigFailure(args, started, &config.Error{Code: config.ErrCodeInvalid, Key: "deps", Err: err})
	}

	var obs app.Observer
	if w, interactive := c.pickProgressWriter(); interactive {
		obs = newStageUI(w)
	}

	rep := triage.Execute(cmd.Context(), cfg, deps, c.log, obs)
	c.emitReport(rep, triageSummary(rep))
	if rep.Status == domain.StatusFailed {
		return exitError{code: 1}
	}
	return nil
}

// buildTriageDeps 按配置构造外部依赖；tracker 与 publisher 只在 apply 时需要。
func buildTriageDeps(cfg config.TriageConfig) (triage.Deps, error) {
	deps := triage.Deps{
		Classifiers:      moderation.DefaultRegistry(),
		ModerationClient: httpx.NewClient(httpx.Options{Timeout: cfg.HTTPTimeout, AuthPrefixes: []string{}}),
		ImageClient:      httpx.NewClient(httpx.Options{Timeout: cfg.HTTPTimeout, Token: cfg.GitHubToken}),
	}
	if !cfg.Apply {
		return deps, nil
	}

	trk, err := tracker.NewGitHub(tracker.Options{
		Owner:      cfg.Owner,
		Repo:       cfg.Repo,
		Token:      cfg.GitHubToken,
		APIURL:     cfg.APIURL,
		HTTPClient: httpx.NewClient(httpx.Options{Timeout: cfg.HTTPTimeout, AuthPrefixes: []string{}}),
	})
	if err != nil {
		return triage.Deps{}, err
	}
	pub, err := vcs.New(cfg.VCSBackend, vcs.Options{Dir: cfg.Workspace, Token: cfg.GitHubToken})
	if err != nil {
		return triage.Deps{}, err
	}
	deps.Tracker = trk
	deps.Publisher = pub
	return deps, nil
}

// triageConfigFailure 在配置阶段失败时也输出一份完整的报告（与正常运行同一结构）。
func (c *cli) triageConfigFailure(args config.CLIArgs, started time.Time, err error) error {
	c.log.Error("triage 配置无效", zap.String("error_code", config.Code(err)), zap.Error(err))
	rep := domain.TriageReport{
		DryRun:     !(args.ApplySet && args.Apply),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Status:     domain.StatusFailed,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	rep.Finalize()
	c.emitReport(rep, triageSummary(rep))
	return exitError{code: 1}
}

func triageSummary(rep domain.TriageReport) string {
	s := fmt.Sprintf("完成：issue=#%d status=%s", rep.Issue, rep.Status)
	if rep.ErrorCode != "" {
		s += fmt.Sprintf(" error_code=%s error_msg=%q", rep.ErrorCode, rep.ErrorMsg)
	}
	if rep.Stem != "" {
		s += fmt.Sprintf(" stem=%s decision=%s", rep.Stem, rep.Decision)
	}
	if rep.Commit != "" {
		s += " commit=" + rep.Commit
	}
	if rep.NotifyError != "" {
		s += fmt.Sprintf(" notify_error=%q", rep.NotifyError)
	}
	if rep.DryRun {
		s += " (dry-run)"
	}
	return s
}
