package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	BackendGoGit = "gogit"
	BackendCLI   = "cli"

	DefaultRemote      = "origin"
	DefaultAuthorName  = "GitHub Action"
	DefaultAuthorEmail = "action@github.com"
)

// ErrNothingToCommit 表示暂存后工作区没有任何变化（例如同一提交者重复提交了完全相同的内容）。
var ErrNothingToCommit = errors.New("没有需要提交的变更")

// Publisher 把工作区的全部变更提交并推送到默认远端，返回新 commit 的 hash。
//
// 约束：
// - 暂存全部变更 -> commit -> push，任一步失败即返回错误
// - 没有变更时返回 ErrNothingToCommit，不 commit 也不 push
type Publisher interface {
	Publish(ctx context.Context, message string) (string, error)
}

type Options struct {
	Dir    string
	Remote string
	// Token 只用于 gogit 的 HTTPS push；cli 依赖仓库已有的凭据配置。
	Token string
}

// New 按 backend 名字构造 Publisher。
func New(backend string, opts Options) (Publisher, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("vcs: 工作区目录为空")
	}
	if strings.TrimSpace(opts.Remote) == "" {
		opts.Remote = DefaultRemote
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGoGit:
		return &GoGit{Dir: opts.Dir, Remote: opts.Remote, Token: opts.Token}, nil
	case BackendCLI:
		return &CLI{Dir: opts.Dir, Remote: opts.Remote}, nil
	default:
		return nil, fmt.Errorf("vcs: 未知的 backend：%q", backend)
	}
}
