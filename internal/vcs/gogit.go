package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GoGit 用 go-git 在进程内完成 add/commit/push，不依赖 git 可执行文件。
type GoGit struct {
	Dir    string
	Remote string
	Token  string

	now func() time.Time
}

func (g *GoGit) Publish(ctx context.Context, message string) (string, error) {
	repo, err := git.PlainOpenWithOptions(g.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("gogit: 打开仓库失败：%w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("gogit: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("gogit: add 失败：%w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("gogit: status 失败：%w", err)
	}
	if st.IsClean() {
		return "", ErrNothingToCommit
	}

	now := time.Now
	if g.now != nil {
		now = g.now
	}
	h, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: DefaultAuthorName, Email: DefaultAuthorEmail, When: now()},
	})
	if err != nil {
		return "", fmt.Errorf("gogit: commit 失败：%w", err)
	}

	remote := g.Remote
	if remote == "" {
		remote = DefaultRemote
	}
	opts := &git.PushOptions{RemoteName: remote}
	if tok := strings.TrimSpace(g.Token); tok != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: tok}
	}
	if err := repo.PushContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return h.String(), fmt.Errorf("gogit: push 失败：%w", err)
	}
	return h.String(), nil
}
