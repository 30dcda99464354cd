package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runGitCommand 可在测试中替换；参数以向量传递，从不经过 shell。
var runGitCommand = func(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// CLI 调用系统 git；作者通过 -c 传入，不改写仓库配置。
type CLI struct {
	Dir    string
	Remote string
}

func (c *CLI) Publish(ctx context.Context, message string) (string, error) {
	remote := c.Remote
	if remote == "" {
		remote = DefaultRemote
	}

	if _, err := runGitCommand(ctx, c.Dir, "add", "--all"); err != nil {
		return "", err
	}
	st, err := runGitCommand(ctx, c.Dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if st == "" {
		return "", ErrNothingToCommit
	}
	if _, err := runGitCommand(ctx, c.Dir,
		"-c", "user.name="+DefaultAuthorName,
		"-c", "user.email="+DefaultAuthorEmail,
		"commit", "-m", message,
	); err != nil {
		return "", err
	}
	head, err := runGitCommand(ctx, c.Dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if _, err := runGitCommand(ctx, c.Dir, "push", remote, "HEAD"); err != nil {
		return head, err
	}
	return head, nil
}
