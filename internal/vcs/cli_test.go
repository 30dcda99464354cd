package vcs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGit 替换 runGitCommand，按子命令返回预设输出。
func stubGit(t *testing.T, replies map[string]string, fail string) *[][]string {
	t.Helper()
	var calls [][]string
	orig := runGitCommand
	runGitCommand = func(_ context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, append([]string{dir}, args...))
		sub := args[0]
		if sub == "-c" {
			sub = args[4]
		}
		if sub == fail {
			return "", errors.New("git " + sub + " failed")
		}
		return replies[sub], nil
	}
	t.Cleanup(func() { runGitCommand = orig })
	return &calls
}

func TestCLI_Publish(t *testing.T) {
	calls := stubGit(t, map[string]string{"status": "?? a.md", "rev-parse": "abc123"}, "")

	c := &CLI{Dir: "/w"}
	hash, err := c.Publish(context.Background(), "Nueva Entrada: a IssueBot")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	var got []string
	for _, call := range *calls {
		assert.Equal(t, "/w", call[0])
		got = append(got, strings.Join(call[1:], " "))
	}
	assert.Equal(t, []string{
		"add --all",
		"status --porcelain",
		"-c user.name=GitHub Action -c user.email=action@github.com commit -m Nueva Entrada: a IssueBot",
		"rev-parse HEAD",
		"push origin HEAD",
	}, got)
}

func TestCLI_NothingToCommit(t *testing.T) {
	calls := stubGit(t, map[string]string{"status": ""}, "")

	_, err := (&CLI{Dir: "/w"}).Publish(context.Background(), "m")
	assert.True(t, errors.Is(err, ErrNothingToCommit))
	assert.Len(t, *calls, 2)
}

func TestCLI_PushFailure(t *testing.T) {
	stubGit(t, map[string]string{"status": "M a.md", "rev-parse": "abc"}, "push")

	hash, err := (&CLI{Dir: "/w", Remote: "up"}).Publish(context.Background(), "m")
	require.Error(t, err)
	assert.Equal(t, "abc", hash)
}
