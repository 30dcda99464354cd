package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
)

// Tracker 是流水线对 issue 的全部写操作：留言与关闭。
type Tracker interface {
	Comment(ctx context.Context, number int, body string) error
	Close(ctx context.Context, number int) error
}

// GitHub 通过 REST API 操作单个仓库的 issue。不做重试。
type GitHub struct {
	cli   *github.Client
	owner string
	repo  string
}

type Options struct {
	Owner string
	Repo  string
	Token string
	// APIURL 为空时使用 https://api.github.com/。
	APIURL     string
	HTTPClient *http.Client
}

func NewGitHub(opts Options) (*GitHub, error) {
	owner, repo := strings.TrimSpace(opts.Owner), strings.TrimSpace(opts.Repo)
	if owner == "" || repo == "" {
		return nil, errors.New("tracker: owner/repo 不能为空")
	}

	cli := github.NewClient(opts.HTTPClient)
	if tok := strings.TrimSpace(opts.Token); tok != "" {
		cli = cli.WithAuthToken(tok)
	}
	if raw := strings.TrimSpace(opts.APIURL); raw != "" {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("tracker: api url 无效：%w", err)
		}
		cli.BaseURL = u
	}
	return &GitHub{cli: cli, owner: owner, repo: repo}, nil
}

func (g *GitHub) Comment(ctx context.Context, number int, body string) error {
	_, _, err := g.cli.Issues.CreateComment(ctx, g.owner, g.repo, number, &github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("tracker: 评论 issue #%d 失败：%w", number, err)
	}
	return nil
}

func (g *GitHub) Close(ctx context.Context, number int) error {
	_, _, err := g.cli.Issues.Edit(ctx, g.owner, g.repo, number, &github.IssueRequest{State: github.Ptr("closed")})
	if err != nil {
		return fmt.Errorf("tracker: 关闭 issue #%d 失败：%w", number, err)
	}
	return nil
}
