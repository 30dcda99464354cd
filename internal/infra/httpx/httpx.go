package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "sitebot/1.0 (+https://github.com/John-Robertt/sitebot)"

	// DefaultMaxBytes 是单次下载的默认上限（图片足够，防止误把超大文件读进内存）。
	DefaultMaxBytes = 20 << 20
)

// DefaultAuthPrefixes 是需要附带 tracker 凭据的附件地址（host + path 前缀）。
var DefaultAuthPrefixes = []string{"github.com/user-attachments/assets/"}

// Options 描述 client 的构造参数；零值可用。
type Options struct {
	Timeout   time.Duration
	UserAgent string

	// Token 只会附加到 AuthPrefixes 命中的请求上，其它 host 一律不带。
	Token        string
	AuthPrefixes []string
}

// Transport 把“UA + 按 host 附加凭据”固化为统一策略。
//
// 凭据在 RoundTrip 里按每个请求的 URL 决定：重定向到 S3 等外部 host 时不会泄漏 token。
type Transport struct {
	Base http.RoundTripper

	UserAgent    string
	Token        string
	AuthPrefixes []string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Clone 避免在 RoundTripper 内部“污染”调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
		r.Header.Set("User-Agent", t.UserAgent)
	}
	if t.Token != "" && NeedsAuth(r.URL, t.AuthPrefixes) {
		r.Header.Set("Authorization", "Bearer "+t.Token)
		r.Header.Set("Accept", "application/vnd.github.v3.raw")
	}
	return base.RoundTrip(r)
}

// NeedsAuth 判断 u 是否命中任一 "host/path前缀"。
func NeedsAuth(u *url.URL, prefixes []string) bool {
	if u == nil {
		return false
	}
	if u.Scheme != "https" {
		return false
	}
	hp := strings.ToLower(u.Host) + u.EscapedPath()
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(hp, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// NewClient 构造下载/API 共用的 HTTP client。
//
// 规则：
// - 代理读取标准环境变量（HTTPS_PROXY/NO_PROXY）
// - 固定总超时；不做重试（失败直接交给上层的统一失败路径）
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	prefixes := opts.AuthPrefixes
	if prefixes == nil {
		prefixes = DefaultAuthPrefixes
	}

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{
			Base:         base,
			UserAgent:    ua,
			Token:        strings.TrimSpace(opts.Token),
			AuthPrefixes: append([]string(nil), prefixes...),
		},
		Timeout: timeout,
	}
}

// StatusError 表示服务端返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ErrTooLarge 表示响应体超过 maxBytes。
var ErrTooLarge = errors.New("响应体超过大小上限")

// Download 以 GET 读取 rawURL 的完整响应体。
// maxBytes<=0 时使用 DefaultMaxBytes。
func Download(ctx context.Context, c *http.Client, rawURL string, maxBytes int64) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 为空")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > maxBytes {
		return nil, fmt.Errorf("%w（%d 字节）", ErrTooLarge, maxBytes)
	}
	return b, nil
}

// snippet 读取最多 512 字节错误响应，方便日志定位（不影响主流程）。
func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
