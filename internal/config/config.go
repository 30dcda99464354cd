package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ErrCodeInvalid 表示环境变量/配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingIssue 表示 triage 缺少 ISSUE_NUMBER。
	ErrCodeMissingIssue = "config_missing_issue"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"

	VCSGoGit = "gogit"
	VCSCLI   = "cli"

	DefaultProvider    = ProviderGroq
	DefaultVCSBackend  = VCSGoGit
	DefaultTargetDir   = "web/Dinamico/Corrupcion"
	DefaultGalleryRoot = "web/Dinamico"
	DefaultGalleryOut  = "data.json"
	DefaultAPIURL      = "https://api.github.com/"
	DefaultHTTPTimeout = 60 * time.Second
)

// CLIArgs 是两个子命令共享的 CLI 入口，并保留“是否显式指定”的信息。
// --apply=false 必须能覆盖 SITEBOT_APPLY=true。
type CLIArgs struct {
	Apply    bool
	ApplySet bool

	// PolicyFile 为空时回退到 SITEBOT_POLICY_FILE。
	PolicyFile string
}

// GalleryArgs 是 gallery 子命令独有的 CLI 参数；空值表示“未指定”。
type GalleryArgs struct {
	Root    string
	Out     string
	Prefix  string
	Folders []string

	PrefixSet bool
}

// IssueInput 是触发本次 triage 的 issue 快照。
type IssueInput struct {
	Number int
	Title  string
	Body   string
	User   string
}

// TriageConfig 是 triage 的最终配置；下游不再读取环境变量。
type TriageConfig struct {
	Issue IssueInput

	Provider     string
	GroqAPIKey   string
	GeminiAPIKey string
	VisionModel  string
	TextModel    string

	GitHubToken string
	Owner       string
	Repo        string
	APIURL      string

	Workspace  string
	TargetDir  string
	VCSBackend string

	HTTPTimeout time.Duration
	Apply       bool
	Policy      Policy
}

// Credential 返回当前 provider 所需的凭据变量名与值（值可能为空，由上层决定如何失败）。
func (c TriageConfig) Credential() (envVar, value string) {
	switch c.Provider {
	case ProviderGemini:
		return "GEMINI_API_KEY", c.GeminiAPIKey
	default:
		return "GROQ_API_KEY", c.GroqAPIKey
	}
}

// GalleryConfig 是 gallery 的最终配置。
type GalleryConfig struct {
	Root    string
	Out     string
	Prefix  string
	Folders []string
	Apply   bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Code == ErrCodeMissingIssue:
		return fmt.Sprintf("%s：缺少必填环境变量 ISSUE_NUMBER", e.Code)
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("%s：%s 无效：%v", e.Code, e.Key, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadDotEnv 把 .env 合入进程环境（已存在的环境变量不会被覆盖）。
//
// explicit=false 时文件不存在不算错误（默认的 .env 是可选的）。
func LoadDotEnv(path string, explicit bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return &Error{Code: ErrCodeInvalid, Key: "env_file", Err: err}
	}
	if err := godotenv.Load(path); err != nil {
		return &Error{Code: ErrCodeInvalid, Key: "env_file", Err: err}
	}
	return nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetDefault("MODERATION_PROVIDER", DefaultProvider)
	v.SetDefault("GITHUB_API_URL", DefaultAPIURL)
	v.SetDefault("TRIAGE_TARGET_DIR", DefaultTargetDir)
	v.SetDefault("VCS_BACKEND", DefaultVCSBackend)
	v.SetDefault("SITEBOT_HTTP_TIMEOUT", DefaultHTTPTimeout.String())
	v.SetDefault("SITEBOT_APPLY", false)
	v.SetDefault("GALLERY_ROOT", DefaultGalleryRoot)
	v.AutomaticEnv()
	return v
}

// LoadTriage 从环境变量构造 TriageConfig。
//
// 覆盖优先级（固定）：
// - apply：CLI --apply/--apply=false > SITEBOT_APPLY > 默认 false
// - policy：CLI --policy > SITEBOT_POLICY_FILE > 内置默认
// - 其它字段：只来自环境变量（含 .env）
//
// 凭据缺失不在这里报错：它属于 triage 的第一个校验阶段，需要回帖给提交者。
func LoadTriage(cwd string, cli CLIArgs) (TriageConfig, error) {
	v := newEnv()

	raw := strings.TrimSpace(v.GetString("ISSUE_NUMBER"))
	if raw == "" {
		return TriageConfig{}, &Error{Code: ErrCodeMissingIssue, Key: "ISSUE_NUMBER"}
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num <= 0 {
		if err == nil {
			err = fmt.Errorf("必须是正整数，实际是 %q", raw)
		}
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "ISSUE_NUMBER", Err: err}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("MODERATION_PROVIDER")))
	if err := validateProvider(provider); err != nil {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "MODERATION_PROVIDER", Err: err}
	}
	backend := strings.ToLower(strings.TrimSpace(v.GetString("VCS_BACKEND")))
	if backend != VCSGoGit && backend != VCSCLI {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "VCS_BACKEND", Err: fmt.Errorf("只能是 gogit 或 cli，实际是 %q", backend)}
	}

	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "cwd", Err: err}
	}
	workspace := cwdAbs
	if ws := strings.TrimSpace(v.GetString("GITHUB_WORKSPACE")); ws != "" {
		workspace = absCleanFrom(cwdAbs, ws)
	}
	targetDir := absCleanFrom(workspace, v.GetString("TRIAGE_TARGET_DIR"))
	if !isUnder(targetDir, workspace) {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "TRIAGE_TARGET_DIR", Err: fmt.Errorf("%q 不在工作区 %q 内", targetDir, workspace)}
	}

	owner, repo := "", ""
	if full := strings.TrimSpace(v.GetString("GITHUB_REPOSITORY")); full != "" {
		o, r, ok := strings.Cut(full, "/")
		if !ok || o == "" || r == "" || strings.Contains(r, "/") {
			return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "GITHUB_REPOSITORY", Err: fmt.Errorf("期望 owner/name，实际是 %q", full)}
		}
		owner, repo = o, r
	}

	apiURL, err := normalizeAPIURL(v.GetString("GITHUB_API_URL"))
	if err != nil {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "GITHUB_API_URL", Err: err}
	}

	timeout, err := parseTimeout(v.GetString("SITEBOT_HTTP_TIMEOUT"))
	if err != nil {
		return TriageConfig{}, &Error{Code: ErrCodeInvalid, Key: "SITEBOT_HTTP_TIMEOUT", Err: err}
	}

	policy, err := loadPolicyFrom(v, cli)
	if err != nil {
		return TriageConfig{}, err
	}

	return TriageConfig{
		Issue: IssueInput{
			Number: num,
			Title:  v.GetString("ISSUE_TITLE"),
			Body:   v.GetString("ISSUE_BODY"),
			User:   strings.TrimSpace(v.GetString("ISSUE_USER")),
		},
		Provider:     provider,
		GroqAPIKey:   strings.TrimSpace(v.GetString("GROQ_API_KEY")),
		GeminiAPIKey: strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		VisionModel:  strings.TrimSpace(v.GetString("MODERATION_MODEL_VISION")),
		TextModel:    strings.TrimSpace(v.GetString("MODERATION_MODEL_TEXT")),
		GitHubToken:  strings.TrimSpace(v.GetString("GITHUB_TOKEN")),
		Owner:        owner,
		Repo:         repo,
		APIURL:       apiURL,
		Workspace:    workspace,
		TargetDir:    targetDir,
		VCSBackend:   backend,
		HTTPTimeout:  timeout,
		Apply:        resolveApply(v, cli),
		Policy:       policy,
	}, nil
}

// LoadGallery 合并 CLI 参数与 GALLERY_* 环境变量：CLI > 环境变量 > 默认。
//
// prefix 未指定时：root 是相对路径则取 root 本身（斜杠形式），是绝对路径则为空。
func LoadGallery(cwd string, cli CLIArgs, args GalleryArgs) (GalleryConfig, error) {
	v := newEnv()

	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return GalleryConfig{}, &Error{Code: ErrCodeInvalid, Key: "cwd", Err: err}
	}

	rootArg := strings.TrimSpace(args.Root)
	if rootArg == "" {
		rootArg = strings.TrimSpace(v.GetString("GALLERY_ROOT"))
	}
	root := absCleanFrom(cwdAbs, rootArg)

	out := strings.TrimSpace(args.Out)
	if out == "" {
		out = strings.TrimSpace(v.GetString("GALLERY_OUT"))
	}
	if out == "" {
		out = filepath.Join(root, DefaultGalleryOut)
	} else {
		out = absCleanFrom(cwdAbs, out)
	}

	var prefix string
	switch {
	case args.PrefixSet:
		prefix = args.Prefix
	case v.IsSet("GALLERY_PREFIX"):
		prefix = v.GetString("GALLERY_PREFIX")
	case !filepath.IsAbs(rootArg):
		prefix = filepath.ToSlash(filepath.Clean(rootArg))
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "." {
		prefix = ""
	}

	folders := make([]string, 0, len(args.Folders))
	for _, f := range args.Folders {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if f == "." || f == ".." || strings.ContainsAny(f, `/\`) {
			return GalleryConfig{}, &Error{Code: ErrCodeInvalid, Key: "folder", Err: fmt.Errorf("folder 必须是 root 下的直接子目录名，实际是 %q", f)}
		}
		folders = append(folders, f)
	}

	return GalleryConfig{
		Root:    root,
		Out:     out,
		Prefix:  prefix,
		Folders: folders,
		Apply:   resolveApply(v, cli),
	}, nil
}

func resolveApply(v *viper.Viper, cli CLIArgs) bool {
	if cli.ApplySet {
		return cli.Apply
	}
	return v.GetBool("SITEBOT_APPLY")
}

func loadPolicyFrom(v *viper.Viper, cli CLIArgs) (Policy, error) {
	path := strings.TrimSpace(cli.PolicyFile)
	if path == "" {
		path = strings.TrimSpace(v.GetString("SITEBOT_POLICY_FILE"))
	}
	if path == "" {
		return DefaultPolicy(), nil
	}
	return LoadPolicy(path)
}

func validateProvider(p string) error {
	switch p {
	case ProviderGroq, ProviderGemini:
		return nil
	case "":
		return fmt.Errorf("provider 不能为空")
	default:
		return fmt.Errorf("provider 只能是 groq 或 gemini，实际是 %q", p)
	}
}

// normalizeAPIURL 校验 scheme/host，并保证以 / 结尾（go-github 的 BaseURL 要求）。
func normalizeAPIURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("无效的 URL：%q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("必须是 http/https：%q", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

// parseTimeout 接受 Go duration（"45s"）或纯秒数（"45"）。
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHTTPTimeout, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, err
		}
		d = time.Duration(n) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("必须大于 0，实际是 %q", raw)
	}
	return d, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return filepath.Clean(base)
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(base, string(filepath.Separator))+string(filepath.Separator))
}
