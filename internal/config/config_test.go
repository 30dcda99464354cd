package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv 让测试不受宿主环境（例如 CI 里真实的 GITHUB_*）影响。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ISSUE_NUMBER", "ISSUE_TITLE", "ISSUE_BODY", "ISSUE_USER",
		"MODERATION_PROVIDER", "GROQ_API_KEY", "GEMINI_API_KEY",
		"MODERATION_MODEL_VISION", "MODERATION_MODEL_TEXT",
		"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_API_URL", "GITHUB_WORKSPACE",
		"TRIAGE_TARGET_DIR", "VCS_BACKEND", "SITEBOT_HTTP_TIMEOUT", "SITEBOT_APPLY", "SITEBOT_POLICY_FILE",
		"GALLERY_ROOT", "GALLERY_OUT", "GALLERY_PREFIX",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadTriage_MissingIssueNumber(t *testing.T) {
	clearEnv(t)

	_, err := LoadTriage(t.TempDir(), CLIArgs{})
	if Code(err) != ErrCodeMissingIssue {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingIssue, err, Code(err))
	}
}

func TestLoadTriage_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	t.Setenv("ISSUE_NUMBER", "42")
	t.Setenv("ISSUE_USER", " alice ")
	t.Setenv("GITHUB_REPOSITORY", "acme/site")

	cfg, err := LoadTriage(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Issue.Number != 42 || cfg.Issue.User != "alice" {
		t.Fatalf("issue 解析错误：%+v", cfg.Issue)
	}
	if cfg.Owner != "acme" || cfg.Repo != "site" {
		t.Fatalf("期望 acme/site，实际 %q/%q", cfg.Owner, cfg.Repo)
	}
	if cfg.Provider != ProviderGroq || cfg.VCSBackend != VCSGoGit {
		t.Fatalf("默认 provider/backend 错误：%q %q", cfg.Provider, cfg.VCSBackend)
	}
	if want := filepath.Join(cwd, "web", "Dinamico", "Corrupcion"); cfg.TargetDir != want {
		t.Fatalf("期望 target=%q，实际=%q", want, cfg.TargetDir)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("期望 api=%q，实际=%q", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Fatalf("期望 timeout=%v，实际=%v", DefaultHTTPTimeout, cfg.HTTPTimeout)
	}
	if cfg.Apply {
		t.Fatalf("默认必须是 dry-run")
	}
	if cfg.Policy != DefaultPolicy() {
		t.Fatalf("默认 policy 不一致：%+v", cfg.Policy)
	}
}

func TestLoadTriage_Credential(t *testing.T) {
	clearEnv(t)
	t.Setenv("ISSUE_NUMBER", "1")
	t.Setenv("MODERATION_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := LoadTriage(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	name, val := cfg.Credential()
	if name != "GEMINI_API_KEY" || val != "g-key" {
		t.Fatalf("期望 GEMINI_API_KEY=g-key，实际 %s=%q", name, val)
	}

	cfg.Provider = ProviderGroq
	if name, val := cfg.Credential(); name != "GROQ_API_KEY" || val != "" {
		t.Fatalf("期望空的 GROQ_API_KEY，实际 %s=%q", name, val)
	}
}

func TestLoadTriage_ApplyCLIOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("ISSUE_NUMBER", "1")
	t.Setenv("SITEBOT_APPLY", "true")

	cfg, err := LoadTriage(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !cfg.Apply {
		t.Fatalf("SITEBOT_APPLY=true 应生效")
	}

	cfg, err = LoadTriage(t.TempDir(), CLIArgs{Apply: false, ApplySet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Apply {
		t.Fatalf("--apply=false 必须覆盖环境变量")
	}
}

func TestLoadTriage_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"issue number", map[string]string{"ISSUE_NUMBER": "abc"}},
		{"negative issue", map[string]string{"ISSUE_NUMBER": "-3"}},
		{"provider", map[string]string{"ISSUE_NUMBER": "1", "MODERATION_PROVIDER": "openai"}},
		{"backend", map[string]string{"ISSUE_NUMBER": "1", "VCS_BACKEND": "svn"}},
		{"repository", map[string]string{"ISSUE_NUMBER": "1", "GITHUB_REPOSITORY": "no-slash"}},
		{"api url", map[string]string{"ISSUE_NUMBER": "1", "GITHUB_API_URL": "ftp://x"}},
		{"timeout", map[string]string{"ISSUE_NUMBER": "1", "SITEBOT_HTTP_TIMEOUT": "soon"}},
		{"target escapes", map[string]string{"ISSUE_NUMBER": "1", "TRIAGE_TARGET_DIR": "../elsewhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadTriage(t.TempDir(), CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"":     DefaultHTTPTimeout,
		"45":   45 * time.Second,
		"2m":   2 * time.Minute,
		"1.5s": 1500 * time.Millisecond,
	} {
		got, err := parseTimeout(raw)
		if err != nil || got != want {
			t.Fatalf("parseTimeout(%q)=%v,%v 期望 %v", raw, got, err, want)
		}
	}
	if _, err := parseTimeout("0"); err == nil {
		t.Fatalf("0 应被拒绝")
	}
}

func TestLoadGallery_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	cfg, err := LoadGallery(cwd, CLIArgs{}, GalleryArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	root := filepath.Join(cwd, "web", "Dinamico")
	if cfg.Root != root {
		t.Fatalf("期望 root=%q，实际=%q", root, cfg.Root)
	}
	if want := filepath.Join(root, "data.json"); cfg.Out != want {
		t.Fatalf("期望 out=%q，实际=%q", want, cfg.Out)
	}
	if cfg.Prefix != "web/Dinamico" {
		t.Fatalf("期望 prefix=web/Dinamico，实际=%q", cfg.Prefix)
	}
}

func TestLoadGallery_AbsoluteRootHasEmptyPrefix(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	cfg, err := LoadGallery(t.TempDir(), CLIArgs{}, GalleryArgs{Root: root})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Prefix != "" {
		t.Fatalf("期望空 prefix，实际=%q", cfg.Prefix)
	}

	cfg, err = LoadGallery(t.TempDir(), CLIArgs{}, GalleryArgs{Root: root, Prefix: "/site/", PrefixSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Prefix != "site" {
		t.Fatalf("期望 prefix=site，实际=%q", cfg.Prefix)
	}
}

func TestLoadGallery_RejectsNestedFolder(t *testing.T) {
	clearEnv(t)

	_, err := LoadGallery(t.TempDir(), CLIArgs{}, GalleryArgs{Folders: []string{"a/b"}})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	writeFile(t, p, []byte("ISSUE_USER=from-file\nISSUE_TITLE=hola\n"))
	t.Setenv("ISSUE_USER", "from-env")

	if err := LoadDotEnv(p, true); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got := os.Getenv("ISSUE_USER"); got != "from-env" {
		t.Fatalf(".env 不应覆盖真实环境变量，实际=%q", got)
	}
	if got := os.Getenv("ISSUE_TITLE"); got != "hola" {
		t.Fatalf("期望从 .env 读到 ISSUE_TITLE，实际=%q", got)
	}
	t.Cleanup(func() { _ = os.Unsetenv("ISSUE_TITLE") })
}

func TestLoadDotEnv_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.env")

	if err := LoadDotEnv(missing, false); err != nil {
		t.Fatalf("默认 .env 缺失不应报错：%v", err)
	}
	if err := LoadDotEnv(missing, true); Code(err) != ErrCodeInvalid {
		t.Fatalf("显式指定的 .env 缺失应报 %q，实际 %v", ErrCodeInvalid, err)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
