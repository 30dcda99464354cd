package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// clearEnv 让测试不受宿主环境（例如 CI 里真实的 GITHUB_*）影响。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ISSUE_NUMBER", "ISSUE_TITLE", "ISSUE_BODY", "ISSUE_USER",
		"MODERATION_PROVIDER", "GROQ_API_KEY", "GEMINI_API_KEY",
		"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_API_URL", "GITHUB_WORKSPACE",
		"TRIAGE_TARGET_DIR", "VCS_BACKEND", "SITEBOT_APPLY", "SITEBOT_POLICY_FILE",
		"GALLERY_ROOT", "GALLERY_OUT", "GALLERY_PREFIX",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func runCLI(t *testing.T, args ...string) (int, []byte, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.Bytes(), stderr.String()
}

func galleryFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"a/x.jpg", "a/x.md", "a/solo.png", "b/readme.txt"} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestCLI_GalleryDryRun_StdoutIsManifest(t *testing.T) {
	clearEnv(t)
	root := galleryFixture(t)

	code, stdout, stderr := runCLI(t, "gallery", root)
	require.Equal(t, 0, code, "stderr=%s", stderr)

	var m domain.Manifest
	require.NoError(t, json.Unmarshal(stdout, &m), "stdout=%q", stdout)
	assert.Equal(t, []domain.Entry{{Image: "a/x.jpg", Link: "a/x.md", Name: "x"}}, m.Galleries["a"].Images)
	assert.Empty(t, m.Galleries["b"].Images)
	assert.NoFileExists(t, filepath.Join(root, "data.json"))
}

func TestCLI_GalleryApply_WritesManifestAndReport(t *testing.T) {
	clearEnv(t)
	root := galleryFixture(t)
	out := filepath.Join(t.TempDir(), "gallery.json")

	code, stdout, stderr := runCLI(t, "gallery", root, "--apply", "--out", out, "--prefix", "web/Dinamico")
	require.Equal(t, 0, code, "stderr=%s", stderr)

	var rep domain.GalleryReport
	require.NoError(t, json.Unmarshal(stdout, &rep), "stdout=%q", stdout)
	assert.False(t, rep.DryRun)
	assert.Equal(t, 1, rep.Entries)
	assert.Empty(t, rep.WriteError)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"image": "web/Dinamico/a/x.jpg"`)
}

func TestCLI_TriageMissingIssue_ReportsConfigError(t *testing.T) {
	clearEnv(t)

	code, stdout, _ := runCLI(t, "triage")
	assert.Equal(t, 1, code)

	var rep domain.TriageReport
	require.NoError(t, json.Unmarshal(stdout, &rep), "stdout=%q", stdout)
	assert.Equal(t, domain.StatusFailed, rep.Status)
	assert.Equal(t, "config_missing_issue", rep.ErrorCode)
	assert.True(t, rep.DryRun)
}

func TestCLI_TriageDryRun_MissingCredentialIsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("ISSUE_NUMBER", "5")
	t.Setenv("ISSUE_USER", "alice")
	t.Setenv("ISSUE_BODY", "### Título\n\nHola\n")
	t.Setenv("GITHUB_WORKSPACE", t.TempDir())

	code, stdout, _ := runCLI(t, "triage")
	assert.Equal(t, 0, code, "被拒绝的投稿不是运行失败")

	var rep domain.TriageReport
	require.NoError(t, json.Unmarshal(stdout, &rep), "stdout=%q", stdout)
	assert.Equal(t, 5, rep.Issue)
	assert.Equal(t, domain.StatusRejected, rep.Status)
	assert.Equal(t, domain.ErrCodeMissingCredential, rep.ErrorCode)
	assert.Equal(t, "GROQ_API_KEY no está configurado", rep.ErrorMsg)
}

func TestCLI_UnknownFlagIsUsageError(t *testing.T) {
	clearEnv(t)

	code, _, stderr := runCLI(t, "gallery", "--nope")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--nope")
}
