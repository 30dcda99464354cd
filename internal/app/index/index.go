package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/app"
	"github.com/John-Robertt/sitebot/internal/config"
	"github.com/John-Robertt/sitebot/internal/domain"
	"github.com/John-Robertt/sitebot/internal/infra/fsx"
	"github.com/John-Robertt/sitebot/internal/infra/logx"
	"github.com/John-Robertt/sitebot/internal/scan"
)

// Build 扫描 root 下的 folder 并生成 manifest（只读，不写任何文件）。
//
// 规则：
// - folders 为空：取 root 下全部直接子目录（跳过隐藏目录）
// - root 缺失：记日志，返回空 manifest（不是错误）
// - 单个 folder 缺失/读取失败：记日志，该 folder 输出空列表并标记 degraded
func Build(ctx context.Context, root, prefix string, folders []string, log *zap.Logger) (domain.Manifest, []domain.FolderResult) {
	log = logx.OrNop(log)
	m := domain.NewManifest()
	results := make([]domain.FolderResult, 0, 8)

	if len(folders) == 0 {
		names, err := scan.Folders(root)
		if err != nil {
			if errors.Is(err, scan.ErrRootMissing) {
				log.Warn("gallery root 不存在", zap.String("root", root))
			} else {
				log.Error("读取 gallery root 失败", zap.String("root", root), zap.Error(err))
			}
			return m, results
		}
		folders = names
	}

	for _, folder := range folders {
		if ctx.Err() != nil {
			break
		}
		l := scan.ListFolder(root, folder)
		res := domain.FolderResult{Name: folder, Outcome: l.Outcome}
		if l.Outcome != domain.OutcomeSuccess {
			res.Error = l.Err.Error()
			if errors.Is(l.Err, os.ErrNotExist) {
				log.Warn("gallery folder 不存在", zap.String("folder", folder), zap.String("dir", l.Dir))
			} else {
				log.Error("读取 gallery folder 失败", zap.String("folder", folder), zap.Error(l.Err))
			}
		}

		entries, orphans := app.PairByStem(l, prefix)
		for _, img := range orphans {
			log.Debug("图片没有同名页面，跳过", zap.String("folder", folder), zap.String("image", img))
		}
		m.Galleries[folder] = domain.Gallery{Images: entries}
		res.Images = len(entries)
		results = append(results, res)

		log.Debug("folder 已索引", zap.String("folder", folder), zap.Int("images", len(entries)))
	}
	return m, results
}

// Encode 输出 UTF-8 JSON：2 空格缩进、末尾换行、不转义 HTML 字符（<>&）。
func Encode(m domain.Manifest) ([]byte, error) {
	if m.Galleries == nil {
		m = domain.NewManifest()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write 原子替换 path（临时文件 + rename），旧 manifest 不会被截断。
func Write(path string, m domain.Manifest) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}

// Execute 执行一次 gallery 运行，返回 manifest 与对外稳定的 GalleryReport。
//
// dry-run 只构建不落盘（由 CLI 决定把 manifest 打到 stdout）。
// 写入失败只记日志并写进报告，不向上返回错误：索引失败不应让调用方的 workflow 失败。
func Execute(ctx context.Context, cfg config.GalleryConfig, log *zap.Logger, obs app.Observer) (domain.Manifest, domain.GalleryReport) {
	log = logx.OrNop(log)
	obs = app.OrNop(obs)

	rep := domain.GalleryReport{
		Root:      cfg.Root,
		Output:    cfg.Out,
		DryRun:    !cfg.Apply,
		StartedAt: time.Now(),
	}
	obs.OnStart("gallery", map[string]any{"root": cfg.Root, "out": cfg.Out, "apply": cfg.Apply})

	scanStarted := time.Now()
	m, folders := Build(ctx, cfg.Root, cfg.Prefix, cfg.Folders, log)
	rep.Folders = folders
	rep.Finalize()
	obs.OnStageDone("scan", domain.StageStatusOK, map[string]any{
		"folders":  len(rep.Folders),
		"entries":  rep.Entries,
		"degraded": rep.Degraded,
	}, time.Since(scanStarted))

	writeStarted := time.Now()
	switch {
	case !cfg.Apply:
		obs.OnStageDone("write", domain.StageStatusSkipped, map[string]any{"dry_run": true}, 0)
	default:
		if err := Write(cfg.Out, m); err != nil {
			rep.WriteError = err.Error()
			log.Error("写入 manifest 失败", zap.String("out", cfg.Out), zap.Error(err))
			obs.OnStageDone("write", domain.StageStatusFailed, map[string]any{"error": err.Error()}, time.Since(writeStarted))
			break
		}
		log.Info("manifest 已写入", zap.String("out", cfg.Out), zap.Int("entries", rep.Entries))
		obs.OnStageDone("write", domain.StageStatusOK, map[string]any{"out": cfg.Out}, time.Since(writeStarted))
	}

	rep.FinishedAt = time.Now()
	rep.Finalize()
	return m, rep
}
