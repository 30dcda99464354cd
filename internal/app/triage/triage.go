package triage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/app"
	"github.com/John-Robertt/sitebot/internal/app/planner"
	"github.com/John-Robertt/sitebot/internal/config"
	"github.com/John-Robertt/sitebot/internal/domain"
	"github.com/John-Robertt/sitebot/internal/infra/fsx"
	"github.com/John-Robertt/sitebot/internal/infra/httpx"
	"github.com/John-Robertt/sitebot/internal/infra/imgx"
	"github.com/John-Robertt/sitebot/internal/infra/logx"
	"github.com/John-Robertt/sitebot/internal/infra/store"
	"github.com/John-Robertt/sitebot/internal/moderation"
	"github.com/John-Robertt/sitebot/internal/record"
	"github.com/John-Robertt/sitebot/internal/submission"
	"github.com/John-Robertt/sitebot/internal/tracker"
	"github.com/John-Robertt/sitebot/internal/vcs"
)

// Deps 是流水线的外部依赖；全部由 cmd 层按配置构造后注入。
type Deps struct {
	// Classifiers 按 cfg.Provider 选择审核后端（凭据检查通过后才构造）。
	Classifiers moderation.Registry
	// ModerationClient 用于审核 API（不带 tracker 凭据）。
	ModerationClient *http.Client
	// ImageClient 用于下载图片（只对附件 host 附带 tracker 凭据）。
	ImageClient *http.Client

	Tracker   tracker.Tracker
	Publisher vcs.Publisher
}

// Execute 处理一个 issue，并返回对外稳定的 TriageReport。
//
// 规则：
// - 阶段 1-8 任一失败即中止，回帖 "❌ **Error**: <msg>"，issue 保持打开
// - 全部成功：回帖成功信息并关闭 issue
// - dry-run：照常解析/下载/审核/规划，但不写文件、不 commit、不回帖
// - 回帖失败只记日志与报告，不改变流水线结果
func Execute(ctx context.Context, cfg config.TriageConfig, deps Deps, log *zap.Logger, obs app.Observer) domain.TriageReport {
	log = logx.OrNop(log).With(zap.Int("issue", cfg.Issue.Number))
	obs = app.OrNop(obs)

	rep := domain.TriageReport{
		Issue:     cfg.Issue.Number,
		User:      cfg.Issue.User,
		DryRun:    !cfg.Apply,
		StartedAt: time.Now(),
	}
	obs.OnStart("triage", map[string]any{
		"issue":    cfg.Issue.Number,
		"user":     cfg.Issue.User,
		"provider": cfg.Provider,
		"target":   cfg.TargetDir,
		"apply":    cfg.Apply,
	})

	p := &pipeline{cfg: cfg, deps: deps, log: log, obs: obs, rep: &rep}
	res, err := p.run(ctx)
	if err != nil {
		rep.Status, rep.ErrorCode = classify(err)
		rep.ErrorMsg = err.Error()
		if rep.Status == domain.StatusRejected {
			log.Info("投稿被拒绝", zap.String("error_code", rep.ErrorCode), zap.String("reason", rep.ErrorMsg))
		} else {
			log.Error("投稿处理失败", zap.String("error_code", rep.ErrorCode), zap.Error(err))
		}
		p.notifyFailure(ctx, err)
	} else {
		rep.Status = domain.StatusProcessed
		log.Info("投稿处理完成", zap.String("stem", res.plan.Stem), zap.String("decision", string(res.plan.Kind)))
		p.notifySuccess(ctx, res)
	}

	rep.FinishedAt = time.Now()
	rep.Finalize()
	return rep
}

type pipeline struct {
	cfg  config.TriageConfig
	deps Deps
	log  *zap.Logger
	obs  app.Observer
	rep  *domain.TriageReport
}

// outcome 是成功路径上通知阶段需要的全部信息。
type outcome struct {
	title   string
	plan    domain.FilePlan
	sources int
}

func (p *pipeline) run(ctx context.Context) (outcome, error) {
	var (
		cls      moderation.Classifier
		sub      domain.Submission
		title    string
		imageURL string
		img      imgx.Result
		plan     domain.FilePlan
	)
	cfg := p.cfg
	pol := cfg.Policy

	if err := p.stage("config", func() (map[string]any, error) {
		name, key := cfg.Credential()
		if key == "" {
			return nil, &ValidationError{Code: domain.ErrCodeMissingCredential, Message: fmt.Sprintf("%s no está configurado", name)}
		}
		c, err := p.deps.Classifiers.New(ctx, cfg.Provider, moderation.Settings{
			APIKey:      key,
			VisionModel: cfg.VisionModel,
			TextModel:   cfg.TextModel,
			HTTPClient:  p.deps.ModerationClient,
		})
		if err != nil {
			return nil, &StageError{Code: domain.ErrCodeModerationFailed, Message: "Error inicializando la moderación", Err: err}
		}
		cls = c
		return map[string]any{"provider": c.Name()}, nil
	}); err != nil {
		return outcome{}, err
	}

	_ = p.stage("parse", func() (map[string]any, error) {
		sub = submission.Parse(cfg.Issue.Body)
		p.rep.Parser = sub.Parser
		p.rep.Sources = len(sub.Sources)
		imageURL, _ = submission.ExtractImageURL(cfg.Issue.Body)
		p.rep.ImageURL = imageURL
		return map[string]any{"parser": sub.Parser, "sources": len(sub.Sources), "image": imageURL != ""}, nil
	})

	if err := p.stage("validate", func() (map[string]any, error) {
		title = submission.EffectiveTitle(sub.Title, cfg.Issue.Title)
		p.rep.Title = title
		v := submission.Validate(title, sub, imageURL, submission.Rules{
			MinTitle:       pol.MinTitleLength,
			MinDescription: pol.MinDescriptionLength,
			MinSources:     pol.MinSources,
		})
		if v != nil {
			return nil, &ValidationError{Code: v.Code, Message: v.Message}
		}
		return map[string]any{"title": title}, nil
	}); err != nil {
		return outcome{}, err
	}

	if err := p.stage("image", func() (map[string]any, error) {
		raw, err := httpx.Download(ctx, p.deps.ImageClient, imageURL, pol.MaxImageBytes)
		if err != nil {
			return nil, &StageError{Code: domain.ErrCodeFetchFailed, Message: "Error descargando imagen", Err: err}
		}
		img = imgx.NormalizeJPEG(raw, pol.JPEGQuality, pol.MaxImagePixels)
		p.rep.Image = img.Outcome
		if img.Outcome != domain.OutcomeSuccess {
			p.log.Warn("图片无法重新编码，使用原始字节", zap.String("url", imageURL), zap.Error(img.Cause))
		}
		return map[string]any{"bytes": len(raw), "outcome": string(img.Outcome)}, nil
	}); err != nil {
		return outcome{}, err
	}

	mod := moderation.NewModerator(cls, pol.ImagePrompt, pol.TextPrompt, p.log)

	if err := p.stage("moderate_image", func() (map[string]any, error) {
		r := mod.CheckImage(ctx, img.Data, img.MIMEType())
		p.rep.ImageCheck = r.Check
		if r.Check == domain.ImageCheckRejected {
			return nil, &ValidationError{Code: domain.ErrCodeImageRejected, Message: "La imagen no es apropiada para todo público. Sigue las Reglas."}
		}
		return map[string]any{"check": r.Check, "verdict": r.Verdict}, nil
	}); err != nil {
		return outcome{}, err
	}

	if err := p.stage("moderate_text", func() (map[string]any, error) {
		ok, verdict, err := mod.CheckText(ctx, sub.Description, sub.Sources)
		if err != nil {
			return nil, &StageError{Code: domain.ErrCodeModerationFailed, Message: "Error validando el contenido", Err: err}
		}
		if !ok {
			return nil, &ValidationError{Code: domain.ErrCodeTextRejected, Message: "El contenido del texto o las fuentes no son válidos. Sigue las Reglas."}
		}
		return map[string]any{"verdict": verdict}, nil
	}); err != nil {
		return outcome{}, err
	}

	st := store.New(cfg.TargetDir, !cfg.Apply)

	if err := p.stage("plan", func() (map[string]any, error) {
		if _, err := fsx.DirExists(cfg.TargetDir); err != nil {
			return nil, fsError("Error leyendo el directorio de destino", err)
		}
		fp, err := planner.Plan(st, title, cfg.Issue.User, pol.MaxFilenameLength)
		if err != nil {
			return nil, fsError("Error resolviendo el nombre de archivo", err)
		}
		plan = fp
		p.rep.Stem = fp.Stem
		p.rep.Decision = fp.Kind
		return map[string]any{"stem": fp.Stem, "decision": string(fp.Kind)}, nil
	}); err != nil {
		return outcome{}, err
	}

	res := outcome{title: title, plan: plan, sources: len(sub.Sources)}
	if !cfg.Apply {
		p.skip("write", "dry-run")
		p.skip("commit", "dry-run")
		return res, nil
	}

	if err := p.stage("write", func() (map[string]any, error) {
		if err := fsx.EnsureDir(cfg.TargetDir); err != nil {
			return nil, fsError("Error creando el directorio de destino", err)
		}
		md := record.Encode(record.Record{
			User:        cfg.Issue.User,
			Title:       title,
			Description: sub.Description,
			Sources:     sub.Sources,
		})
		if err := st.WriteSubmission(plan, md, img.Data); err != nil {
			return nil, fsError("Error guardando los archivos", err)
		}
		return map[string]any{"stem": plan.Stem}, nil
	}); err != nil {
		return outcome{}, err
	}

	if err := p.stage("commit", func() (map[string]any, error) {
		msg := pol.CommitMessage(plan.Stem)
		hash, err := p.deps.Publisher.Publish(ctx, msg)
		if errors.Is(err, vcs.ErrNothingToCommit) {
			p.log.Info("内容与已有记录相同，没有可提交的变更", zap.String("stem", plan.Stem))
			return map[string]any{"commit": ""}, nil
		}
		p.rep.Commit = hash
		if err != nil {
			return nil, &StageError{Code: domain.ErrCodeVCSFailed, Message: "Error publicando los cambios", Err: err}
		}
		return map[string]any{"commit": hash, "message": msg}, nil
	}); err != nil {
		return outcome{}, err
	}
	return res, nil
}

func (p *pipeline) notifySuccess(ctx context.Context, res outcome) {
	body := SuccessComment(res.title, res.plan, p.cfg.Issue.User, res.sources)
	if !p.cfg.Apply || p.deps.Tracker == nil {
		p.log.Debug("dry-run：不回帖", zap.String("comment", body))
		p.skip("notify", "dry-run")
		return
	}
	_ = p.stage("notify", func() (map[string]any, error) {
		if err := p.deps.Tracker.Comment(ctx, p.cfg.Issue.Number, body); err != nil {
			return nil, p.notifyError(err)
		}
		if err := p.deps.Tracker.Close(ctx, p.cfg.Issue.Number); err != nil {
			return nil, p.notifyError(err)
		}
		return map[string]any{"closed": true}, nil
	})
}

func (p *pipeline) notifyFailure(ctx context.Context, cause error) {
	body := ErrorComment(cause)
	if !p.cfg.Apply || p.deps.Tracker == nil {
		p.log.Debug("dry-run：不回帖", zap.String("comment", body))
		p.skip("notify", "dry-run")
		return
	}
	_ = p.stage("notify", func() (map[string]any, error) {
		if err := p.deps.Tracker.Comment(ctx, p.cfg.Issue.Number, body); err != nil {
			return nil, p.notifyError(err)
		}
		return map[string]any{"closed": false}, nil
	})
}

func (p *pipeline) notifyError(err error) error {
	p.rep.NotifyError = err.Error()
	p.log.Error("回帖失败", zap.Error(err))
	return err
}

// stage 运行一个阶段并记录耗时与结果；fn 返回的错误原样向上传递。
func (p *pipeline) stage(name string, fn func() (map[string]any, error)) error {
	started := time.Now()
	fields, err := fn()
	dur := time.Since(started)

	sr := domain.StageResult{Name: name, Status: domain.StageStatusOK, Duration: dur.Milliseconds()}
	if err != nil {
		sr.Status = domain.StageStatusFailed
		sr.Note = err.Error()
		if fields == nil {
			fields = map[string]any{}
		}
		fields["error"] = err.Error()
	}
	p.rep.Stages = append(p.rep.Stages, sr)
	p.obs.OnStageDone(name, sr.Status, fields, dur)
	return err
}

func (p *pipeline) skip(name, note string) {
	p.rep.Stages = append(p.rep.Stages, domain.StageResult{Name: name, Status: domain.StageStatusSkipped, Note: note})
	p.obs.OnStageDone(name, domain.StageStatusSkipped, map[string]any{"reason": note}, 0)
}

// fsError 区分“路径被非预期类型占用/被并发抢先”与一般 I/O 失败。
func fsError(msg string, err error) error {
	if fsx.IsPathTypeConflict(err) || errors.Is(err, store.ErrConflict) {
		return &StageError{Code: domain.ErrCodeTargetConflict, Message: msg, Err: err}
	}
	return &StageError{Code: domain.ErrCodeIOFailed, Message: msg, Err: err}
}
