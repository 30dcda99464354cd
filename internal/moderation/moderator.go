package moderation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/domain"
)

const (
	verdictImageRejected = "NO_APTA"
	verdictTextRejected  = "INVALIDO"
)

// Moderator 把 classifier 的原始回答翻译成流水线的判定。
//
// 两条检查的失败语义不同：
// - 图片：classifier 出错时放行（ImageCheckSkipped），只记日志
// - 文本：classifier 出错时拒绝，由调用方映射为 moderation_failed
type Moderator struct {
	c           Classifier
	imagePrompt string
	textPrompt  string
	log         *zap.Logger
}

// NewModerator 的 prompt 为空时使用内置默认值。
func NewModerator(c Classifier, imagePrompt, textPrompt string, log *zap.Logger) *Moderator {
	if strings.TrimSpace(imagePrompt) == "" {
		imagePrompt = DefaultImagePrompt
	}
	if strings.TrimSpace(textPrompt) == "" {
		textPrompt = DefaultTextPrompt
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Moderator{c: c, imagePrompt: imagePrompt, textPrompt: textPrompt, log: log}
}

// ImageResult 是图片检查的结果；Err 只在 Check=skipped 时非空。
type ImageResult struct {
	Check   string
	Verdict string
	Err     error
}

func (m *Moderator) CheckImage(ctx context.Context, img []byte, mime string) ImageResult {
	verdict, err := m.c.Classify(ctx, Request{Prompt: m.imagePrompt, Image: img, ImageMIME: mime})
	if err != nil {
		m.log.Warn("图片审核失败，按通过处理",
			zap.String("classifier", m.c.Name()),
			zap.Error(err),
		)
		return ImageResult{Check: domain.ImageCheckSkipped, Err: err}
	}
	m.log.Debug("图片审核完成", zap.String("classifier", m.c.Name()), zap.String("verdict", verdict))
	if strings.Contains(strings.ToUpper(verdict), verdictImageRejected) {
		return ImageResult{Check: domain.ImageCheckRejected, Verdict: verdict}
	}
	return ImageResult{Check: domain.ImageCheckPassed, Verdict: verdict}
}

// CheckText 返回 ok=false 且 err=nil 表示被模型判为 INVALIDO；err 非空表示审核本身失败。
func (m *Moderator) CheckText(ctx context.Context, description string, sources []string) (ok bool, verdict string, err error) {
	verdict, err = m.c.Classify(ctx, Request{Prompt: TextInput(m.textPrompt, description, sources)})
	if err != nil {
		return false, "", err
	}
	m.log.Debug("文本审核完成", zap.String("classifier", m.c.Name()), zap.String("verdict", verdict))
	return !strings.Contains(strings.ToUpper(verdict), verdictTextRejected), verdict, nil
}

// TextInput 把 prompt 与待审核内容拼成一次请求的完整文本。
func TextInput(prompt, description string, sources []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nTEXTO A ANALIZAR:\n\nDESCRIPCIÓN:\n")
	b.WriteString(description)
	b.WriteString("\n\nFUENTES:\n")
	b.WriteString(strings.Join(sources, "\n"))
	b.WriteString("\n")
	return b.String()
}
