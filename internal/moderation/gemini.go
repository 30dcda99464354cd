package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiOptions struct {
	APIKey string
	// BaseURL 为空时使用 SDK 默认地址。
	BaseURL     string
	VisionModel string
	TextModel   string
	HTTPClient  *http.Client
}

// Gemini 通过官方 genai SDK 调用 generateContent；图片以 inline blob 发送。
type Gemini struct {
	cli         *genai.Client
	visionModel string
	textModel   string
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("gemini: api key 为空")
	}
	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if u := strings.TrimSpace(opts.BaseURL); u != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: u}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	g := &Gemini{
		cli:         cli,
		visionModel: strings.TrimSpace(opts.VisionModel),
		textModel:   strings.TrimSpace(opts.TextModel),
	}
	if g.visionModel == "" {
		g.visionModel = DefaultGeminiModel
	}
	if g.textModel == "" {
		g.textModel = DefaultGeminiModel
	}
	return g, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Classify(ctx context.Context, req Request) (string, error) {
	model := g.textModel
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		model = g.visionModel
		parts = append(parts, genai.NewPartFromBytes(req.Image, mime))
	}

	temp := float32(groqTemperature)
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: &temp},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: 响应没有 candidates")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
