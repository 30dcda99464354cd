package moderation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/John-Robertt/sitebot/internal/infra/httpx"
)

const (
	DefaultGroqBaseURL     = "https://api.groq.com/openai/v1"
	DefaultGroqVisionModel = "meta-llama/llama-4-maverick-17b-128e-instruct"
	DefaultGroqTextModel   = "llama-3.3-70b-versatile"

	groqTemperature = 0.1
	groqMaxTokens   = 100
)

type GroqOptions struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	HTTPClient  *http.Client
}

// Groq 走 OpenAI 兼容的 chat/completions 接口；带图请求使用 vision 模型。
type Groq struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	visionModel string
	textModel   string
}

func NewGroq(opts GroqOptions) (*Groq, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("groq: api key 为空")
	}
	g := &Groq{
		http:        opts.HTTPClient,
		apiKey:      key,
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		visionModel: strings.TrimSpace(opts.VisionModel),
		textModel:   strings.TrimSpace(opts.TextModel),
	}
	if g.http == nil {
		g.http = httpx.NewClient(httpx.Options{})
	}
	if g.baseURL == "" {
		g.baseURL = DefaultGroqBaseURL
	}
	if g.visionModel == "" {
		g.visionModel = DefaultGroqVisionModel
	}
	if g.textModel == "" {
		g.textModel = DefaultGroqTextModel
	}
	return g, nil
}

func (g *Groq) Name() string { return "groq" }

type groqMessage struct {
	Role string `json:"role"`
	// Content 是 string（纯文本）或 []groqPart（带图）。
	Content any `json:"content"`
}

type groqPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *groqImageURL `json:"image_url,omitempty"`
}

type groqImageURL struct {
	URL string `json:"url"`
}

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Groq) Classify(ctx context.Context, req Request) (string, error) {
	body := groqChatReq{
		Model:       g.textModel,
		Temperature: groqTemperature,
		MaxTokens:   groqMaxTokens,
	}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		body.Model = g.visionModel
		body.Messages = []groqMessage{{
			Role: "user",
			Content: []groqPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &groqImageURL{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)}},
			},
		}}
	} else {
		body.Messages = []groqMessage{{Role: "user", Content: req.Prompt}}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := g.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("groq: %w", &httpx.StatusError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}

	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq: 解析响应失败：%w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("groq: 响应没有 choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
