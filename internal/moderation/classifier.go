package moderation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Request 是一次分类调用的输入。Image 为空时是纯文本分类。
type Request struct {
	Prompt    string
	Image     []byte
	ImageMIME string
}

// Classifier 把“具体推理服务”限制在本包内部；流水线只依赖统一接口与返回的原始判定文本。
//
// 约束：
// - 每次调用只发一个请求；不做重试、不做限速
// - 返回值是模型原文（已去首尾空白），判定由 Moderator 负责
type Classifier interface {
	Name() string
	Classify(ctx context.Context, req Request) (string, error)
}

// Settings 是构造 classifier 的公共参数；各实现只取自己认识的字段。
type Settings struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	HTTPClient  *http.Client
}

// Factory 按 Settings 构造一个 classifier。
type Factory func(ctx context.Context, s Settings) (Classifier, error)

// Registry 是 classifier 工厂的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Factory
}

// DefaultRegistry 注册内置的 groq 与 gemini。
func DefaultRegistry() Registry {
	r, _ := NewRegistry(map[string]Factory{
		"groq": func(_ context.Context, s Settings) (Classifier, error) {
			return NewGroq(GroqOptions(s))
		},
		"gemini": func(ctx context.Context, s Settings) (Classifier, error) {
			return NewGemini(ctx, GeminiOptions(s))
		},
	})
	return r
}

func NewRegistry(factories map[string]Factory) (Registry, error) {
	byName := make(map[string]Factory, len(factories))
	for name, f := range factories {
		if f == nil {
			return Registry{}, fmt.Errorf("classifier 工厂不能为空：%q", name)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return Registry{}, fmt.Errorf("classifier 名字不能为空")
		}
		if _, ok := byName[key]; ok {
			return Registry{}, fmt.Errorf("重复的 classifier：%q", key)
		}
		byName[key] = f
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Factory, bool) {
	if r.byName == nil {
		return nil, false
	}
	f, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// New 查找并调用 name 对应的工厂。
func (r Registry) New(ctx context.Context, name string, s Settings) (Classifier, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("未知的 classifier：%q", name)
	}
	return f(ctx, s)
}
