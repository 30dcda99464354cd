package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy 是 triage 的可调阈值与文案。零值不可用，请从 DefaultPolicy 开始。
type Policy struct {
	MinTitleLength       int   `yaml:"min_title_length"`
	MinDescriptionLength int   `yaml:"min_description_length"`
	MinSources           int   `yaml:"min_sources"`
	MaxFilenameLength    int   `yaml:"max_filename_length"`
	JPEGQuality          int   `yaml:"jpeg_quality"`
	MaxImageBytes        int64 `yaml:"max_image_bytes"`
	MaxImagePixels       int64 `yaml:"max_image_pixels"`

	CommitPrefix    string `yaml:"commit_prefix"`
	CommitSignature string `yaml:"commit_signature"`

	// 为空时使用 moderation 包内置的提示词。
	ImagePrompt string `yaml:"image_prompt"`
	TextPrompt  string `yaml:"text_prompt"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinTitleLength:       3,
		MinDescriptionLength: 500,
		MinSources:           3,
		MaxFilenameLength:    100,
		JPEGQuality:          90,
		MaxImageBytes:        20 << 20,
		MaxImagePixels:       50_000_000,
		CommitPrefix:         "Nueva Entrada:",
		CommitSignature:      "IssueBot",
	}
}

// CommitMessage 形如 "Nueva Entrada: <stem> IssueBot"。
func (p Policy) CommitMessage(stem string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.CommitPrefix, stem, p.CommitSignature} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// LoadPolicy 读取 YAML 策略文件；文件里没写的字段保持默认值，未知字段直接报错。
func LoadPolicy(path string) (Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, &Error{Code: ErrCodeInvalid, Key: "policy", Err: err}
	}

	p := DefaultPolicy()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, &Error{Code: ErrCodeInvalid, Key: "policy", Err: fmt.Errorf("%s：%w", path, err)}
	}
	if err := p.Validate(); err != nil {
		return Policy{}, &Error{Code: ErrCodeInvalid, Key: "policy", Err: fmt.Errorf("%s：%w", path, err)}
	}
	return p, nil
}

// Validate 只拒绝会让流程失去意义的值（例如 0 长度的文件名上限）。
func (p Policy) Validate() error {
	switch {
	case p.MinTitleLength < 1:
		return fmt.Errorf("min_title_length 必须 >= 1")
	case p.MinDescriptionLength < 0:
		return fmt.Errorf("min_description_length 不能为负")
	case p.MinSources < 0:
		return fmt.Errorf("min_sources 不能为负")
	case p.MaxFilenameLength < 8:
		return fmt.Errorf("max_filename_length 必须 >= 8")
	case p.JPEGQuality < 1 || p.JPEGQuality > 100:
		return fmt.Errorf("jpeg_quality 必须在 [1, 100] 内")
	case p.MaxImageBytes <= 0:
		return fmt.Errorf("max_image_bytes 必须 > 0")
	case p.MaxImagePixels <= 0:
		return fmt.Errorf("max_image_pixels 必须 > 0")
	}
	return nil
}
