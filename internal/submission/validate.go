package submission

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// Rules 是字段校验的阈值（长度按 Unicode 字符计）。失败文案里的数字跟随阈值。
type Rules struct {
	MinTitle       int
	MinDescription int
	MinSources     int
}

// Violation 是面向提交者的校验失败：Message 会原样回帖到 issue。
type Violation struct {
	Code    string
	Message string
}

func (v *Violation) Error() string { return v.Message }

var infoTagRe = regexp.MustCompile(`(?i)^\[info\]\s*`)

// EffectiveTitle 优先使用 body 里解析出的标题；否则用 issue 标题并去掉开头的 "[Info]" 标签。
func EffectiveTitle(parsed, issueTitle string) string {
	if t := strings.TrimSpace(parsed); t != "" {
		return t
	}
	return strings.TrimSpace(infoTagRe.ReplaceAllString(strings.TrimSpace(issueTitle), ""))
}

// Validate 按固定顺序检查：标题 -> 描述 -> 来源数量 -> 图片。返回第一个失败项。
func Validate(title string, s domain.Submission, imageURL string, r Rules) *Violation {
	if title == "" || utf8.RuneCountInString(title) < r.MinTitle {
		return &Violation{Code: domain.ErrCodeTitleTooShort, Message: "El título es muy corto o está vacío"}
	}
	if s.Description == "" || utf8.RuneCountInString(s.Description) < r.MinDescription {
		return &Violation{Code: domain.ErrCodeDescriptionTooShort, Message: fmt.Sprintf("La descripción debe tener al menos %d caracteres", r.MinDescription)}
	}
	if len(s.Sources) < r.MinSources {
		return &Violation{Code: domain.ErrCodeTooFewSources, Message: fmt.Sprintf("Debe proporcionar al menos %d fuentes (URLs)", r.MinSources)}
	}
	if strings.TrimSpace(imageURL) == "" {
		return &Violation{Code: domain.ErrCodeMissingImage, Message: "Debe incluir al menos una imagen"}
	}
	return nil
}
