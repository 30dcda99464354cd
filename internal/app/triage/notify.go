package triage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/sitebot/internal/domain"
	"github.com/John-Robertt/sitebot/internal/infra/httpx"
)

const (
	errorPrefix   = "❌ **Error**: "
	successPrefix = "✅ **Éxito**: "
)

// genericFailure 用于无法归类的错误，避免把内部细节贴到公开 issue 里。
const genericFailure = "Error procesando la entrada"

// ErrorComment 是失败时回帖的全文。
//
// 只贴面向用户的 Message；上游 HTTP 错误附带状态码，响应体只进日志和报告。
func ErrorComment(err error) string {
	return errorPrefix + publicMessage(err)
}

func publicMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *StageError
	if !errors.As(err, &se) {
		return genericFailure
	}
	var st *httpx.StatusError
	if errors.As(se.Err, &st) {
		return fmt.Sprintf("%s (HTTP %d)", se.Message, st.StatusCode)
	}
	return se.Message
}

// SuccessComment 是成功时回帖的全文；replace/suffixed 各追加一行说明。
func SuccessComment(title string, plan domain.FilePlan, user string, sources int) string {
	var b strings.Builder
	b.WriteString(successPrefix)
	fmt.Fprintf(&b, "Entrada creada exitosamente: **%s**\n\n", title)
	fmt.Fprintf(&b, "📁 Archivo: `%s.md`\n", plan.Stem)
	fmt.Fprintf(&b, "👤 Usuario: %s\n", user)
	fmt.Fprintf(&b, "📊 Fuentes encontradas: %d\n", sources)
	switch plan.Kind {
	case domain.PlanReplace:
		b.WriteString("🔄 Archivo reemplazado (mismo usuario)\n")
	case domain.PlanSuffixed:
		b.WriteString("🔢 Nuevo archivo creado (conflicto de nombre)\n")
	}
	return b.String()
}
